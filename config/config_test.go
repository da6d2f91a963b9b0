package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ServerPort != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.ServerPort)
	}
	if cfg.ChunkSize != 700 || cfg.ChunkOverlap != 200 || cfg.TopK != 3 {
		t.Errorf("unexpected retrieval defaults: size=%d overlap=%d k=%d", cfg.ChunkSize, cfg.ChunkOverlap, cfg.TopK)
	}
	if cfg.ChatModel != "llama-3.3-70b-versatile" {
		t.Errorf("unexpected chat model %s", cfg.ChatModel)
	}
	if cfg.CaptionResolver != ResolverYtDlp {
		t.Errorf("expected default resolver %s, got %s", ResolverYtDlp, cfg.CaptionResolver)
	}
	if cfg.HTTPClientTimeout != 0 {
		t.Errorf("expected no client timeout by default, got %v", cfg.HTTPClientTimeout)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("ASK_TIMEOUT", "45s")
	t.Setenv("TOP_K", "5")
	t.Setenv("CHAT_PROVIDER", ProviderOllama)
	t.Setenv("CHAT_TEMPERATURE", "0.2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ServerPort != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.ServerPort)
	}
	if cfg.AskTimeout != 45*time.Second {
		t.Errorf("expected ask timeout 45s, got %v", cfg.AskTimeout)
	}
	if cfg.TopK != 5 {
		t.Errorf("expected top k 5, got %d", cfg.TopK)
	}
	if cfg.ChatProvider != ProviderOllama {
		t.Errorf("expected provider ollama, got %s", cfg.ChatProvider)
	}
	if cfg.ChatTemperature != 0.2 {
		t.Errorf("expected temperature 0.2, got %v", cfg.ChatTemperature)
	}
}

func TestInvalidValuesFallBackToDefault(t *testing.T) {
	t.Setenv("READ_TIMEOUT", "soon")
	t.Setenv("CHUNK_SIZE", "big")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ReadTimeout != 30*time.Second {
		t.Errorf("expected default read timeout, got %v", cfg.ReadTimeout)
	}
	if cfg.ChunkSize != 700 {
		t.Errorf("expected default chunk size, got %d", cfg.ChunkSize)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			ServerPort:      "8080",
			DBPath:          ":memory:",
			ReadTimeout:     time.Second,
			WriteTimeout:    time.Second,
			IdleTimeout:     time.Second,
			LoadTimeout:     time.Second,
			AskTimeout:      time.Second,
			ChunkSize:       700,
			ChunkOverlap:    200,
			TopK:            3,
			EmbedBatchSize:  32,
			CaptionResolver: ResolverYtDlp,
			ChatProvider:    ProviderGroq,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing port", func(c *Config) { c.ServerPort = "" }, true},
		{"zero read timeout", func(c *Config) { c.ReadTimeout = 0 }, true},
		{"overlap equals size", func(c *Config) { c.ChunkOverlap = 700 }, true},
		{"negative overlap", func(c *Config) { c.ChunkOverlap = -1 }, true},
		{"zero top k", func(c *Config) { c.TopK = 0 }, true},
		{"unknown resolver", func(c *Config) { c.CaptionResolver = "scraper" }, true},
		{"unknown provider", func(c *Config) { c.ChatProvider = "openai" }, true},
		{"negative segment interval", func(c *Config) { c.SegmentFetchInterval = -time.Second }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
