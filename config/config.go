package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	ResolverYtDlp     = "ytdlp"
	ResolverInnertube = "innertube"

	ProviderGroq   = "groq"
	ProviderOllama = "ollama"
)

type Config struct {
	// Server settings
	ServerPort      string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	LoadTimeout     time.Duration
	AskTimeout      time.Duration
	StaticDir       string

	// Storage and logging
	DBPath    string
	LogDir    string
	LogLevel  string
	LogFormat string

	// Caption fetching
	CaptionResolver      string
	YtDlpPath            string
	HTTPClientTimeout    time.Duration
	SegmentFetchInterval time.Duration

	// Retrieval
	ChunkSize      int
	ChunkOverlap   int
	TopK           int
	EmbedBatchSize int
	OllamaHost     string
	EmbeddingModel string

	// Generation
	ChatProvider    string
	ChatModel       string
	ChatTemperature float64
	GroqAPIKey      string
	GroqBaseURL     string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; variables already set win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("Failed to read .env file")
	}

	cfg := &Config{
		ServerPort:      GetEnv("SERVER_PORT", "8080"),
		ReadTimeout:     getEnvAsDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:    getEnvAsDuration("WRITE_TIMEOUT", 10*time.Minute),
		IdleTimeout:     getEnvAsDuration("IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		LoadTimeout:     getEnvAsDuration("LOAD_TIMEOUT", 10*time.Minute),
		AskTimeout:      getEnvAsDuration("ASK_TIMEOUT", 2*time.Minute),
		StaticDir:       GetEnv("STATIC_DIR", "./static"),

		DBPath:    GetEnv("DB_PATH", "file:ytchat?mode=memory&cache=shared"),
		LogDir:    GetEnv("LOG_DIR", "./logs"),
		LogLevel:  GetEnv("LOG_LEVEL", "info"),
		LogFormat: GetEnv("LOG_FORMAT", "text"),

		CaptionResolver:      GetEnv("CAPTION_RESOLVER", ResolverYtDlp),
		YtDlpPath:            GetEnv("YTDLP_PATH", "yt-dlp"),
		HTTPClientTimeout:    getEnvAsDuration("HTTP_CLIENT_TIMEOUT", 0),
		SegmentFetchInterval: getEnvAsDuration("SEGMENT_FETCH_INTERVAL", 0),

		ChunkSize:      getEnvAsInt("CHUNK_SIZE", 700),
		ChunkOverlap:   getEnvAsInt("CHUNK_OVERLAP", 200),
		TopK:           getEnvAsInt("TOP_K", 3),
		EmbedBatchSize: getEnvAsInt("EMBED_BATCH_SIZE", 32),
		OllamaHost:     GetEnv("OLLAMA_HOST", ""),
		EmbeddingModel: GetEnv("EMBEDDING_MODEL", "all-minilm"),

		ChatProvider:    GetEnv("CHAT_PROVIDER", ProviderGroq),
		ChatModel:       GetEnv("CHAT_MODEL", "llama-3.3-70b-versatile"),
		ChatTemperature: getEnvAsFloat("CHAT_TEMPERATURE", 0),
		GroqAPIKey:      GetEnv("GROQ_API_KEY", ""),
		GroqBaseURL:     GetEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid duration, using default")
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid integer, using default")
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid float, using default")
	}
	return defaultValue
}

func (c *Config) Validate() error {
	if c.ServerPort == "" {
		return errors.New("server port is required")
	}
	if c.DBPath == "" {
		return errors.New("database path is required")
	}
	if c.ReadTimeout <= 0 {
		return errors.New("read timeout must be greater than 0")
	}
	if c.WriteTimeout <= 0 {
		return errors.New("write timeout must be greater than 0")
	}
	if c.IdleTimeout <= 0 {
		return errors.New("idle timeout must be greater than 0")
	}
	if c.LoadTimeout <= 0 || c.AskTimeout <= 0 {
		return errors.New("load and ask timeouts must be greater than 0")
	}
	if c.HTTPClientTimeout < 0 || c.SegmentFetchInterval < 0 {
		return errors.New("client timeout and segment interval must not be negative")
	}
	if c.ChunkSize <= 0 {
		return errors.New("chunk size must be greater than 0")
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return errors.Errorf("chunk overlap must be in [0, %d)", c.ChunkSize)
	}
	if c.TopK <= 0 {
		return errors.New("top k must be greater than 0")
	}
	if c.EmbedBatchSize <= 0 {
		return errors.New("embed batch size must be greater than 0")
	}
	switch c.CaptionResolver {
	case ResolverYtDlp, ResolverInnertube:
	default:
		return errors.Errorf("unknown caption resolver %q", c.CaptionResolver)
	}
	switch c.ChatProvider {
	case ProviderGroq, ProviderOllama:
	default:
		return errors.Errorf("unknown chat provider %q", c.ChatProvider)
	}
	return nil
}
