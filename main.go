package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/nijaru/yt-chat/captions"
	"github.com/nijaru/yt-chat/config"
	"github.com/nijaru/yt-chat/db"
	"github.com/nijaru/yt-chat/handlers"
	"github.com/nijaru/yt-chat/logger"
	"github.com/nijaru/yt-chat/middleware"
	"github.com/nijaru/yt-chat/rag"
	"github.com/nijaru/yt-chat/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	logCloser, err := logger.Setup(cfg.LogDir, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize logger")
	}
	defer logCloser.Close()

	store, err := db.Open(cfg.DBPath)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize database")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logrus.WithError(err).Error("Failed to close database")
		}
	}()

	client := &http.Client{Timeout: cfg.HTTPClientTimeout}

	var resolver captions.Resolver
	switch cfg.CaptionResolver {
	case config.ResolverInnertube:
		resolver = captions.NewInnertubeResolver(client)
	default:
		resolver = captions.NewYtDlpResolver(cfg.YtDlpPath)
	}
	fetcher := captions.NewFetcher(resolver, client, cfg.SegmentFetchInterval)

	embedder, err := rag.NewOllamaEmbedder(cfg.OllamaHost, cfg.EmbeddingModel, cfg.EmbedBatchSize, client)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create embedder")
	}

	sess := session.New(fetcher, newBuilder(cfg, embedder, client), store)
	handlers.InitHandlers(cfg, sess)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      middleware.Chain(handlers.Routes(), middleware.LoggingMiddleware, middleware.Recovery),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		logrus.WithFields(logrus.Fields{
			"port":          cfg.ServerPort,
			"resolver":      cfg.CaptionResolver,
			"chat_provider": cfg.ChatProvider,
			"chat_model":    cfg.ChatModel,
		}).Info("Listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatalf("Could not listen on :%s", cfg.ServerPort)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logrus.Info("Shutting down the server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Server shutdown failed")
	}
}

// newBuilder returns the session builder: every Load gets a fresh index and
// a fresh chat client for the configured provider.
func newBuilder(cfg *config.Config, embedder rag.Embedder, client *http.Client) session.Builder {
	newChat := func() (rag.ChatModel, error) {
		if cfg.ChatProvider == config.ProviderOllama {
			chat, err := rag.NewOllamaChat(cfg.OllamaHost, cfg.ChatModel, cfg.ChatTemperature, client)
			if err != nil {
				return nil, err
			}
			return chat, nil
		}
		chat, err := rag.NewGroqChat(cfg.GroqAPIKey, cfg.GroqBaseURL, cfg.ChatModel, cfg.ChatTemperature, client)
		if err != nil {
			return nil, err
		}
		return chat, nil
	}

	return func(ctx context.Context, transcript string) (session.Answerer, error) {
		answerer, err := rag.Build(ctx, transcript, rag.Options{
			Embedder:     embedder,
			NewChat:      newChat,
			ChunkSize:    cfg.ChunkSize,
			ChunkOverlap: cfg.ChunkOverlap,
			TopK:         cfg.TopK,
		})
		if err != nil {
			return nil, err
		}
		return answerer, nil
	}
}
