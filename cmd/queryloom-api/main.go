package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/queryloom/queryloom/internal/api"
	"github.com/queryloom/queryloom/internal/auth"
	"github.com/queryloom/queryloom/internal/config"
	"github.com/queryloom/queryloom/internal/executor"
	"github.com/queryloom/queryloom/internal/llm"
	"github.com/queryloom/queryloom/internal/metrics"
	"github.com/queryloom/queryloom/internal/observability"
	"github.com/queryloom/queryloom/internal/repair"
	"github.com/queryloom/queryloom/internal/retriever"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv("queryloom-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)

	db, err := executor.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logger.Error("failed to open target database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	embedder, err := retriever.NewOpenAIEmbedder(
		cfg.LLM.OpenAIAPIKey,
		cfg.LLM.OpenAIBaseURL,
		cfg.Embedding.Model,
		cfg.Embedding.BatchSize,
	)
	if err != nil {
		logger.Error("failed to initialize embedder", slog.Any("error", err))
		os.Exit(1)
	}

	var store retriever.Store
	switch cfg.Vector.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.Vector.RedisAddr, DB: cfg.Vector.RedisDB})
		store = retriever.NewRedisStore(client, cfg.Vector.IndexName)
	default:
		sqliteStore, err := retriever.NewSQLiteStore(cfg.Vector.SQLitePath)
		if err != nil {
			logger.Error("failed to open vector store", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() { _ = sqliteStore.Close() }()
		store = sqliteStore
	}

	client, err := llm.NewClient(llm.Config{
		Model:            cfg.LLM.Model,
		OpenAIAPIKey:     cfg.LLM.OpenAIAPIKey,
		OpenAIBaseURL:    cfg.LLM.OpenAIBaseURL,
		AnthropicAPIKey:  cfg.LLM.AnthropicAPIKey,
		AnthropicBaseURL: cfg.LLM.AnthropicBaseURL,
		MaxTokens:        cfg.LLM.MaxTokens,
		Timeout:          cfg.LLM.Timeout,
	})
	if err != nil {
		logger.Error("failed to initialize completion client", slog.Any("error", err))
		os.Exit(1)
	}

	var counters metrics.Store
	switch cfg.Counters.Backend {
	case "redis":
		counters = metrics.NewRedisStore(redis.NewClient(&redis.Options{
			Addr: cfg.Counters.RedisAddr,
			DB:   cfg.Counters.RedisDB,
		}))
	default:
		counters = metrics.NewFileStore(cfg.Counters.FilePath)
	}

	defaultContext := ""
	if cfg.Prompt.ContextFilePath != "" {
		raw, err := os.ReadFile(cfg.Prompt.ContextFilePath)
		if err != nil {
			logger.Error("failed to read context prompt file", slog.Any("error", err))
			os.Exit(1)
		}
		defaultContext = strings.TrimSpace(string(raw))
	}

	deps := api.Dependencies{
		Logger:            logger,
		Retriever:         retriever.New(embedder, store, cfg.Vector.TopK),
		Runner:            repair.New(client, db, cfg.Repair.MaxRetries, logger),
		Counters:          counters,
		DefaultContext:    defaultContext,
		Readiness:         db.Ping,
		DependencyTimeout: time.Second,
	}
	if cfg.Auth.Required {
		validator, err := auth.NewStaticAPIKeyValidator(cfg.Auth.StaticKeys)
		if err != nil {
			logger.Error("failed to parse static auth keys", slog.Any("error", err))
			os.Exit(1)
		}
		deps.AuthMiddleware = auth.Middleware(logger, validator)
	}

	handler := api.NewHandler(cfg, deps)
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting api server", slog.String("addr", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}
