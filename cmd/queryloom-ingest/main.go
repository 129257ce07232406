package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	_ "github.com/mattn/go-sqlite3"

	"github.com/queryloom/queryloom/internal/config"
	"github.com/queryloom/queryloom/internal/ingest"
	"github.com/queryloom/queryloom/internal/observability"
	"github.com/queryloom/queryloom/internal/retriever"
)

func main() {
	_ = godotenv.Load()

	mode := flag.String("mode", "load", "export (dump DDL to the corpus file) or load (embed the corpus into the vector store)")
	corpusPath := flag.String("corpus", "table_schemas.txt", "path to the schema corpus file")
	flag.Parse()

	cfg, err := config.LoadFromEnv("queryloom-ingest")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg, os.Stdout)
	ctx := context.Background()

	switch *mode {
	case "export":
		runExport(ctx, cfg, logger, *corpusPath)
	case "load":
		runLoad(ctx, cfg, logger, *corpusPath)
	default:
		logger.Error("unknown mode", slog.String("mode", *mode))
		os.Exit(2)
	}
}

func runExport(ctx context.Context, cfg config.Config, logger *slog.Logger, corpusPath string) {
	db, err := sql.Open("sqlite3", cfg.Database.DSN)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	out, err := os.Create(corpusPath)
	if err != nil {
		logger.Error("failed to create corpus file", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = out.Close() }()

	count, err := ingest.ExportSchemas(ctx, db, out)
	if err != nil {
		logger.Error("schema export failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("exported schemas", slog.Int("tables", count), slog.String("corpus", corpusPath))
}

func runLoad(ctx context.Context, cfg config.Config, logger *slog.Logger, corpusPath string) {
	raw, err := os.ReadFile(corpusPath)
	if err != nil {
		logger.Error("failed to read corpus file", slog.Any("error", err))
		os.Exit(1)
	}

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

	pipeline := ingest.Pipeline{Embedder: embedder, Store: store, Logger: logger}
	count, err := pipeline.Run(ctx, string(raw))
	if err != nil {
		logger.Error("corpus ingestion failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("ingested corpus",
		slog.Int("documents", count),
		slog.String("backend", cfg.Vector.Backend),
	)
}
