package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/queryloom/queryloom/internal/config"
	"github.com/queryloom/queryloom/internal/demo"
	"github.com/queryloom/queryloom/internal/observability"
)

func main() {
	_ = godotenv.Load()

	path := flag.String("db", "", "path of the sample database (defaults to the configured DSN)")
	flag.Parse()

	cfg, err := config.LoadFromEnv("queryloom-demo")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg, os.Stdout)

	target := *path
	if target == "" {
		target = cfg.Database.DSN
	}

	db, err := demo.Open(context.Background(), target)
	if err != nil {
		logger.Error("failed to seed sample database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	logger.Info("seeded sample patient database", slog.String("path", target))
}
