package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/queryloom/queryloom/internal/cli/queryloomctl"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(queryloomctl.Run(ctx, os.Args[1:], queryloomctl.Options{
		BaseURL: os.Getenv("QUERYLOOM_BASE_URL"),
		APIKey:  os.Getenv("QUERYLOOM_API_KEY"),
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}))
}
