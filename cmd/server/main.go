package main

import (
	"context"
	"log/slog"
	"os"

	"go-task-tracker/internal/app"
	"go-task-tracker/internal/logger"
)

func main() {
	slog.SetDefault(slog.New(logger.NewTerminalHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})))

	a, err := app.New(context.Background())
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}

	if err := a.Run(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
