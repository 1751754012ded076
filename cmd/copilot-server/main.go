// Package main provides the HTTP server for the copilot.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/raphaelgruber/datacopilot/internal/config"
	"github.com/raphaelgruber/datacopilot/internal/llm"
	"github.com/raphaelgruber/datacopilot/internal/metrics"
	"github.com/raphaelgruber/datacopilot/internal/pipeline"
	"github.com/raphaelgruber/datacopilot/internal/server"
)

func main() {
	cfg := config.Load()

	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer func() {
		if err := cleanup(); err != nil {
			slog.Error("failed to close log file", "error", err)
		}
	}()
	slog.SetDefault(logger)

	slog.Info("starting copilot-server",
		"port", cfg.ServerPort,
		"provider", cfg.LLMProvider,
		"model", cfg.LLMModel,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	model, err := llm.NewModel(ctx, cfg)
	if err != nil {
		slog.Error("failed to create model", "error", err)
		os.Exit(1)
	}

	collector := metrics.NewCollector()
	controller := pipeline.NewController(model, collector, logger)

	srv := server.New(cfg, controller, collector, logger)
	if err := srv.Run(ctx); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
