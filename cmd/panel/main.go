package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"govpanel/internal/config"
	"govpanel/internal/infrastructure"
	"govpanel/internal/operations"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	paths := cfg.GetPaths()
	paths.LogPathResolution(logger)

	if err := paths.EnsureDirectories(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runID := infrastructure.GenerateRunID()
	ctx = infrastructure.WithRunID(ctx, runID)

	telemetry, err := infrastructure.InitializeTelemetry(ctx, cfg.Telemetry, paths.MetricsFile, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	logger.InfoContext(ctx, "Starting panel pipeline",
		slog.String("data_dir", paths.DataDir),
		slog.String("output_dir", paths.OutputDir),
		slog.Bool("analysis", !cfg.Analysis.Skip))

	manager, err := operations.NewPipeline(cfg, paths, telemetry, os.Stdout)
	if err != nil {
		return err
	}

	_, err = manager.Run(ctx)
	return err
}
