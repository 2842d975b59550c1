package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/riskibarqy/draft-combine-pipeline/internal/app"
	"github.com/riskibarqy/draft-combine-pipeline/internal/config"
	"github.com/riskibarqy/draft-combine-pipeline/internal/observability"
	"github.com/riskibarqy/draft-combine-pipeline/internal/platform/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(2)
	}
	if cfg.BallDontLieToken == "" {
		fmt.Fprintln(os.Stderr, "BALLDONTLIE_API_KEY is required")
		os.Exit(2)
	}

	logger := logging.NewJSON(cfg.LogLevel).Named("scheduler")
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	stopTelemetry, err := app.StartTelemetry(cfg, logger)
	if err != nil {
		logger.Error("init telemetry", "error", err)
		os.Exit(1)
	}
	defer stopTelemetry()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pipeline, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("build pipeline", "error", err)
		os.Exit(1)
	}
	defer func() { _ = pipeline.Close() }()

	join, err := pipeline.JoinService(ctx)
	if err != nil {
		logger.Error("build join service", "error", err)
		os.Exit(1)
	}

	scheduler, err := app.NewScheduler(pipeline.Batch, join, app.SchedulerConfig{
		Spec:       cfg.SchedulerCron,
		Season:     cfg.SchedulerSeason,
		WindowDays: cfg.SchedulerWindowDays,
		Logger:     logger,
	})
	if err != nil {
		logger.Error("build scheduler", "error", err)
		os.Exit(1)
	}

	admin := observability.StartAdminServer(cfg.MetricsAddr, pipeline.Registry, logger)
	if cfg.SchedulerRunOnStart {
		go scheduler.Tick(ctx)
	}
	scheduler.Start()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := scheduler.Stop(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		logger.Error("scheduler stop failed", "error", err)
	}
	if err := observability.ShutdownAdminServer(shutdownCtx, admin); err != nil {
		logger.Error("admin server shutdown failed", "error", err)
	}
	logger.Info("scheduler stopped")
}
