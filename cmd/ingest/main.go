package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	jsoniter "github.com/json-iterator/go"

	"github.com/riskibarqy/draft-combine-pipeline/internal/app"
	"github.com/riskibarqy/draft-combine-pipeline/internal/config"
	"github.com/riskibarqy/draft-combine-pipeline/internal/platform/logging"
	"github.com/riskibarqy/draft-combine-pipeline/internal/usecase"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

func main() {
	os.Exit(run())
}

func run() int {
	var (
		season  = flag.Int("season", 0, "season the window belongs to")
		start   = flag.String("start", "", "window start date (YYYY-MM-DD)")
		end     = flag.String("end", "", "window end date (YYYY-MM-DD)")
		reset   = flag.Bool("reset", false, "ignore the checkpoint and restart from page 0")
		follow  = flag.Bool("follow", false, "keep invoking the window while it reports partial")
		history = flag.Int("history", 0, "print the N most recent ledger runs for the season and exit")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		return 2
	}

	logger := logging.NewJSON(cfg.LogLevel).Named("ingest")
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	stopTelemetry, err := app.StartTelemetry(cfg, logger)
	if err != nil {
		logger.Error("init telemetry", "error", err)
		return 1
	}
	defer stopTelemetry()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pipeline, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("build pipeline", "error", err)
		return 1
	}
	defer func() { _ = pipeline.Close() }()

	if *history > 0 {
		runs, err := pipeline.Runs.ListRecent(ctx, *season, *history)
		if err != nil {
			logger.Error("list runs", "error", err)
			return 1
		}
		return emit(logger, runs)
	}

	if cfg.BallDontLieToken == "" {
		logger.Error("BALLDONTLIE_API_KEY is required")
		return 2
	}

	input := usecase.RunInput{Season: *season, StartDate: *start, EndDate: *end, Reset: *reset}
	if *follow {
		result, err := pipeline.Batch.Run(ctx, []usecase.RunInput{input})
		if err != nil {
			logger.Error("invalid window", "error", err)
			return 2
		}
		code := emit(logger, result)
		if result.FailedCount > 0 {
			return 1
		}
		return code
	}

	report, err := pipeline.Ingestion.Run(ctx, input)
	if errors.Is(err, usecase.ErrInvalidInput) {
		logger.Error("invalid window", "error", err, "season", input.Season, "start", input.StartDate, "end", input.EndDate)
		return 2
	}
	code := emit(logger, report)
	if err != nil {
		logger.Error("ingestion failed", "error", err, "season", input.Season, "start", input.StartDate, "end", input.EndDate)
		return 1
	}
	return code
}

func emit(logger *logging.Logger, v any) int {
	raw, err := jsonAPI.MarshalIndent(v, "", "  ")
	if err != nil {
		logger.Error("encode output", "error", err)
		return 1
	}
	fmt.Println(string(raw))
	return 0
}
