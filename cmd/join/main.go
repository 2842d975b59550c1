package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	jsoniter "github.com/json-iterator/go"

	"github.com/riskibarqy/draft-combine-pipeline/internal/app"
	"github.com/riskibarqy/draft-combine-pipeline/internal/config"
	"github.com/riskibarqy/draft-combine-pipeline/internal/platform/logging"
	"github.com/riskibarqy/draft-combine-pipeline/internal/usecase"
)

func main() {
	seasonsFlag := flag.String("seasons", "", "comma separated seasons to rematerialize; empty means all ingested")
	planOnly := flag.Bool("plan", false, "print the join plan without executing it")
	flag.Parse()

	seasons, err := parseSeasons(*seasonsFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(2)
	}

	logger := logging.NewJSON(cfg.LogLevel).Named("join")
	logging.SetDefault(logger)

	os.Exit(run(cfg, logger, usecase.JoinInput{Seasons: seasons}, *planOnly))
}

func run(cfg config.Config, logger *logging.Logger, input usecase.JoinInput, planOnly bool) int {
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

	svc, err := pipeline.JoinService(ctx)
	if err != nil {
		logger.Error("build join service", "error", err)
		return 1
	}

	var out any
	if planOnly {
		out, err = svc.Plan(ctx, input)
	} else {
		out, err = svc.Materialize(ctx, input)
	}
	if err != nil {
		logger.Error("join failed", "error", err, "engine", cfg.JoinEngine)
		return 1
	}

	raw, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(out, "", "  ")
	if err != nil {
		logger.Error("encode output", "error", err)
		return 1
	}
	fmt.Println(string(raw))
	return 0
}

func parseSeasons(raw string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		season, err := strconv.Atoi(part)
		if err != nil || season <= 0 {
			return nil, fmt.Errorf("invalid season %q", part)
		}
		out = append(out, season)
	}
	return out, nil
}
