package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/riskibarqy/draft-combine-pipeline/internal/domain/window"
	"github.com/riskibarqy/draft-combine-pipeline/internal/platform/logging"
	"github.com/riskibarqy/draft-combine-pipeline/internal/usecase"
)

type batchRunner interface {
	Run(ctx context.Context, inputs []usecase.RunInput) (usecase.BatchResult, error)
}

type joinRunner interface {
	Materialize(ctx context.Context, input usecase.JoinInput) (usecase.JoinResult, error)
}

type SchedulerConfig struct {
	Spec       string
	Season     int
	WindowDays int
	// Timeout bounds one tick; zero leaves it unbounded.
	Timeout time.Duration
	Now     func() time.Time
	Logger  *logging.Logger
}

// Scheduler ingests the last complete calendar period on a cron cadence and refreshes the
// season's joined partition when every window finished cleanly. Ticks inside the same period
// resolve to the same window, so they hit its done checkpoint instead of writing new pages.
type Scheduler struct {
	cron   *cron.Cron
	batch  batchRunner
	join   joinRunner
	cfg    SchedulerConfig
	logger *logging.Logger

	mu      sync.Mutex
	lastRun time.Time
}

func NewScheduler(batch batchRunner, join joinRunner, cfg SchedulerConfig) (*Scheduler, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	cronLogger := cronLogAdapter{logger: logger}
	s := &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC), cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger))),
		batch:  batch,
		join:   join,
		cfg:    cfg,
		logger: logger,
	}
	if _, err := s.cron.AddFunc(cfg.Spec, func() { s.Tick(context.Background()) }); err != nil {
		return nil, fmt.Errorf("parse cron spec %q: %w", cfg.Spec, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "spec", s.cfg.Spec, "season", s.cfg.Season, "window_days", s.cfg.WindowDays)
}

// Stop waits for a running tick to return.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) LastRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun
}

// Tick runs one scheduled ingestion of the last complete period.
func (s *Scheduler) Tick(ctx context.Context) {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	now := s.cfg.Now()
	w := window.LastCompletePeriod(s.cfg.Season, now, s.cfg.WindowDays)
	logger := s.logger.With("season", w.Season, "range", w.Range())

	result, err := s.batch.Run(ctx, []usecase.RunInput{{
		Season:    w.Season,
		StartDate: w.Start(),
		EndDate:   w.End(),
	}})
	s.mu.Lock()
	s.lastRun = now
	s.mu.Unlock()
	if err != nil {
		logger.Error("scheduled ingestion rejected", "error", err)
		return
	}
	logger.Info("scheduled ingestion finished",
		"done", result.DoneCount,
		"partial", result.PartialCount,
		"failed", result.FailedCount,
	)
	if result.FailedCount > 0 || result.PartialCount > 0 || s.join == nil {
		return
	}

	joinResult, err := s.join.Materialize(ctx, usecase.JoinInput{Seasons: []int{w.Season}})
	if err != nil {
		logger.Error("scheduled join failed", "error", err)
		return
	}
	for _, season := range joinResult.Seasons {
		logger.Info("season partition refreshed", "partition", season.Key, "joined_rows", season.JoinedRows)
	}
}

type cronLogAdapter struct {
	logger *logging.Logger
}

func (a cronLogAdapter) Info(msg string, keysAndValues ...any) {
	a.logger.Debug(msg, keysAndValues...)
}

func (a cronLogAdapter) Error(err error, msg string, keysAndValues ...any) {
	a.logger.Error(msg, append(keysAndValues, "error", err)...)
}
