package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/riskibarqy/draft-combine-pipeline/internal/platform/logging"
)

type windowRunner interface {
	Run(ctx context.Context, input RunInput) (RunReport, error)
}

type BatchConfig struct {
	WorkerCount int
	// MaxContinuations bounds how many times a partial window is invoked again.
	MaxContinuations int
	Logger           *logging.Logger
}

// BatchService runs independent windows concurrently. Pages inside a window stay sequential.
type BatchService struct {
	runner           windowRunner
	workerCount      int
	maxContinuations int
	logger           *logging.Logger
}

type BatchItem struct {
	Input       RunInput  `json:"input"`
	Report      RunReport `json:"report"`
	Invocations int       `json:"invocations"`
	Error       string    `json:"error,omitempty"`
	DurationMs  int64     `json:"duration_ms"`
}

type BatchResult struct {
	Items        []BatchItem `json:"items"`
	DoneCount    int         `json:"done_count"`
	PartialCount int         `json:"partial_count"`
	FailedCount  int         `json:"failed_count"`
}

func NewBatchService(runner windowRunner, cfg BatchConfig) *BatchService {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	workers := cfg.WorkerCount
	if workers < 1 {
		workers = 1
	}
	continuations := cfg.MaxContinuations
	if continuations < 0 {
		continuations = 0
	}
	return &BatchService{
		runner:           runner,
		workerCount:      workers,
		maxContinuations: continuations,
		logger:           logger,
	}
}

func (s *BatchService) Run(ctx context.Context, inputs []RunInput) (BatchResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.BatchService.Run")
	defer span.End()

	if len(inputs) == 0 {
		return BatchResult{}, fmt.Errorf("%w: at least one window is required", ErrInvalidInput)
	}
	seen := make(map[string]struct{}, len(inputs))
	for _, input := range inputs {
		w, err := input.Window()
		if err != nil {
			return BatchResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		key := w.String()
		if _, dup := seen[key]; dup {
			return BatchResult{}, fmt.Errorf("%w: duplicate window %s", ErrInvalidInput, key)
		}
		seen[key] = struct{}{}
	}

	workerCount := s.workerCount
	if workerCount > len(inputs) {
		workerCount = len(inputs)
	}
	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return BatchResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	results := make(chan BatchItem, len(inputs))
	var workers sync.WaitGroup
	for _, input := range inputs {
		input := input
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()
			results <- s.runWindow(ctx, input)
		}); err != nil {
			workers.Done()
			return BatchResult{}, fmt.Errorf("submit window to worker pool: %w", err)
		}
	}

	workers.Wait()
	close(results)

	var out BatchResult
	for item := range results {
		switch {
		case item.Error != "":
			out.FailedCount++
		case item.Report.Status == RunStatusPartial:
			out.PartialCount++
		default:
			out.DoneCount++
		}
		out.Items = append(out.Items, item)
	}
	sort.SliceStable(out.Items, func(i, j int) bool {
		a, b := out.Items[i].Input, out.Items[j].Input
		if a.Season != b.Season {
			return a.Season < b.Season
		}
		if a.StartDate != b.StartDate {
			return a.StartDate < b.StartDate
		}
		return a.EndDate < b.EndDate
	})
	return out, nil
}

// runWindow invokes the window until it stops reporting partial or the continuation budget is spent.
// Only the first invocation honours Reset.
func (s *BatchService) runWindow(ctx context.Context, input RunInput) BatchItem {
	start := time.Now()
	item := BatchItem{Input: input}
	next := input
	for {
		item.Invocations++
		report, err := s.runner.Run(ctx, next)
		item.Report = report
		if err != nil {
			item.Error = err.Error()
			break
		}
		if report.Status != RunStatusPartial || item.Invocations > s.maxContinuations {
			break
		}
		if ctx.Err() != nil {
			break
		}
		s.logger.InfoContext(ctx, "window partial, continuing",
			"season", input.Season,
			"range", report.Range,
			"next_page", report.NextPage,
			"invocation", item.Invocations,
		)
		next.Reset = false
	}
	item.DurationMs = time.Since(start).Milliseconds()
	return item
}
