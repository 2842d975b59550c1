package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/draft-combine-pipeline/internal/domain/checkpoint"
	"github.com/riskibarqy/draft-combine-pipeline/internal/domain/ingestrun"
	"github.com/riskibarqy/draft-combine-pipeline/internal/domain/playerstat"
	"github.com/riskibarqy/draft-combine-pipeline/internal/domain/window"
	"github.com/riskibarqy/draft-combine-pipeline/internal/platform/logging"
	"github.com/riskibarqy/draft-combine-pipeline/internal/platform/resilience"
)

const (
	defaultPerPage        = 25
	defaultMaxPagesPerRun = 10
	defaultCourtesyDelay  = time.Second
)

type RunStatus string

const (
	RunStatusDoneAlready RunStatus = "done_already"
	RunStatusDone        RunStatus = "done"
	RunStatusPartial     RunStatus = "partial"
	RunStatusFailed      RunStatus = "failed"
)

// RunInput is one invocation request for a (season, start_date, end_date) window.
type RunInput struct {
	Season    int    `json:"season" validate:"required,gt=0"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
	Reset     bool   `json:"reset"`
}

func (in RunInput) Window() (window.Window, error) {
	return window.New(in.Season, in.StartDate, in.EndDate)
}

// RunReport is the structured outcome of one invocation. Partial means "invoke again
// with the same window".
type RunReport struct {
	Status              RunStatus
	Season              int
	Range               string
	RowsWritten         int
	PagesWrittenThisRun int
	NextPage            int
	CheckpointKey       string
	// Error is set only on failed reports.
	Error string
}

var reportJSON = jsoniter.ConfigCompatibleWithStandardLibrary

func (r RunReport) MarshalJSON() ([]byte, error) {
	switch r.Status {
	case RunStatusDoneAlready:
		return reportJSON.Marshal(struct {
			Status        RunStatus `json:"status"`
			CheckpointKey string    `json:"checkpoint_key"`
		}{r.Status, r.CheckpointKey})
	case RunStatusDone:
		return reportJSON.Marshal(struct {
			Status              RunStatus `json:"status"`
			Season              int       `json:"season"`
			Range               string    `json:"range"`
			RowsWritten         int       `json:"rows_written"`
			PagesWrittenThisRun int       `json:"pages_written_this_run"`
		}{r.Status, r.Season, r.Range, r.RowsWritten, r.PagesWrittenThisRun})
	case RunStatusFailed:
		return reportJSON.Marshal(struct {
			Status              RunStatus `json:"status"`
			Season              int       `json:"season"`
			Range               string    `json:"range"`
			RowsWritten         int       `json:"rows_written"`
			PagesWrittenThisRun int       `json:"pages_written_this_run"`
			CheckpointKey       string    `json:"checkpoint_key"`
			Error               string    `json:"error"`
		}{r.Status, r.Season, r.Range, r.RowsWritten, r.PagesWrittenThisRun, r.CheckpointKey, r.Error})
	default:
		return reportJSON.Marshal(struct {
			Status              RunStatus `json:"status"`
			Season              int       `json:"season"`
			Range               string    `json:"range"`
			RowsWritten         int       `json:"rows_written"`
			PagesWrittenThisRun int       `json:"pages_written_this_run"`
			NextPage            int       `json:"next_page"`
			CheckpointKey       string    `json:"checkpoint_key"`
		}{r.Status, r.Season, r.Range, r.RowsWritten, r.PagesWrittenThisRun, r.NextPage, r.CheckpointKey})
	}
}

type IngestionConfig struct {
	PerPage        int
	MaxPagesPerRun int
	CourtesyDelay  time.Duration
	Sleep          resilience.Sleeper
	Now            func() time.Time
	NewRunID       func() string
	Logger         *logging.Logger
	Recorder       Recorder
	// Runs is optional; outcomes are recorded best-effort when set.
	Runs ingestrun.Repository
}

// IngestionService drives the fetch, normalize, persist, checkpoint loop for one window.
type IngestionService struct {
	provider    StatsProvider
	pages       PageStore
	checkpoints checkpoint.Repository
	runs        ingestrun.Repository
	validate    *validator.Validate
	logger      *logging.Logger
	recorder    Recorder

	perPage        int
	maxPagesPerRun int
	courtesyDelay  time.Duration
	sleep          resilience.Sleeper
	now            func() time.Time
	newRunID       func() string
}

func NewIngestionService(provider StatsProvider, pages PageStore, checkpoints checkpoint.Repository, cfg IngestionConfig) *IngestionService {
	svc := &IngestionService{
		provider:       provider,
		pages:          pages,
		checkpoints:    checkpoints,
		runs:           cfg.Runs,
		validate:       validator.New(),
		logger:         cfg.Logger,
		recorder:       cfg.Recorder,
		perPage:        cfg.PerPage,
		maxPagesPerRun: cfg.MaxPagesPerRun,
		courtesyDelay:  cfg.CourtesyDelay,
		sleep:          cfg.Sleep,
		now:            cfg.Now,
		newRunID:       cfg.NewRunID,
	}
	if svc.logger == nil {
		svc.logger = logging.Default()
	}
	if svc.recorder == nil {
		svc.recorder = NopRecorder()
	}
	if svc.perPage <= 0 {
		svc.perPage = defaultPerPage
	}
	if svc.maxPagesPerRun <= 0 {
		svc.maxPagesPerRun = defaultMaxPagesPerRun
	}
	if svc.courtesyDelay <= 0 {
		svc.courtesyDelay = defaultCourtesyDelay
	}
	if svc.sleep == nil {
		svc.sleep = resilience.SleepContext
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	if svc.newRunID == nil {
		svc.newRunID = func() string { return uuid.NewString() }
	}
	return svc
}

// Run executes at most maxPagesPerRun pages for the window. On a fatal error the
// returned report is marked failed and still carries the counts reached before the failure.
func (s *IngestionService) Run(ctx context.Context, input RunInput) (RunReport, error) {
	if err := s.validate.StructCtx(ctx, input); err != nil {
		return RunReport{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	w, err := input.Window()
	if err != nil {
		return RunReport{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	ctx, span := startUsecaseSpan(ctx, "usecase.IngestionService.Run",
		attribute.Int("season", w.Season),
		attribute.String("range", w.Range()),
		attribute.Bool("reset", input.Reset),
	)
	defer span.End()

	logger := s.logger.With("season", w.Season, "range", w.Range())
	startedAt := s.now()
	run := s.beginRun(ctx, w, input.Reset, startedAt)

	report, err := s.run(ctx, logger, w, input.Reset)
	elapsed := s.now().Sub(startedAt)

	if err != nil {
		report.Status = RunStatusFailed
		report.Error = err.Error()
	}
	status := string(report.Status)
	if err != nil {
		recordSpanError(span, err)
		logger.ErrorContext(ctx, "ingestion run failed",
			"pages_written_this_run", report.PagesWrittenThisRun,
			"rows_written", report.RowsWritten,
			"error", err,
		)
	} else {
		logger.InfoContext(ctx, "ingestion run finished",
			"status", status,
			"pages_written_this_run", report.PagesWrittenThisRun,
			"rows_written", report.RowsWritten,
			"elapsed", elapsed,
		)
	}
	s.recorder.RunFinished(status, elapsed)
	s.finishRun(ctx, logger, run, report, err)
	return report, err
}

func (s *IngestionService) run(ctx context.Context, logger *logging.Logger, w window.Window, reset bool) (RunReport, error) {
	key := s.checkpoints.Key(w)
	report := RunReport{Season: w.Season, Range: w.Range(), CheckpointKey: key}

	cp := checkpoint.Fresh()
	if reset {
		logger.InfoContext(ctx, "checkpoint reset requested, starting fresh", "checkpoint_key", key)
	} else if loaded, found := s.loadCheckpoint(ctx, logger, w); found {
		if loaded.Done {
			report.Status = RunStatusDoneAlready
			return report, nil
		}
		cp = loaded
	}

	for fetched := 0; fetched < s.maxPagesPerRun; fetched++ {
		if fetched > 0 && s.courtesyDelay > 0 {
			if err := s.sleep(ctx, s.courtesyDelay); err != nil {
				return report, fmt.Errorf("courtesy delay before page=%d: %w", cp.Page, err)
			}
		}

		page, err := s.provider.FetchPage(ctx, w, cp.Cursor, s.perPage)
		if err != nil {
			return report, fmt.Errorf("fetch page=%d: %w", cp.Page, err)
		}

		if len(page.Records) == 0 {
			cp = cp.Finish()
			if err := s.checkpoints.Save(ctx, w, cp); err != nil {
				return report, fmt.Errorf("save checkpoint after empty page: %w", err)
			}
			report.Status = RunStatusDone
			return report, nil
		}

		rows := playerstat.NormalizeAll(page.Records)
		pageKey, err := s.pages.WritePage(ctx, w, cp.Page, rows)
		if err != nil {
			return report, fmt.Errorf("persist page=%d: %w", cp.Page, err)
		}

		cp = cp.Advance(page.NextCursor)
		if err := s.checkpoints.Save(ctx, w, cp); err != nil {
			return report, fmt.Errorf("save checkpoint page=%d: %w", cp.Page, err)
		}

		report.PagesWrittenThisRun++
		report.RowsWritten += len(rows)
		s.recorder.PagePersisted(len(rows))
		logger.DebugContext(ctx, "page persisted", "key", pageKey, "rows", len(rows), "next_page", cp.Page)

		if cp.Done {
			report.Status = RunStatusDone
			return report, nil
		}
	}

	report.Status = RunStatusPartial
	report.NextPage = cp.Page
	return report, nil
}

// loadCheckpoint collapses Corrupt and read failures into Absent. Re-fetching pages
// is safe because page writes overwrite by deterministic key.
func (s *IngestionService) loadCheckpoint(ctx context.Context, logger *logging.Logger, w window.Window) (checkpoint.Checkpoint, bool) {
	res, err := s.checkpoints.Lookup(ctx, w)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return checkpoint.Fresh(), false
		}
		s.recorder.CheckpointDiscarded("read_error")
		logger.WarnContext(ctx, "checkpoint read failed, treating as absent", "error", err)
		return checkpoint.Fresh(), false
	}

	switch res.Status {
	case checkpoint.Found:
		return res.Checkpoint, true
	case checkpoint.Corrupt:
		s.recorder.CheckpointDiscarded("corrupt")
		logger.WarnContext(ctx, "checkpoint is corrupt, treating as absent", "error", res.Reason)
	}
	return checkpoint.Fresh(), false
}

func (s *IngestionService) beginRun(ctx context.Context, w window.Window, reset bool, startedAt time.Time) *ingestrun.Run {
	if s.runs == nil {
		return nil
	}
	run := &ingestrun.Run{
		ID:        s.newRunID(),
		Season:    w.Season,
		StartDate: w.Start(),
		EndDate:   w.End(),
		Reset:     reset,
		Status:    ingestrun.StatusRunning,
		StartedAt: startedAt.UTC(),
	}
	if err := s.runs.Upsert(ctx, *run); err != nil {
		s.logger.WarnContext(ctx, "record run start failed", "run_id", run.ID, "error", err)
	}
	return run
}

func (s *IngestionService) finishRun(ctx context.Context, logger *logging.Logger, run *ingestrun.Run, report RunReport, runErr error) {
	if run == nil {
		return
	}
	finishedAt := s.now().UTC()
	run.FinishedAt = &finishedAt
	run.PagesWritten = report.PagesWrittenThisRun
	run.RowsWritten = report.RowsWritten

	switch {
	case runErr != nil:
		run.Status = ingestrun.StatusFailed
		msg := runErr.Error()
		run.ErrorMessage = &msg
	case report.Status == RunStatusPartial:
		run.Status = ingestrun.StatusPartial
		next := report.NextPage
		run.NextPage = &next
	default:
		run.Status = ingestrun.Status(report.Status)
	}

	if err := s.runs.Upsert(context.WithoutCancel(ctx), *run); err != nil {
		logger.WarnContext(ctx, "record run outcome failed", "run_id", run.ID, "error", err)
	}
}
