package usecase

import (
	"context"
	"time"

	"github.com/riskibarqy/draft-combine-pipeline/internal/domain/playerstat"
	"github.com/riskibarqy/draft-combine-pipeline/internal/domain/window"
)

// StatsPage is one decoded provider page. A nil NextCursor means no further pages.
type StatsPage struct {
	Records    []playerstat.RawRecord
	NextCursor *string
}

// StatsProvider fetches one logical page, retrying transient failures internally.
// Failures surface as ErrExhaustedRetries, ErrNonRetryable or ErrDependencyUnavailable.
type StatsProvider interface {
	FetchPage(ctx context.Context, w window.Window, cursor *string, perPage int) (StatsPage, error)
}

// PageRef addresses one persisted page file.
type PageRef struct {
	Season int
	Week   string
	Page   int
	Key    string
}

type PageStore interface {
	// WritePage overwrites the page at its deterministic key and returns that key.
	WritePage(ctx context.Context, w window.Window, page int, rows []playerstat.Row) (string, error)
	ReadPage(ctx context.Context, key string) ([]playerstat.Row, error)
	ListPages(ctx context.Context, season int) ([]PageRef, error)
	Seasons(ctx context.Context) ([]int, error)
}

// Recorder receives pipeline measurements. Implementations must be safe for concurrent use.
type Recorder interface {
	PagePersisted(rows int)
	RunFinished(status string, elapsed time.Duration)
	CheckpointDiscarded(reason string)
	JoinMaterialized(season int, joined, excluded int)
}

type nopRecorder struct{}

func (nopRecorder) PagePersisted(int)                 {}
func (nopRecorder) RunFinished(string, time.Duration) {}
func (nopRecorder) CheckpointDiscarded(string)        {}
func (nopRecorder) JoinMaterialized(int, int, int)    {}

func NopRecorder() Recorder { return nopRecorder{} }
