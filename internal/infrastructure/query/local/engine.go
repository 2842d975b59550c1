package local

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/riskibarqy/draft-combine-pipeline/internal/domain/blob"
	"github.com/riskibarqy/draft-combine-pipeline/internal/domain/combine"
	"github.com/riskibarqy/draft-combine-pipeline/internal/domain/joined"
	"github.com/riskibarqy/draft-combine-pipeline/internal/platform/logging"
	"github.com/riskibarqy/draft-combine-pipeline/internal/usecase"
)

const parquetMediaType = "application/vnd.apache.parquet"

type EngineConfig struct {
	// Combine overrides the CSV export named by the plan.
	Combine combine.Source
	Now     func() time.Time
	Logger  *logging.Logger
}

// Engine performs the join in process and writes Snappy Parquet partitions back to the store.
type Engine struct {
	store   blob.Store
	pages   usecase.PageStore
	combine combine.Source
	now     func() time.Time
	logger  *logging.Logger
}

func NewEngine(store blob.Store, pages usecase.PageStore, cfg EngineConfig) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		store:   store,
		pages:   pages,
		combine: cfg.Combine,
		now:     now,
		logger:  logger,
	}
}

func (e *Engine) Materialize(ctx context.Context, plan usecase.JoinPlan) (usecase.JoinResult, error) {
	if err := plan.Validate(); err != nil {
		return usecase.JoinResult{}, err
	}

	source := e.combine
	if source == nil {
		source = NewCSVSource(e.store, plan.CombineKey)
	}
	combineRows, err := source.Load(ctx)
	if err != nil {
		return usecase.JoinResult{}, fmt.Errorf("load combine rows: %w", err)
	}
	index := indexCombine(combineRows)

	result := usecase.JoinResult{Table: plan.TableName, Seasons: make([]usecase.SeasonResult, 0, len(plan.Seasons))}
	for _, season := range plan.Seasons {
		seasonResult, err := e.materializeSeason(ctx, plan, season, index)
		if err != nil {
			return usecase.JoinResult{}, fmt.Errorf("season=%d: %w", season, err)
		}
		result.Seasons = append(result.Seasons, seasonResult)
	}

	if err := UpdateManifest(ctx, e.store, plan, result.Seasons, e.now()); err != nil {
		return usecase.JoinResult{}, err
	}
	return result, nil
}

// indexCombine keys combine rows by their join key; the first row of a duplicated key wins.
func indexCombine(rows []combine.Row) map[string]combine.Row {
	index := make(map[string]combine.Row, len(rows))
	for _, row := range rows {
		key := row.Key()
		if key == nil {
			continue
		}
		if _, dup := index[*key]; dup {
			continue
		}
		index[*key] = row
	}
	return index
}

func (e *Engine) materializeSeason(ctx context.Context, plan usecase.JoinPlan, season int, index map[string]combine.Row) (usecase.SeasonResult, error) {
	refs, err := e.pages.ListPages(ctx, season)
	if err != nil {
		return usecase.SeasonResult{}, err
	}

	out := usecase.SeasonResult{Season: season, Key: plan.PartitionKey(season)}
	rows := make([]joined.Row, 0)
	for _, ref := range refs {
		stats, err := e.pages.ReadPage(ctx, ref.Key)
		if err != nil {
			return usecase.SeasonResult{}, err
		}
		for _, stat := range stats {
			if !stat.Joinable() {
				out.UnkeyedRows++
				continue
			}
			match, ok := index[*stat.PlayerNameKey]
			if !ok {
				continue
			}
			row, err := joined.Build(season, stat, match)
			if err != nil {
				out.ExcludedRows++
				e.logger.DebugContext(ctx, "joined row excluded", "season", season, "page_key", ref.Key, "error", err)
				continue
			}
			rows = append(rows, row)
		}
	}
	out.JoinedRows = len(rows)

	body, err := encodeParquet(rows)
	if err != nil {
		return usecase.SeasonResult{}, err
	}
	if err := e.store.Put(ctx, out.Key, body, parquetMediaType); err != nil {
		return usecase.SeasonResult{}, fmt.Errorf("write partition key=%s: %w", out.Key, err)
	}
	return out, nil
}

// encodeParquet always produces a file so an emptied season replaces its stale partition.
func encodeParquet(rows []joined.Row) ([]byte, error) {
	var buf bytes.Buffer
	w := parquet.NewGenericWriter[joined.Row](&buf, parquet.Compression(&parquet.Snappy))
	if len(rows) > 0 {
		if _, err := w.Write(rows); err != nil {
			_ = w.Close()
			return nil, fmt.Errorf("write parquet rows: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}
