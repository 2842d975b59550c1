package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/draft-combine-pipeline/internal/domain/ingestrun"
	qb "github.com/riskibarqy/draft-combine-pipeline/internal/platform/querybuilder"
)

const runsTable = "ingestion_runs"

type RunRepository struct {
	db *sqlx.DB
}

func NewRunRepository(db *sqlx.DB) *RunRepository {
	return &RunRepository{db: db}
}

func (r *RunRepository) Upsert(ctx context.Context, run ingestrun.Run) error {
	if strings.TrimSpace(run.ID) == "" {
		return fmt.Errorf("run id is required")
	}

	model := runModel{
		ID:           run.ID,
		Season:       run.Season,
		StartDate:    run.StartDate,
		EndDate:      run.EndDate,
		Reset:        run.Reset,
		Status:       string(run.Status),
		PagesWritten: run.PagesWritten,
		RowsWritten:  run.RowsWritten,
		NextPage:     run.NextPage,
		ErrorMessage: run.ErrorMessage,
		StartedAt:    run.StartedAt.UTC(),
		FinishedAt:   run.FinishedAt,
	}
	query, args, err := qb.Upsert(runsTable, model, "id")
	if err != nil {
		return fmt.Errorf("build upsert run query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert run id=%s: %w", run.ID, err)
	}
	return nil
}

func (r *RunRepository) ListRecent(ctx context.Context, season int, limit int) ([]ingestrun.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	builder := qb.Select(qb.Columns(runModel{})...).
		From(runsTable).
		OrderBy("started_at DESC", "id ASC").
		Limit(limit)
	if season > 0 {
		builder.Where(qb.Eq("season", season))
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list runs query: %w", err)
	}

	var rows []runModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list runs season=%d: %w", season, err)
	}

	out := make([]ingestrun.Run, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
