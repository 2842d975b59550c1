package ingestrun

import "context"

type Repository interface {
	Upsert(ctx context.Context, run Run) error
	ListRecent(ctx context.Context, season int, limit int) ([]Run, error)
}
