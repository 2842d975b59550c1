package checkpoint

import (
	"context"

	"github.com/riskibarqy/draft-combine-pipeline/internal/domain/window"
)

type Repository interface {
	// Lookup returns an error only when the store itself could not be read.
	Lookup(ctx context.Context, w window.Window) (Lookup, error)
	Save(ctx context.Context, w window.Window, cp Checkpoint) error
	Key(w window.Window) string
}
