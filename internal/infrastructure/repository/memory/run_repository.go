package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/riskibarqy/draft-combine-pipeline/internal/domain/ingestrun"
)

type RunRepository struct {
	mu   sync.RWMutex
	runs map[string]ingestrun.Run
}

func NewRunRepository() *RunRepository {
	return &RunRepository{runs: make(map[string]ingestrun.Run)}
}

func (r *RunRepository) Upsert(_ context.Context, run ingestrun.Run) error {
	id := strings.TrimSpace(run.ID)
	if id == "" {
		return fmt.Errorf("run id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[id] = run
	return nil
}

// ListRecent returns runs newest first; season 0 lists every season.
func (r *RunRepository) ListRecent(_ context.Context, season int, limit int) ([]ingestrun.Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ingestrun.Run, 0, len(r.runs))
	for _, run := range r.runs {
		if season > 0 && run.Season != season {
			continue
		}
		out = append(out, run)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.After(out[j].StartedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
