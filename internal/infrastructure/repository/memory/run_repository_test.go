package memory

import (
	"context"
	"testing"
	"time"

	"github.com/riskibarqy/draft-combine-pipeline/internal/domain/ingestrun"
)

func TestRunRepository_UpsertAndListRecent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewRunRepository()
	base := time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)

	runs := []ingestrun.Run{
		{ID: "a", Season: 2024, Status: ingestrun.StatusRunning, StartedAt: base},
		{ID: "b", Season: 2024, Status: ingestrun.StatusDone, StartedAt: base.Add(time.Hour)},
		{ID: "c", Season: 2023, Status: ingestrun.StatusPartial, StartedAt: base.Add(2 * time.Hour)},
	}
	for _, run := range runs {
		if err := repo.Upsert(ctx, run); err != nil {
			t.Fatalf("upsert %s: %v", run.ID, err)
		}
	}
	if err := repo.Upsert(ctx, ingestrun.Run{ID: "a", Season: 2024, Status: ingestrun.StatusFailed, StartedAt: base}); err != nil {
		t.Fatalf("upsert final state: %v", err)
	}
	if err := repo.Upsert(ctx, ingestrun.Run{}); err == nil {
		t.Fatalf("expected missing id to fail")
	}

	got, err := repo.ListRecent(ctx, 2024, 10)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(got) != 2 || got[0].ID != "b" || got[1].ID != "a" || got[1].Status != ingestrun.StatusFailed {
		t.Fatalf("unexpected runs: %+v", got)
	}

	all, err := repo.ListRecent(ctx, 0, 1)
	if err != nil || len(all) != 1 || all[0].ID != "c" {
		t.Fatalf("unexpected limited listing: %+v err=%v", all, err)
	}
}
