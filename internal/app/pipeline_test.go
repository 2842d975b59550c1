package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/draft-combine-pipeline/internal/domain/playerstat"
	"github.com/riskibarqy/draft-combine-pipeline/internal/domain/window"
	"github.com/riskibarqy/draft-combine-pipeline/internal/infrastructure/blobstore"
	"github.com/riskibarqy/draft-combine-pipeline/internal/infrastructure/query/local"
	"github.com/riskibarqy/draft-combine-pipeline/internal/infrastructure/repository/objectstore"
	"github.com/riskibarqy/draft-combine-pipeline/internal/platform/logging"
	"github.com/riskibarqy/draft-combine-pipeline/internal/usecase"
)

// dailyGames returns one LeBron game per calendar day of the requested window, on a single page.
type dailyGames struct{}

func (dailyGames) FetchPage(_ context.Context, w window.Window, _ *string, _ int) (usecase.StatsPage, error) {
	first, last := "LeBron", "James"
	var records []playerstat.RawRecord
	for day := w.StartDate; !day.After(w.EndDate); day = day.AddDate(0, 0, 1) {
		records = append(records, playerstat.RawRecord{
			PlayerID:  playerstat.ScalarOf("237"),
			FirstName: &first,
			LastName:  &last,
			GameID:    playerstat.ScalarOf(day.Format("20060102")),
			GameDate:  playerstat.StringScalar(day.Format(window.DateLayout) + "T00:00:00.000Z"),
			TeamID:    playerstat.ScalarOf("14"),
			PTS:       playerstat.ScalarOf("27"),
			REB:       playerstat.ScalarOf("7"),
			AST:       playerstat.ScalarOf("8"),
			MIN:       playerstat.StringScalar("34:10"),
		})
	}
	return usecase.StatsPage{Records: records}, nil
}

func TestScheduledTicksJoinEachGameOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	pages := objectstore.NewPageRepository(store, "raw")
	require.NoError(t, store.Put(ctx, "reference/combine.csv",
		[]byte("Player,Year,Pos,HGT,WNGSPN,WGT,BMI,BF\nLeBron James,2003,SF,80.0,84.25,240,26.4,5.1\n"), "text/csv"))

	ingestion := usecase.NewIngestionService(dailyGames{}, pages, objectstore.NewCheckpointRepository(store, "state"), usecase.IngestionConfig{
		Sleep:  func(context.Context, time.Duration) error { return nil },
		Logger: logging.NewNop(),
	})
	batch := usecase.NewBatchService(ingestion, usecase.BatchConfig{WorkerCount: 1, Logger: logging.NewNop()})
	join := usecase.NewJoinService(local.NewEngine(store, pages, local.EngineConfig{Logger: logging.NewNop()}), pages, usecase.JoinConfig{
		RawPrefix:     "raw",
		CombineKey:    "reference/combine.csv",
		CuratedPrefix: "curated",
		TableName:     "player_game_combine",
		Logger:        logging.NewNop(),
	})

	now := time.Date(2024, 11, 10, 6, 0, 0, 0, time.UTC)
	scheduler, err := NewScheduler(batch, join, SchedulerConfig{
		Spec:       "0 6 * * *",
		Season:     2024,
		WindowDays: 7,
		Now:        func() time.Time { return now },
		Logger:     logging.NewNop(),
	})
	require.NoError(t, err)

	// daily ticks from Sunday to Wednesday cover two distinct weeks
	for i := 0; i < 4; i++ {
		scheduler.Tick(ctx)
		now = now.AddDate(0, 0, 1)
	}

	refs, err := pages.ListPages(ctx, 2024)
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, "2024-10-28", refs[0].Week)
	assert.Equal(t, "2024-11-04", refs[1].Week)

	result, err := join.Materialize(ctx, usecase.JoinInput{Seasons: []int{2024}})
	require.NoError(t, err)
	require.Len(t, result.Seasons, 1)
	assert.Equal(t, 14, result.Seasons[0].JoinedRows)
	assert.Zero(t, result.Seasons[0].ExcludedRows)
}
