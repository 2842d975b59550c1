package local

import (
	"bytes"
	"context"
	"math"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/riskibarqy/draft-combine-pipeline/internal/domain/joined"
	"github.com/riskibarqy/draft-combine-pipeline/internal/domain/playerstat"
	"github.com/riskibarqy/draft-combine-pipeline/internal/domain/window"
	"github.com/riskibarqy/draft-combine-pipeline/internal/infrastructure/blobstore"
	"github.com/riskibarqy/draft-combine-pipeline/internal/infrastructure/repository/objectstore"
	"github.com/riskibarqy/draft-combine-pipeline/internal/usecase"
)

const combineCSV = "Player,Year,Pos,HGT,WNGSPN,WGT,BMI,BF\n" +
	"LeBron James,2003,SF,80.0,84.25,240,26.4,\n" +
	"  lebron   james ,2004,PF,1,1,1,1,1\n" +
	"Anthony Davis,2012,PF-C,81.5,89.5,222,n/a,6.9\n"

func keyed(first, last string, min string) playerstat.Row {
	rec := playerstat.RawRecord{
		PlayerID:  playerstat.ScalarOf("237"),
		FirstName: &first,
		LastName:  &last,
		GameID:    playerstat.ScalarOf("15"),
		GameDate:  playerstat.StringScalar("2024-10-22T00:00:00.000Z"),
		TeamID:    playerstat.ScalarOf("14"),
		PTS:       playerstat.ScalarOf("31"),
		REB:       playerstat.ScalarOf("8"),
		AST:       playerstat.StringScalar("9"),
		MIN:       playerstat.StringScalar(min),
	}
	return playerstat.Normalize(rec)
}

func TestEngine_MaterializeSeason(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	pages := objectstore.NewPageRepository(store, "raw")
	w, _ := window.New(2024, "2024-10-22", "2024-10-28")

	unkeyed := playerstat.Normalize(playerstat.RawRecord{PlayerID: playerstat.ScalarOf("5")})
	if _, err := pages.WritePage(ctx, w, 0, []playerstat.Row{keyed("LeBron", "James", "35:12"), keyed("Stephen", "Curry", "30:00"), unkeyed}); err != nil {
		t.Fatalf("seed page 0: %v", err)
	}
	if _, err := pages.WritePage(ctx, w, 1, []playerstat.Row{keyed("LeBron", "James", "abc")}); err != nil {
		t.Fatalf("seed page 1: %v", err)
	}
	if err := store.Put(ctx, "reference/combine.csv", []byte(combineCSV), "text/csv"); err != nil {
		t.Fatalf("seed combine: %v", err)
	}
	if err := writeManifest(ctx, store, "curated/_table.json", TableManifest{
		Table:      "player_game_combine",
		Partitions: []Partition{{Season: 2023, Key: "curated/season=2023/part-00000.parquet", Rows: 12}},
	}); err != nil {
		t.Fatalf("seed manifest: %v", err)
	}

	now := time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)
	engine := NewEngine(store, pages, EngineConfig{Now: func() time.Time { return now }})
	plan := usecase.JoinPlan{
		Seasons:       []int{2024},
		RawPrefix:     "raw",
		CombineKey:    "reference/combine.csv",
		CuratedPrefix: "curated",
		TableName:     "player_game_combine",
	}
	result, err := engine.Materialize(ctx, plan)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if len(result.Seasons) != 1 {
		t.Fatalf("unexpected seasons: %+v", result.Seasons)
	}
	got := result.Seasons[0]
	if got.JoinedRows != 1 || got.ExcludedRows != 1 || got.UnkeyedRows != 1 {
		t.Fatalf("unexpected counts: %+v", got)
	}
	if got.Key != "curated/season=2024/part-00000.parquet" {
		t.Fatalf("unexpected partition key: %s", got.Key)
	}

	body, err := store.Get(ctx, got.Key)
	if err != nil {
		t.Fatalf("read partition: %v", err)
	}
	rows, err := parquet.Read[joined.Row](bytes.NewReader(body), int64(len(body)))
	if err != nil {
		t.Fatalf("decode partition: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("unexpected rows: got=%d want=1", len(rows))
	}
	row := rows[0]
	if row.PlayerNameKey != "james, lebron" || row.CombinePlayer != "LeBron James" || *row.CombineYear != 2003 {
		t.Fatalf("unexpected joined row: %+v", row)
	}
	if row.MIN == nil || math.Abs(*row.MIN-35.2) > 1e-9 || *row.GameDate != "2024-10-22" || row.Bf != nil {
		t.Fatalf("unexpected casts: min=%v date=%v bf=%v", row.MIN, row.GameDate, row.Bf)
	}

	manifest, ok, err := ReadManifest(ctx, store, "curated/_table.json")
	if err != nil || !ok {
		t.Fatalf("read manifest: ok=%v err=%v", ok, err)
	}
	if len(manifest.Partitions) != 2 || manifest.Partitions[0].Season != 2023 || manifest.Partitions[1].Rows != 1 {
		t.Fatalf("unexpected manifest partitions: %+v", manifest.Partitions)
	}
	if manifest.Format != "parquet" || len(manifest.Columns) != len(joined.Columns) || !manifest.UpdatedAt.Equal(now) {
		t.Fatalf("unexpected manifest: %+v", manifest)
	}
}

func TestParseCombineCSV(t *testing.T) {
	t.Parallel()

	rows, err := ParseCombineCSV([]byte("\ufeffPLAYER,pos,Wgt\nNene,C,250\n,G,x\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("unexpected rows: got=%d want=2", len(rows))
	}
	if rows[0].Player != "Nene" || *rows[0].Pos != "C" || *rows[0].Wgt != 250 || rows[0].Year != nil {
		t.Fatalf("unexpected first row: %+v", rows[0])
	}
	if rows[1].Key() != nil || rows[1].Wgt != nil {
		t.Fatalf("blank player must not key and bad numbers must be null: %+v", rows[1])
	}

	if _, err := ParseCombineCSV([]byte("name,year\nx,1\n")); err == nil {
		t.Fatalf("expected missing player column to fail")
	}
}
