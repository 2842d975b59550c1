package objectstore

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/riskibarqy/draft-combine-pipeline/internal/domain/playerstat"
	"github.com/riskibarqy/draft-combine-pipeline/internal/domain/window"
	"github.com/riskibarqy/draft-combine-pipeline/internal/infrastructure/blobstore"
	blobmock "github.com/riskibarqy/draft-combine-pipeline/internal/mocks/domain/blob"
)

func strPtr(v string) *string { return &v }

func sampleRows() []playerstat.Row {
	return []playerstat.Row{
		{
			GameDate:          playerstat.StringScalar("2024-10-22T00:00:00.000Z"),
			GameID:            playerstat.ScalarOf("15"),
			PlayerID:          playerstat.ScalarOf("237"),
			PlayerFirstName:   strPtr("LeBron"),
			PlayerLastName:    strPtr("James"),
			PlayerNameDisplay: strPtr("LeBron James"),
			PlayerNameKey:     strPtr("james, lebron"),
			PTS:               playerstat.ScalarOf("31"),
			MIN:               playerstat.StringScalar("35:12"),
		},
		{PlayerID: playerstat.ScalarOf("99"), PlayerLastName: strPtr("Nene")},
	}
}

func TestPageRepository_WriteReadOverwrite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewPageRepository(blobstore.NewMemoryStore(), "raw")
	w := testWindow(t)

	key, err := repo.WritePage(ctx, w, 0, sampleRows())
	if err != nil {
		t.Fatalf("write page: %v", err)
	}
	if key != "raw/season=2024/week=2024-10-22/page=0.jsonl" {
		t.Fatalf("unexpected key: %s", key)
	}

	rows, err := repo.ReadPage(ctx, key)
	if err != nil {
		t.Fatalf("read page: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("unexpected rows: got=%d want=2", len(rows))
	}
	if *rows[0].PlayerNameKey != "james, lebron" || string(rows[0].MIN) != `"35:12"` {
		t.Fatalf("unexpected first row: %+v", rows[0])
	}
	if rows[1].PlayerNameKey != nil || !rows[1].PTS.IsNull() {
		t.Fatalf("null fields must survive: %+v", rows[1])
	}

	if _, err := repo.WritePage(ctx, w, 0, sampleRows()[:1]); err != nil {
		t.Fatalf("rewrite page: %v", err)
	}
	rows, err = repo.ReadPage(ctx, key)
	if err != nil || len(rows) != 1 {
		t.Fatalf("rewrite must replace the page: rows=%d err=%v", len(rows), err)
	}
}

func TestPageRepository_ListPagesAndSeasons(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	repo := NewPageRepository(store, "raw")

	week1 := testWindow(t)
	week2, _ := window.New(2024, "2024-10-29", "2024-11-04")
	older, _ := window.New(2023, "2023-10-24", "2023-10-30")
	for _, page := range []int{0, 2, 10, 1} {
		if _, err := repo.WritePage(ctx, week1, page, sampleRows()); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if _, err := repo.WritePage(ctx, week2, 0, sampleRows()); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := repo.WritePage(ctx, older, 0, sampleRows()); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = store.Put(ctx, "raw/season=2024/week=2024-10-22/notes.txt", []byte("x"), "text/plain")

	refs, err := repo.ListPages(ctx, 2024)
	if err != nil {
		t.Fatalf("list pages: %v", err)
	}
	got := make([]string, 0, len(refs))
	for _, ref := range refs {
		got = append(got, fmt.Sprintf("%s/%d", ref.Week, ref.Page))
	}
	want := "2024-10-22/0 2024-10-22/1 2024-10-22/2 2024-10-22/10 2024-10-29/0"
	if strings.Join(got, " ") != want {
		t.Fatalf("unexpected pages:\n got=%s\nwant=%s", strings.Join(got, " "), want)
	}

	seasons, err := repo.Seasons(ctx)
	if err != nil {
		t.Fatalf("seasons: %v", err)
	}
	if fmt.Sprint(seasons) != "[2023 2024]" {
		t.Fatalf("unexpected seasons: %v", seasons)
	}
}

func TestPageRepository_WritesJSONLines(t *testing.T) {
	t.Parallel()

	store := blobmock.NewStore(t)
	repo := NewPageRepository(store, "raw")
	store.On("Put", mock.Anything, "raw/season=2024/week=2024-10-22/page=3.jsonl", mock.MatchedBy(func(body []byte) bool {
		lines := strings.Split(strings.TrimSuffix(string(body), "\n"), "\n")
		return len(lines) == 2 && strings.Contains(lines[0], `"player_name_key":"james, lebron"`) && strings.Contains(lines[1], `"player_name_key":null`)
	}), "application/x-ndjson").Return(nil).Once()

	if _, err := repo.WritePage(context.Background(), testWindow(t), 3, sampleRows()); err != nil {
		t.Fatalf("write page: %v", err)
	}
}

func TestParsePageKey(t *testing.T) {
	t.Parallel()

	if parts, ok := parsePageKey("raw", "raw/season=2024/week=2024-10-22/page=12.jsonl"); !ok || parts.page != 12 || parts.week != "2024-10-22" {
		t.Fatalf("unexpected parse: %+v ok=%v", parts, ok)
	}
	for _, key := range []string{
		"raw/season=x/week=2024-10-22/page=1.jsonl",
		"raw/season=2024/week=oct/page=1.jsonl",
		"raw/season=2024/week=2024-10-22/page=1.json",
		"other/season=2024/week=2024-10-22/page=1.jsonl",
	} {
		if _, ok := parsePageKey("raw", key); ok {
			t.Fatalf("expected %s to be rejected", key)
		}
	}
}
