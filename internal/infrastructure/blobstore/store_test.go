package blobstore

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/riskibarqy/draft-combine-pipeline/internal/domain/blob"
)

func exerciseStore(t *testing.T, store blob.Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := store.Get(ctx, "raw/missing.jsonl"); !errors.Is(err, blob.ErrNotFound) {
		t.Fatalf("unexpected error: got=%v want=%v", err, blob.ErrNotFound)
	}

	for _, key := range []string{"raw/season=2024/page=1.jsonl", "raw/season=2024/page=0.jsonl", "state/x.json"} {
		if err := store.Put(ctx, key, []byte(key), "application/json"); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	if err := store.Put(ctx, "raw/season=2024/page=0.jsonl", []byte("v2"), "application/json"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	body, err := store.Get(ctx, "raw/season=2024/page=0.jsonl")
	if err != nil || string(body) != "v2" {
		t.Fatalf("unexpected body after overwrite: got=%q err=%v", body, err)
	}

	keys, err := store.List(ctx, "raw/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if got := fmt.Sprint(keys); got != "[raw/season=2024/page=0.jsonl raw/season=2024/page=1.jsonl]" {
		t.Fatalf("unexpected keys: %s", got)
	}

	if err := store.Delete(ctx, "state/x.json"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "state/x.json"); !errors.Is(err, blob.ErrNotFound) {
		t.Fatalf("deleted object still readable: %v", err)
	}
	if err := store.Put(ctx, "../escape", []byte("x"), ""); err == nil {
		t.Fatalf("expected escaping key to be rejected")
	}
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	exerciseStore(t, NewMemoryStore())
}

func TestFilesystemStore(t *testing.T) {
	t.Parallel()

	store, err := NewFilesystemStore(t.TempDir())
	if err != nil {
		t.Fatalf("new filesystem store: %v", err)
	}
	exerciseStore(t, store)
}
