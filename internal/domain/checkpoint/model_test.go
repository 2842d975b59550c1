package checkpoint

import (
	"errors"
	"testing"
)

func TestCheckpoint_Advance(t *testing.T) {
	t.Parallel()

	next := "c-50"
	cp := Fresh().Advance(&next)
	if cp.Done || cp.Page != 1 || cp.Cursor == nil || *cp.Cursor != "c-50" {
		t.Fatalf("unexpected checkpoint: %+v", cp)
	}

	last := cp.Advance(nil)
	if !last.Done || last.Cursor != nil || last.Page != 2 {
		t.Fatalf("unexpected final checkpoint: %+v", last)
	}
}

func TestCheckpoint_FinishKeepsPage(t *testing.T) {
	t.Parallel()

	next := "c-1"
	cp := Checkpoint{Cursor: &next, Page: 4}.Finish()
	if !cp.Done || cp.Cursor != nil || cp.Page != 4 {
		t.Fatalf("unexpected checkpoint: %+v", cp)
	}
}

func TestCheckpoint_Validate(t *testing.T) {
	t.Parallel()

	cursor := "x"
	if err := (Checkpoint{Done: true, Cursor: &cursor}).Validate(); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("unexpected error: got=%v want=%v", err, ErrCorrupt)
	}
	if err := (Checkpoint{Page: -1}).Validate(); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("unexpected error: got=%v want=%v", err, ErrCorrupt)
	}
	if err := (Checkpoint{Page: 2}).Validate(); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("unexpected error: got=%v want=%v", err, ErrCorrupt)
	}
	if err := (Checkpoint{Page: 3, Cursor: &cursor}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
