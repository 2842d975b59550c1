package checkpoint

import (
	"errors"
	"fmt"
)

var ErrCorrupt = errors.New("checkpoint document is corrupt")

// Checkpoint is the durable progress marker of one window. Done implies a nil Cursor.
type Checkpoint struct {
	Done   bool    `json:"done"`
	Cursor *string `json:"cursor"`
	Page   int     `json:"page"`
}

func Fresh() Checkpoint {
	return Checkpoint{}
}

func (c Checkpoint) Validate() error {
	if c.Page < 0 {
		return fmt.Errorf("%w: page=%d", ErrCorrupt, c.Page)
	}
	if c.Done && c.Cursor != nil {
		return fmt.Errorf("%w: done checkpoint carries cursor", ErrCorrupt)
	}
	if !c.Done && c.Cursor == nil && c.Page > 0 {
		return fmt.Errorf("%w: open checkpoint at page=%d has no cursor", ErrCorrupt, c.Page)
	}
	return nil
}

// Advance returns the state after one persisted page whose provider cursor is next.
func (c Checkpoint) Advance(next *string) Checkpoint {
	return Checkpoint{Done: next == nil, Cursor: next, Page: c.Page + 1}
}

// Finish marks the window done without persisting another page.
func (c Checkpoint) Finish() Checkpoint {
	return Checkpoint{Done: true, Cursor: nil, Page: c.Page}
}

type Status int

const (
	Absent Status = iota
	Found
	Corrupt
)

func (s Status) String() string {
	switch s {
	case Found:
		return "found"
	case Corrupt:
		return "corrupt"
	default:
		return "absent"
	}
}

// Lookup is the typed outcome of reading a checkpoint document.
type Lookup struct {
	Status     Status
	Checkpoint Checkpoint
	Reason     error
}
