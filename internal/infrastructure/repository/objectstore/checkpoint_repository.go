package objectstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	jsoniter "github.com/json-iterator/go"

	"github.com/riskibarqy/draft-combine-pipeline/internal/domain/blob"
	"github.com/riskibarqy/draft-combine-pipeline/internal/domain/checkpoint"
	"github.com/riskibarqy/draft-combine-pipeline/internal/domain/window"
)

var checkpointJSON = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	UseNumber:              true,
	ValidateJsonRawMessage: true,
}.Froze()

// checkpointDocument tolerates cursors written as numbers by older writers.
type checkpointDocument struct {
	Done   *bool               `json:"done"`
	Cursor jsoniter.RawMessage `json:"cursor"`
	Page   *int                `json:"page"`
}

type CheckpointRepository struct {
	store  blob.Store
	prefix string
}

func NewCheckpointRepository(store blob.Store, statePrefix string) *CheckpointRepository {
	return &CheckpointRepository{
		store:  store,
		prefix: normalizePrefix(statePrefix, DefaultStatePrefix),
	}
}

func (r *CheckpointRepository) Key(w window.Window) string {
	return StateKey(r.prefix, w)
}

func (r *CheckpointRepository) Lookup(ctx context.Context, w window.Window) (checkpoint.Lookup, error) {
	key := r.Key(w)
	body, err := r.store.Get(ctx, key)
	if errors.Is(err, blob.ErrNotFound) {
		return checkpoint.Lookup{Status: checkpoint.Absent}, nil
	}
	if err != nil {
		return checkpoint.Lookup{}, fmt.Errorf("read checkpoint key=%s: %w", key, err)
	}

	cp, err := decodeCheckpoint(body)
	if err != nil {
		return checkpoint.Lookup{Status: checkpoint.Corrupt, Reason: err}, nil
	}
	return checkpoint.Lookup{Status: checkpoint.Found, Checkpoint: cp}, nil
}

func (r *CheckpointRepository) Save(ctx context.Context, w window.Window, cp checkpoint.Checkpoint) error {
	if err := cp.Validate(); err != nil {
		return fmt.Errorf("save checkpoint %s: %w", w, err)
	}
	body, err := checkpointJSON.Marshal(cp)
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	key := r.Key(w)
	if err := r.store.Put(ctx, key, body, jsonMediaType); err != nil {
		return fmt.Errorf("write checkpoint key=%s: %w", key, err)
	}
	return nil
}

func decodeCheckpoint(body []byte) (checkpoint.Checkpoint, error) {
	var doc checkpointDocument
	if err := checkpointJSON.Unmarshal(body, &doc); err != nil {
		return checkpoint.Checkpoint{}, fmt.Errorf("%w: %v", checkpoint.ErrCorrupt, err)
	}
	if doc.Done == nil || doc.Page == nil {
		return checkpoint.Checkpoint{}, fmt.Errorf("%w: missing done or page", checkpoint.ErrCorrupt)
	}

	cursor, err := decodeCursor(doc.Cursor)
	if err != nil {
		return checkpoint.Checkpoint{}, err
	}
	cp := checkpoint.Checkpoint{Done: *doc.Done, Cursor: cursor, Page: *doc.Page}
	if err := cp.Validate(); err != nil {
		return checkpoint.Checkpoint{}, err
	}
	return cp, nil
}

func decodeCursor(raw jsoniter.RawMessage) (*string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var value any
	if err := checkpointJSON.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("%w: cursor: %v", checkpoint.ErrCorrupt, err)
	}
	switch v := value.(type) {
	case string:
		if v == "" {
			return nil, nil
		}
		return &v, nil
	case json.Number:
		s := v.String()
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return nil, fmt.Errorf("%w: cursor %q", checkpoint.ErrCorrupt, s)
		}
		return &s, nil
	default:
		return nil, fmt.Errorf("%w: cursor has type %T", checkpoint.ErrCorrupt, value)
	}
}
