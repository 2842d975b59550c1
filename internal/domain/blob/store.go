package blob

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("object not found")

// Store is the key-addressed object storage the pipeline persists into.
type Store interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	// List returns every key under prefix in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, key string) error
}
