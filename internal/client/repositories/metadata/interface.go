// Package metadata is the client's local key/value state in SQLite. Values
// are opaque bytes; callers own their encoding.
package metadata

import (
	"context"
	"time"
)

// Entry is a stored value with the time it was last written.
type Entry struct {
	Value     []byte
	UpdatedAt time.Time
}

type Repository interface {
	// Get returns (nil, nil) when key is absent.
	Get(ctx context.Context, key string) (*Entry, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
