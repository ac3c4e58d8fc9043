// Package store persists small string values under string keys, the way a
// browser's local storage does for the admin scripts. Decision caching is
// layered on top of it.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrUnsupportedType is returned by NewStore for unknown backends.
var ErrUnsupportedType = errors.New("unsupported store type")

// Store defines the interface for key/value persistence.
// Implementations must be thread-safe and support concurrent access.
type Store interface {
	// GetItem returns the value stored under key. A missing key reports
	// ok=false with a nil error.
	GetItem(ctx context.Context, key string) (value string, ok bool, err error)

	// SetItem stores value under key, overwriting any previous value.
	SetItem(ctx context.Context, key, value string) error

	// RemoveItem deletes key.
	// Returns no error if the key doesn't exist (idempotent).
	RemoveItem(ctx context.Context, key string) error

	// Keys lists the stored keys starting with prefix, sorted.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Close releases any resources held by the store.
	// After Close is called, the store should not be used.
	Close() error
}

// Item is one stored entry, used by the file backend's on-disk envelope.
type Item struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}
