package store

import (
	"context"
	"fmt"

	mydb "github.com/acptdev/condrules/internal/db"
)

// Options selects and configures a backend for NewStore.
type Options struct {
	Type  string // memory, file, redis or postgres
	Dir   string // file
	DSN   string // postgres
	Redis RedisOptions
}

// NewStore creates a new store based on opts.Type.
// Supported types: "memory", "file", "redis", "postgres"
func NewStore(ctx context.Context, opts Options) (Store, error) {
	switch opts.Type {
	case "memory":
		return NewMemoryStore(), nil
	case "file":
		return NewFileStore(opts.Dir)
	case "redis":
		return NewRedisStore(ctx, opts.Redis)
	case "postgres":
		pool, err := mydb.NewPool(ctx, opts.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres pool: %w", err)
		}
		pg := NewPostgresStore(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return pg, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, opts.Type)
	}
}
