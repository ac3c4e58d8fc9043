package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	createTableSQL = `CREATE TABLE IF NOT EXISTS condrules_storage (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`
	getItemSQL    = `SELECT value FROM condrules_storage WHERE key = $1`
	upsertItemSQL = `INSERT INTO condrules_storage (key, value, updated_at) VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`
	deleteItemSQL = `DELETE FROM condrules_storage WHERE key = $1`
	listKeysSQL   = `SELECT key FROM condrules_storage WHERE starts_with(key, $1) ORDER BY key`
)

// PostgresStore is a PostgreSQL implementation of the Store interface,
// backed by a single key/value table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed store.
// Call EnsureSchema once before first use.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the storage table if it does not exist.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create storage table: %w", err)
	}
	return nil
}

// GetItem retrieves the value stored under key.
func (p *PostgresStore) GetItem(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := p.pool.QueryRow(ctx, getItemSQL, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SetItem upserts value under key.
func (p *PostgresStore) SetItem(ctx context.Context, key, value string) error {
	_, err := p.pool.Exec(ctx, upsertItemSQL, key, value)
	return err
}

// RemoveItem deletes key.
func (p *PostgresStore) RemoveItem(ctx context.Context, key string) error {
	_, err := p.pool.Exec(ctx, deleteItemSQL, key)
	return err
}

// Keys lists the keys starting with prefix.
func (p *PostgresStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := p.pool.Query(ctx, listKeysSQL, prefix)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// Close closes the database connection pool.
func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}
