package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned when a view-state key has no stored value.
var ErrNotFound = errors.New("view state not found")

// EnsureViewStateTable creates the view-state table if it doesn't exist
func (db *DB) EnsureViewStateTable(ctx context.Context) error {
	return db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS pgrid_view_state (
			key        TEXT PRIMARY KEY,
			value      JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
}

// GetViewState retrieves a stored value by key
func (db *DB) GetViewState(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := db.QueryRow(ctx, "SELECT value FROM pgrid_view_state WHERE key = $1", key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// PutViewState stores a value (upsert)
func (db *DB) PutViewState(ctx context.Context, key string, value []byte) error {
	return db.Exec(ctx, `
		INSERT INTO pgrid_view_state (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`, key, string(value))
}

// DeleteViewState removes a key
func (db *DB) DeleteViewState(ctx context.Context, key string) error {
	return db.Exec(ctx, "DELETE FROM pgrid_view_state WHERE key = $1", key)
}

// DeleteViewStates removes several keys in one transaction, so a grid's
// slots are never left half reset
func (db *DB) DeleteViewStates(ctx context.Context, keys ...string) error {
	return db.WithTx(ctx, func(tx pgx.Tx) error {
		for _, k := range keys {
			if _, err := tx.Exec(ctx, "DELETE FROM pgrid_view_state WHERE key = $1", k); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListViewStateKeys returns every stored key with the given prefix, sorted
func (db *DB) ListViewStateKeys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := db.Query(ctx,
		"SELECT key FROM pgrid_view_state WHERE starts_with(key, $1) ORDER BY key", prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
