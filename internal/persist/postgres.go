package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/imgajeed76/pgrid/internal/db"
)

// PostgresBackend stores values in the pgrid_view_state table, one row per
// key with the value as JSONB.
type PostgresBackend struct {
	db *db.DB
}

// NewPostgresBackend ensures the table exists and returns the backend.
func NewPostgresBackend(ctx context.Context, conn *db.DB) (*PostgresBackend, error) {
	if err := conn.EnsureViewStateTable(ctx); err != nil {
		return nil, fmt.Errorf("create view state table: %w", err)
	}
	return &PostgresBackend{db: conn}, nil
}

func (p *PostgresBackend) Get(ctx context.Context, key Key) ([]byte, error) {
	v, err := p.db.GetViewState(ctx, key.String())
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrNotFound
	}
	return v, err
}

func (p *PostgresBackend) Put(ctx context.Context, key Key, value []byte) error {
	return p.db.PutViewState(ctx, key.String(), value)
}

func (p *PostgresBackend) Delete(ctx context.Context, key Key) error {
	return p.db.DeleteViewState(ctx, key.String())
}

// DeleteAll removes keys in a single transaction.
func (p *PostgresBackend) DeleteAll(ctx context.Context, keys []Key) error {
	raw := make([]string, len(keys))
	for i, k := range keys {
		raw[i] = k.String()
	}
	return p.db.DeleteViewStates(ctx, raw...)
}

func (p *PostgresBackend) Keys(ctx context.Context) ([]Key, error) {
	raw, err := p.db.ListViewStateKeys(ctx, keyPrefix)
	if err != nil {
		return nil, err
	}
	keys := make([]Key, 0, len(raw))
	for _, s := range raw {
		if k, err := ParseKey(s); err == nil {
			keys = append(keys, k)
		}
	}
	return keys, nil
}
