package persist

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Backend.Get when a key has no value.
var ErrNotFound = errors.New("persist: key not found")

// Backend is a durable key-value store for serialized view state.
type Backend interface {
	Get(ctx context.Context, key Key) ([]byte, error)
	Put(ctx context.Context, key Key, value []byte) error
	Delete(ctx context.Context, key Key) error
	// Keys lists every stored key, in no particular order.
	Keys(ctx context.Context) ([]Key, error)
}

// BatchDeleter is implemented by backends that can delete several keys
// atomically. Adapter.Reset prefers it over one Delete per slot.
type BatchDeleter interface {
	DeleteAll(ctx context.Context, keys []Key) error
}
