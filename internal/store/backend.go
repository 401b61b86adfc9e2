package store

import (
	"context"
	"errors"
)

// ErrReadOnly is returned by writes attempted inside a View transaction.
var ErrReadOnly = errors.New("write in read-only transaction")

// Tx is a key/value view of the store inside one transaction.
type Tx interface {
	// Get returns the raw JSON stored under key; ok is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Backend runs functions inside transactions. Writes made by an Update function are
// applied together when it returns nil and discarded when it returns an error.
type Backend interface {
	View(ctx context.Context, fn func(tx Tx) error) error
	Update(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}

// readOnly wraps a Tx and rejects writes.
type readOnly struct {
	Tx
}

func (r readOnly) Put(context.Context, string, []byte) error { return ErrReadOnly }
func (r readOnly) Delete(context.Context, string) error { return ErrReadOnly }
