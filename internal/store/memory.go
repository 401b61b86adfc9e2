package store

import (
	"context"
	"sync"
)

// MemoryBackend keeps every key in process memory. It is used by tests and by the
// "memory" store driver.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte)}
}

func (m *MemoryBackend) View(ctx context.Context, fn func(tx Tx) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn(readOnly{&memoryTx{base: m.data}})
}

func (m *MemoryBackend) Update(ctx context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memoryTx{base: m.data, staged: make(map[string][]byte)}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	for key, value := range tx.staged {
		if value == nil {
			delete(m.data, key)
		} else {
			m.data[key] = value
		}
	}
	return nil
}

func (m *MemoryBackend) Close() error { return nil }

// memoryTx reads through staged writes to the committed map. A nil staged value
// marks a deletion.
type memoryTx struct {
	base   map[string][]byte
	staged map[string][]byte
}

func (t *memoryTx) Get(_ context.Context, key string) ([]byte, bool, error) {
	if v, ok := t.staged[key]; ok {
		if v == nil {
			return nil, false, nil
		}
		return clone(v), true, nil
	}
	v, ok := t.base[key]
	if !ok {
		return nil, false, nil
	}
	return clone(v), true, nil
}

func (t *memoryTx) Put(_ context.Context, key string, value []byte) error {
	t.staged[key] = clone(value)
	return nil
}

func (t *memoryTx) Delete(_ context.Context, key string) error {
	t.staged[key] = nil
	return nil
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
