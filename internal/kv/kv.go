// Package kv provides the string key-value stores that planner persists its
// state into.
package kv

import (
	"context"
	"errors"
	"sync"
)

// ErrEmptyKey is returned when a store is asked for the empty key.
var ErrEmptyKey = errors.New("kv: empty key")

// Store is an opaque get/set string store.
//
// Load reports ok=false when the key has never been written. A non-nil error
// means the store could not be read at all.
type Store interface {
	Load(ctx context.Context, key string) (value string, ok bool, err error)
	Save(ctx context.Context, key, value string) error
}

// MemoryStore keeps values in a map. The zero value is ready to use.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryStore returns a MemoryStore seeded with the given values.
func NewMemoryStore(seed map[string]string) *MemoryStore {
	m := &MemoryStore{values: make(map[string]string, len(seed))}
	for k, v := range seed {
		m.values[k] = v
	}
	return m
}

func (m *MemoryStore) Load(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrEmptyKey
	}
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStore) Save(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		m.values = make(map[string]string)
	}
	m.values[key] = value
	return nil
}
