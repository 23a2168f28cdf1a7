package tasks

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrTitleRequired   = errors.New("title required")
	ErrInvalidPriority = errors.New("priority must be one of low, medium, high")
	ErrNotFound        = errors.New("task not found")
	ErrPersist         = errors.New("persist tasks")
)

// StorageKey is the key under which the task snapshot is kept.
const StorageKey = "tasks"

// UpdateFunc receives the current value of a key (ok=false when it has
// never been written) and returns the value to store in its place.
type UpdateFunc func(current []byte, ok bool) ([]byte, error)

// Persister is the durable key-value boundary behind the Store.
// Get reports ok=false when the key has never been written. Update is a
// read-modify-write that must be atomic with respect to every other
// writer of the same storage, including other processes. An error from fn
// aborts the update and is returned unchanged.
type Persister interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Update(ctx context.Context, key string, fn UpdateFunc) error
}

// MemoryPersister keeps values in process memory.
type MemoryPersister struct {
	mu    sync.Mutex
	store map[string][]byte
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{
		store: make(map[string][]byte),
	}
}

func (m *MemoryPersister) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.store[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryPersister) Update(_ context.Context, key string, fn UpdateFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.store[key]
	next, err := fn(append([]byte(nil), cur...), ok)
	if err != nil {
		return err
	}
	m.store[key] = append([]byte(nil), next...)
	return nil
}
