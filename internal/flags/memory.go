package flags

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of the Store interface.
type MemoryStore struct {
	mu    sync.RWMutex
	flags map[string]Flag
}

// NewMemoryStore creates an empty in-memory flag store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{flags: make(map[string]Flag)}
}

// Get retrieves a flag by name.
func (m *MemoryStore) Get(ctx context.Context, name string) (*Flag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	flag, ok := m.flags[name]
	if !ok {
		return nil, ErrNotFound
	}
	return &flag, nil
}

// List retrieves all flags for the given environment.
func (m *MemoryStore) List(ctx context.Context, env string) ([]Flag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Flag, 0, len(m.flags))
	for _, flag := range m.flags {
		if flag.Env == env {
			result = append(result, flag)
		}
	}
	return result, nil
}

// Upsert creates or updates a flag.
func (m *MemoryStore) Upsert(ctx context.Context, params UpsertParams) error {
	if err := ValidateRollout(params.Rollout); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.flags[params.Name] = Flag{
		Name:        params.Name,
		Description: params.Description,
		Enabled:     params.Enabled,
		Rollout:     params.Rollout,
		Audience:    params.Audience,
		Env:         params.Env,
		UpdatedAt:   time.Now().UTC(),
	}
	return nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error { return nil }
