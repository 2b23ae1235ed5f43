package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

type memoryEntry struct {
	state   json.RawMessage
	version uint64
}

// Memory is an in-process Store backed by a mutex-guarded map. States are
// held JSON-encoded so every read and every transition attempt works on a
// fresh decoded copy — nothing a caller does to a returned value can alias
// the stored state.
type Memory[T any] struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	order   []string
}

// NewMemory returns an empty in-memory store.
func NewMemory[T any]() *Memory[T] {
	return &Memory[T]{entries: make(map[string]memoryEntry)}
}

func (m *Memory[T]) Create(_ context.Context, id string, initial T) error {
	raw, err := json.Marshal(initial)
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[id]; ok {
		return ErrAlreadyExists
	}
	m.entries[id] = memoryEntry{state: raw, version: 0}
	m.order = append(m.order, id)
	return nil
}

func (m *Memory[T]) Exists(_ context.Context, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.entries[id]
	return ok, nil
}

func (m *Memory[T]) Get(_ context.Context, id string) (T, error) {
	var state T

	m.mu.RLock()
	entry, ok := m.entries[id]
	m.mu.RUnlock()

	if !ok {
		return state, ErrNotFound
	}
	if err := json.Unmarshal(entry.state, &state); err != nil {
		return state, fmt.Errorf("decoding state: %w", err)
	}
	return state, nil
}

func (m *Memory[T]) Mutate(_ context.Context, id string, fn Transition[T]) (T, error) {
	var zero T

	for range maxMutateAttempts {
		m.mu.RLock()
		entry, ok := m.entries[id]
		m.mu.RUnlock()

		if !ok {
			return zero, ErrNotFound
		}

		var current T
		if err := json.Unmarshal(entry.state, &current); err != nil {
			return zero, fmt.Errorf("decoding state: %w", err)
		}

		// The transition runs outside the lock; a domain rejection aborts
		// with nothing written.
		next, err := fn(current)
		if err != nil {
			return zero, err
		}

		raw, err := json.Marshal(next)
		if err != nil {
			return zero, fmt.Errorf("encoding state: %w", err)
		}

		m.mu.Lock()
		latest, ok := m.entries[id]
		if ok && latest.version == entry.version {
			m.entries[id] = memoryEntry{state: raw, version: entry.version + 1}
			m.mu.Unlock()
			return next, nil
		}
		m.mu.Unlock()

		if !ok {
			return zero, ErrNotFound
		}
		// Version moved under us; reload and reapply.
	}

	return zero, ErrConflict
}

func (m *Memory[T]) List(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, len(m.order))
	copy(ids, m.order)
	return ids, nil
}
