// internal/store/memory.go
//
// In-memory registry of live game sessions.
//
// Characteristics:
//   - Stores *Entry values keyed by ID in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Removing an entry closes its loop, so no timer outlives its session.
//   - Nothing is persisted; state is lost when the process restarts.

package store

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned for unknown session IDs.
var ErrNotFound = errors.New("store: session not found")

// Store defines the registry interface for live sessions.
type Store interface {
	// Save adds or replaces an entry. A replaced entry is closed.
	Save(ctx context.Context, e *Entry) error

	// Get retrieves an entry by ID.
	// Returns ErrNotFound if the session is unknown.
	Get(ctx context.Context, id string) (*Entry, error)

	// Delete closes and removes an entry.
	Delete(ctx context.Context, id string) error

	// Sweep closes and removes entries idle for longer than idle,
	// returning how many were evicted.
	Sweep(ctx context.Context, idle time.Duration) int

	// Len reports the number of live entries.
	Len() int
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu      sync.RWMutex      // guards entries
	entries map[string]*Entry // keyed by Entry.ID
	now     func() time.Time
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{entries: make(map[string]*Entry), now: time.Now}
}

// Save adds or updates the entry in the map.
func (m *memory) Save(ctx context.Context, e *Entry) error {
	m.mu.Lock()
	old := m.entries[e.ID]
	m.entries[e.ID] = e
	m.mu.Unlock()
	if old != nil && old != e {
		old.Close()
	}
	return nil
}

// Get looks up an entry by ID.
func (m *memory) Get(ctx context.Context, id string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.entries[id]; ok {
		return e, nil
	}
	return nil, ErrNotFound
}

// Delete removes the entry and stops its loop.
func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	e, ok := m.entries[id]
	delete(m.entries, id)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	e.Close()
	return nil
}

// Sweep evicts idle entries.
func (m *memory) Sweep(ctx context.Context, idle time.Duration) int {
	cutoff := m.now().Add(-idle)
	var stale []*Entry

	m.mu.Lock()
	for id, e := range m.entries {
		if e.LastSeen().Before(cutoff) {
			stale = append(stale, e)
			delete(m.entries, id)
		}
	}
	m.mu.Unlock()

	for _, e := range stale {
		e.Close()
	}
	return len(stale)
}

// Len reports how many sessions are live.
func (m *memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
