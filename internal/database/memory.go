package database

import (
	"context"
	"slices"
	"sync"
)

// DefaultMemoryCapacity is the number of runs kept by a MemoryStore.
const DefaultMemoryCapacity = 50

// MemoryStore keeps the most recent runs in process memory. It is used when
// no database is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	runs     map[string]*StoredRun
	order    []string // oldest first
	capacity int
}

// NewMemoryStore creates a store holding at most capacity runs
// (DefaultMemoryCapacity when capacity <= 0).
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryStore{
		runs:     make(map[string]*StoredRun),
		capacity: capacity,
	}
}

func cloneRun(run *StoredRun) *StoredRun {
	c := *run
	c.Records = slices.Clone(run.Records)
	return &c
}

// SaveRun stores a copy of run, evicting the oldest run when full.
func (m *MemoryStore) SaveRun(_ context.Context, run *StoredRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.runs[run.ID]; ok {
		m.order = slices.DeleteFunc(m.order, func(id string) bool { return id == run.ID })
	}
	m.runs[run.ID] = cloneRun(run)
	m.order = append(m.order, run.ID)

	for len(m.order) > m.capacity {
		delete(m.runs, m.order[0])
		m.order = m.order[1:]
	}
	return nil
}

// GetRun retrieves a run by ID, returns nil if not found.
func (m *MemoryStore) GetRun(_ context.Context, id string) (*StoredRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, nil
	}
	return cloneRun(run), nil
}

// ListRuns returns the newest runs first.
func (m *MemoryStore) ListRuns(_ context.Context, limit int) ([]RunSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summaries := make([]RunSummary, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		if limit > 0 && len(summaries) == limit {
			break
		}
		summaries = append(summaries, m.runs[m.order[i]].Summary())
	}
	return summaries, nil
}

// DeleteRun removes a run.
func (m *MemoryStore) DeleteRun(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[id]; !ok {
		return false, nil
	}
	delete(m.runs, id)
	m.order = slices.DeleteFunc(m.order, func(v string) bool { return v == id })
	return true, nil
}

func (m *MemoryStore) Close() error {
	return nil
}
