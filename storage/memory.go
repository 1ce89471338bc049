package storage

import (
	"context"
	"sync"

	"github.com/mconlon17/vivo-course-ingest/rdf"
)

// MemoryStore is an in-process store used by tests and dry runs. It
// enforces the same strict apply semantics as the NATS-backed store.
type MemoryStore struct {
	mu       sync.RWMutex
	set      *rdf.Set
	revision uint64
}

// NewMemoryStore creates a store seeded with the given statements.
func NewMemoryStore(statements ...rdf.Statement) *MemoryStore {
	return &MemoryStore{set: rdf.NewSet(statements...)}
}

func (m *MemoryStore) Snapshot(_ context.Context) (*Graph, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return NewGraph(m.set.Statements(), m.revision), nil
}

func (m *MemoryStore) Apply(_ context.Context, additions, retractions []rdf.Statement) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, err := applyToSet(m.set, additions, retractions)
	if err != nil {
		return &WriteError{Op: "apply", Err: err}
	}
	m.set = next
	m.revision++
	return nil
}

var _ Store = (*MemoryStore)(nil)
