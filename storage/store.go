// Package storage provides access to the semantic store. The store is
// an opaque statement set; reads take an immutable snapshot, and the
// only mutating operation is an all-or-nothing change-set apply.
package storage

import (
	"context"
	"fmt"

	"github.com/mconlon17/vivo-course-ingest/rdf"
)

// WriteError reports a failed change-set apply. Nothing from the
// change-set is persisted when Apply returns one.
type WriteError struct {
	Op  string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("store write %s: %v", e.Op, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Store is a handle to the semantic store.
//
// Apply inserts the additions and removes the retractions as one unit.
// It is strict: an addition that is already present, or a retraction
// that is absent, fails the whole apply. Strictness is what makes a
// change-set exactly invertible; a lenient apply could retract a
// statement the change-set never added.
//
// Apply is the only operation requiring exclusive access; snapshots are
// immutable and never block a writer.
type Store interface {
	Snapshot(ctx context.Context) (*Graph, error)
	Apply(ctx context.Context, additions, retractions []rdf.Statement) error
}

// applyToSet performs the strict apply against a cloned statement set.
// Shared by the store implementations so both enforce identical
// semantics.
func applyToSet(set *rdf.Set, additions, retractions []rdf.Statement) (*rdf.Set, error) {
	next := set.Clone()
	for _, st := range additions {
		if next.Contains(st) {
			return nil, fmt.Errorf("addition already present: %s", st)
		}
		next.Add(st)
	}
	for _, st := range retractions {
		if !next.Remove(st) {
			return nil, fmt.Errorf("retraction not present: %s", st)
		}
	}
	return next, nil
}
