// Package changeset builds and manages paired add/sub statement sets.
// A change-set is the atomic unit of apply and rollback: the additions
// and retractions of one ingest run, serializable independently, with
// the retraction set the exact structural complement needed to back the
// additions out again.
package changeset

import (
	"fmt"

	"github.com/mconlon17/vivo-course-ingest/rdf"
)

// ChangeSet is one ingest run's delta against the store.
type ChangeSet struct {
	Additions   []rdf.Statement
	Retractions []rdf.Statement
}

// New builds a change-set in canonical statement order, rejecting pairs
// whose halves share a statement.
func New(additions, retractions []rdf.Statement) (*ChangeSet, error) {
	adds := rdf.NewSet(additions...)
	subs := rdf.NewSet(retractions...)

	for _, st := range subs.Statements() {
		if adds.Contains(st) {
			return nil, fmt.Errorf("statement in both halves of change-set: %s", st)
		}
	}

	return &ChangeSet{
		Additions:   adds.Statements(),
		Retractions: subs.Statements(),
	}, nil
}

// Empty reports whether the change-set carries no statements. An empty
// change-set after a post-apply pass is the fixed point the ingest
// requires before an upload is allowed.
func (c *ChangeSet) Empty() bool {
	return len(c.Additions) == 0 && len(c.Retractions) == 0
}

// Invert returns the change-set with additions and retractions swapped:
// the documented backout procedure ("add the sub file, sub the add
// file") as a single operation.
func (c *ChangeSet) Invert() *ChangeSet {
	return &ChangeSet{
		Additions:   append([]rdf.Statement(nil), c.Retractions...),
		Retractions: append([]rdf.Statement(nil), c.Additions...),
	}
}

func (c *ChangeSet) String() string {
	return fmt.Sprintf("change-set: %d addition(s), %d retraction(s)",
		len(c.Additions), len(c.Retractions))
}
