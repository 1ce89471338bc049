// Package ingest orchestrates an ingest run: extract, reconcile, build
// the change-set, apply it, and verify the fixed point.
package ingest

import (
	"fmt"
	"time"
)

// GateState is the idempotency gate's position in a run.
type GateState string

const (
	// GatePending means no change-set has been applied yet.
	GatePending GateState = "pending"
	// GateApplied means the store writer committed the change-set.
	GateApplied GateState = "applied"
	// GateVerified means the post-apply pass produced an empty
	// change-set; the run is at its fixed point.
	GateVerified GateState = "verified"
	// GateRejected means the post-apply pass was non-empty. Terminal:
	// the gate never retries or corrects, because a non-empty second
	// pass means either the source changed mid-run or the
	// reconciliation is wrong, and neither is safe to resolve
	// automatically.
	GateRejected GateState = "rejected"
)

// GateTransition records one state change for the audit trail.
type GateTransition struct {
	From GateState `json:"from"`
	To   GateState `json:"to"`
	At   time.Time `json:"at"`
}

// Gate tracks a run through apply and verification.
type Gate struct {
	state   GateState
	history []GateTransition
}

// NewGate starts a gate at Pending.
func NewGate() *Gate {
	return &Gate{state: GatePending}
}

// State returns the current gate state.
func (g *Gate) State() GateState { return g.state }

// History returns the recorded transitions in order.
func (g *Gate) History() []GateTransition {
	return append([]GateTransition(nil), g.history...)
}

func (g *Gate) transition(from, to GateState) error {
	if g.state != from {
		return fmt.Errorf("invalid gate transition %s -> %s: gate is %s", from, to, g.state)
	}
	g.history = append(g.history, GateTransition{From: from, To: to, At: time.Now()})
	g.state = to
	return nil
}

// MarkApplied records the store commit.
func (g *Gate) MarkApplied() error {
	return g.transition(GatePending, GateApplied)
}

// MarkVerified records an empty post-apply pass.
func (g *Gate) MarkVerified() error {
	return g.transition(GateApplied, GateVerified)
}

// MarkRejected records a non-empty post-apply pass.
func (g *Gate) MarkRejected() error {
	return g.transition(GateApplied, GateRejected)
}

// NonEmptyFixpointError reports a post-apply reconciliation pass that
// still wanted changes. It stops the run for manual review.
type NonEmptyFixpointError struct {
	Additions   int
	Retractions int
}

func (e *NonEmptyFixpointError) Error() string {
	return fmt.Sprintf("post-apply pass is not empty (%d addition(s), %d retraction(s)); stop and review",
		e.Additions, e.Retractions)
}
