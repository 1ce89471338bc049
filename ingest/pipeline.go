package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mconlon17/vivo-course-ingest/changeset"
	"github.com/mconlon17/vivo-course-ingest/reconcile"
	"github.com/mconlon17/vivo-course-ingest/storage"
	"github.com/mconlon17/vivo-course-ingest/warehouse"
)

// Sentinel errors for run outcomes the operator controls.
var (
	// ErrEmptyExtract is returned when the warehouse produced no
	// records and the run was not told to accept that.
	ErrEmptyExtract = errors.New("warehouse extract is empty")

	// ErrDeclined is returned when the operator declined the apply
	// checkpoint. Nothing was written.
	ErrDeclined = errors.New("apply declined by operator")
)

// ConfirmFunc is the operator checkpoint between the first pass and the
// apply. Returning false aborts the run before any write.
type ConfirmFunc func(*changeset.ChangeSet) (bool, error)

// Pipeline runs one ingest cycle. A cycle is sequential and
// single-flight: the documented process is one ingest at a time, with
// the store apply as the only step needing exclusive access.
type Pipeline struct {
	Source warehouse.Source
	Store  storage.Store
	Logger *slog.Logger

	// HarvestedBy is recorded as provenance on created individuals.
	HarvestedBy string
	// MintIRI overrides IRI minting for sites with their own
	// individual namespace.
	MintIRI func() string
	// AllowEmpty accepts an extract with zero records.
	AllowEmpty bool
	// Metrics is optional.
	Metrics *Metrics
}

// Result is the outcome of a completed or stopped run.
type Result struct {
	Report    *reconcile.Report
	ChangeSet *changeset.ChangeSet
	Gate      *Gate

	// Fixpoint is the post-apply pass change-set; empty on Verified.
	Fixpoint *changeset.ChangeSet
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// Reconcile performs the read-only first pass: extract, classify, and
// build the change-set that an apply would commit. No writes happen.
func (p *Pipeline) Reconcile(ctx context.Context) (*reconcile.Report, *changeset.ChangeSet, error) {
	records, err := warehouse.ReadAll(ctx, p.Source)
	if err != nil {
		return nil, nil, err
	}
	p.Metrics.observeExtract(len(records))
	p.logger().Info("Extract complete", "source", p.Source.Name(), "records", len(records))

	if len(records) == 0 && !p.AllowEmpty {
		return nil, nil, ErrEmptyExtract
	}

	snapshot, err := p.Store.Snapshot(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot store: %w", err)
	}

	report, err := reconcile.Classify(records, snapshot)
	if report != nil {
		p.Metrics.observeReport(report)
	}
	if err != nil {
		return report, nil, err
	}

	cs, err := changeset.Build(report, snapshot, changeset.Options{
		HarvestedBy: p.HarvestedBy,
		HarvestTime: time.Now(),
		MintIRI:     p.MintIRI,
	})
	if err != nil {
		return report, nil, fmt.Errorf("build change-set: %w", err)
	}

	p.logger().Info("Reconciliation complete",
		"known", report.Count(reconcile.KindKnown),
		"new_persons", len(report.NewPersons),
		"new_courses", len(report.NewCourses),
		"new_positions", len(report.NewPositions),
		"new_sections", len(report.NewSections),
		"additions", len(cs.Additions),
		"retractions", len(cs.Retractions))

	return report, cs, nil
}

// Run executes the full cycle: first pass, operator checkpoint, apply,
// and fixpoint verification. On any error before the apply the store is
// untouched. After a successful apply the gate ends Verified or
// Rejected; Rejected means the applied state needs human review and the
// saved change-set pair is the rollback vehicle.
func (p *Pipeline) Run(ctx context.Context, confirm ConfirmFunc) (*Result, error) {
	result := &Result{Gate: NewGate()}

	report, cs, err := p.Reconcile(ctx)
	result.Report = report
	result.ChangeSet = cs
	if err != nil {
		return result, err
	}

	if cs.Empty() {
		p.logger().Info("Store already at fixed point; nothing to apply")
		return result, nil
	}

	if confirm != nil {
		ok, err := confirm(cs)
		if err != nil {
			return result, err
		}
		if !ok {
			return result, ErrDeclined
		}
	}

	if err := p.Store.Apply(ctx, cs.Additions, cs.Retractions); err != nil {
		return result, err
	}
	if err := result.Gate.MarkApplied(); err != nil {
		return result, err
	}
	p.Metrics.observeApply(len(cs.Additions), len(cs.Retractions))
	p.logger().Info("Change-set applied",
		"additions", len(cs.Additions), "retractions", len(cs.Retractions))

	// Fixpoint check: a fresh extract and a fresh snapshot. Re-reading
	// the source catches extractor drift, not just reconciler bugs.
	_, fixpoint, err := p.Reconcile(ctx)
	if err != nil {
		// A failed verification pass is indistinguishable from a bad
		// apply; reject rather than assume.
		if gateErr := result.Gate.MarkRejected(); gateErr != nil {
			return result, gateErr
		}
		p.Metrics.observeOutcome(false)
		return result, fmt.Errorf("verification pass: %w", err)
	}
	result.Fixpoint = fixpoint

	if !fixpoint.Empty() {
		if err := result.Gate.MarkRejected(); err != nil {
			return result, err
		}
		p.Metrics.observeOutcome(false)
		return result, &NonEmptyFixpointError{
			Additions:   len(fixpoint.Additions),
			Retractions: len(fixpoint.Retractions),
		}
	}

	if err := result.Gate.MarkVerified(); err != nil {
		return result, err
	}
	p.Metrics.observeOutcome(true)
	p.logger().Info("Run verified: post-apply pass is empty")
	return result, nil
}

// Undo applies a previously committed change-set inverted, restoring
// the pre-apply state. The change-set must be the one that was applied;
// the strict store apply will refuse anything else.
func (p *Pipeline) Undo(ctx context.Context, cs *changeset.ChangeSet) error {
	inv := cs.Invert()
	if err := p.Store.Apply(ctx, inv.Additions, inv.Retractions); err != nil {
		return err
	}
	p.logger().Info("Change-set backed out",
		"retracted", len(inv.Retractions), "restored", len(inv.Additions))
	return nil
}
