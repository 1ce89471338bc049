package ingest

import (
	"context"
	"io"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mconlon17/vivo-course-ingest/changeset"
	"github.com/mconlon17/vivo-course-ingest/rdf"
	"github.com/mconlon17/vivo-course-ingest/reconcile"
	"github.com/mconlon17/vivo-course-ingest/storage"
	"github.com/mconlon17/vivo-course-ingest/vocabulary/vivo"
	"github.com/mconlon17/vivo-course-ingest/warehouse"
)

// sliceSource serves records from memory. Records can be swapped
// between passes to simulate extractor drift.
type sliceSource struct {
	records []warehouse.Record
}

func (s *sliceSource) Name() string { return "test" }

func (s *sliceSource) Records(_ context.Context) (warehouse.Iterator, error) {
	return &sliceIterator{records: s.records}, nil
}

type sliceIterator struct {
	records []warehouse.Record
	pos     int
}

func (it *sliceIterator) Next(ctx context.Context) (warehouse.Record, error) {
	if err := ctx.Err(); err != nil {
		return warehouse.Record{}, err
	}
	if it.pos >= len(it.records) {
		return warehouse.Record{}, io.EOF
	}
	rec := it.records[it.pos]
	it.pos++
	return rec, nil
}

func (it *sliceIterator) Close() error { return nil }

func seedStore() *storage.MemoryStore {
	return storage.NewMemoryStore(
		rdf.Resource("http://x/t1", vivo.PredType, vivo.ClassAcademicTerm),
		rdf.Literal("http://x/t1", vivo.PredLabel, "Fall 2013"),

		rdf.Resource("http://x/p1", vivo.PredType, vivo.ClassPerson),
		rdf.Literal("http://x/p1", vivo.PredUFID, "12345678"),
		rdf.Literal("http://x/p1", vivo.PredLabel, "Smith John"),
	)
}

func rec(ufid, name, course, term, role string) warehouse.Record {
	return warehouse.Record{UFID: ufid, Name: name, CourseCode: course, Term: term, Role: role}
}

func approve(*changeset.ChangeSet) (bool, error) { return true, nil }

func TestRunVerifiesUnchangedExtract(t *testing.T) {
	src := &sliceSource{records: []warehouse.Record{
		rec("12345678", "Smith John", "ABE2062", "Fall 2013", "Instructor"),
		rec("87654321", "Jones Mary", "ABE2062", "Fall 2013", "Instructor"),
	}}
	p := &Pipeline{Source: src, Store: seedStore()}

	result, err := p.Run(context.Background(), approve)
	require.NoError(t, err)
	assert.Equal(t, GateVerified, result.Gate.State())
	assert.True(t, result.Fixpoint.Empty())
	assert.NotEmpty(t, result.ChangeSet.Additions)
	assert.Empty(t, result.ChangeSet.Retractions)
}

func TestRunRejectsOnExtractorDrift(t *testing.T) {
	src := &sliceSource{records: []warehouse.Record{
		rec("87654321", "Jones Mary", "ABE2062", "Fall 2013", "Instructor"),
	}}
	store := seedStore()

	// The confirm callback doubles as the drift point: the source
	// changes between the first pass and the verification pass.
	drift := func(cs *changeset.ChangeSet) (bool, error) {
		src.records = append(src.records,
			rec("11111111", "Lee Kim", "CHM1001", "Fall 2013", "Instructor"))
		return true, nil
	}

	p := &Pipeline{Source: src, Store: store}
	result, err := p.Run(context.Background(), drift)

	var fixpointErr *NonEmptyFixpointError
	require.ErrorAs(t, err, &fixpointErr)
	assert.Equal(t, GateRejected, result.Gate.State())
	assert.Greater(t, fixpointErr.Additions, 0)
}

func TestRunDeclinedLeavesStoreUntouched(t *testing.T) {
	src := &sliceSource{records: []warehouse.Record{
		rec("87654321", "Jones Mary", "ABE2062", "Fall 2013", "Instructor"),
	}}
	store := seedStore()
	before, _ := store.Snapshot(context.Background())

	p := &Pipeline{Source: src, Store: store}
	decline := func(*changeset.ChangeSet) (bool, error) { return false, nil }

	result, err := p.Run(context.Background(), decline)
	require.ErrorIs(t, err, ErrDeclined)
	assert.Equal(t, GatePending, result.Gate.State())

	after, _ := store.Snapshot(context.Background())
	assert.True(t, after.Set().Equal(before.Set()))
}

func TestRunStopsOnConflictBeforeWrite(t *testing.T) {
	src := &sliceSource{records: []warehouse.Record{
		rec("12345678", "Someone Else", "ABE2062", "Fall 2013", "Instructor"),
	}}
	store := seedStore()
	before, _ := store.Snapshot(context.Background())

	p := &Pipeline{Source: src, Store: store}
	result, err := p.Run(context.Background(), approve)

	var conflictErr *reconcile.ConflictError
	require.ErrorAs(t, err, &conflictErr)
	assert.Equal(t, GatePending, result.Gate.State())

	after, _ := store.Snapshot(context.Background())
	assert.True(t, after.Set().Equal(before.Set()))
}

func TestRunStopsOnMissingTerm(t *testing.T) {
	src := &sliceSource{records: []warehouse.Record{
		rec("87654321", "Jones Mary", "ABE2062", "Spring 2099", "Instructor"),
	}}
	p := &Pipeline{Source: src, Store: seedStore()}

	_, err := p.Run(context.Background(), approve)
	var termErr *reconcile.TermError
	require.ErrorAs(t, err, &termErr)
}

func TestRunEmptyExtract(t *testing.T) {
	t.Run("rejected by default", func(t *testing.T) {
		p := &Pipeline{Source: &sliceSource{}, Store: seedStore()}
		_, err := p.Run(context.Background(), approve)
		require.ErrorIs(t, err, ErrEmptyExtract)
	})

	t.Run("accepted with AllowEmpty", func(t *testing.T) {
		p := &Pipeline{Source: &sliceSource{}, Store: seedStore(), AllowEmpty: true}
		result, err := p.Run(context.Background(), approve)
		require.NoError(t, err)
		assert.True(t, result.ChangeSet.Empty())
		assert.Equal(t, GatePending, result.Gate.State(), "nothing to apply, gate never opens")
	})
}

func TestRunKeepsEverySection(t *testing.T) {
	// Rows differing only in section share one position; both sections
	// must land in the store and the run must still verify.
	src := &sliceSource{records: []warehouse.Record{
		{UFID: "12345678", Name: "Smith John", CourseCode: "ABE2062", SectionNumber: "0001", Term: "Fall 2013", Role: "Instructor"},
		{UFID: "12345678", Name: "Smith John", CourseCode: "ABE2062", SectionNumber: "0002", Term: "Fall 2013", Role: "Instructor"},
	}}
	store := seedStore()
	p := &Pipeline{Source: src, Store: store}

	result, err := p.Run(context.Background(), approve)
	require.NoError(t, err)
	assert.Equal(t, GateVerified, result.Gate.State())

	after, _ := store.Snapshot(context.Background())
	assert.True(t, after.HasSection("ABE2062", "Fall 2013", "0001"))
	assert.True(t, after.HasSection("ABE2062", "Fall 2013", "0002"))
}

func TestRunAlreadyAtFixedPoint(t *testing.T) {
	// Ingest once, then run again with the same extract: the second
	// run finds nothing to apply.
	src := &sliceSource{records: []warehouse.Record{
		rec("87654321", "Jones Mary", "ABE2062", "Fall 2013", "Instructor"),
	}}
	store := seedStore()
	p := &Pipeline{Source: src, Store: store}

	first, err := p.Run(context.Background(), approve)
	require.NoError(t, err)
	require.Equal(t, GateVerified, first.Gate.State())

	second, err := p.Run(context.Background(), approve)
	require.NoError(t, err)
	assert.True(t, second.ChangeSet.Empty())
	assert.Equal(t, GatePending, second.Gate.State())
}

func TestUndoRestoresPreApplyState(t *testing.T) {
	src := &sliceSource{records: []warehouse.Record{
		rec("87654321", "Jones Mary", "ABE2062", "Fall 2013", "Instructor"),
	}}
	store := seedStore()
	before, _ := store.Snapshot(context.Background())

	p := &Pipeline{Source: src, Store: store}
	result, err := p.Run(context.Background(), approve)
	require.NoError(t, err)

	require.NoError(t, p.Undo(context.Background(), result.ChangeSet))

	after, _ := store.Snapshot(context.Background())
	assert.True(t, after.Set().Equal(before.Set()))
}

func TestRunRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	src := &sliceSource{records: []warehouse.Record{
		rec("87654321", "Jones Mary", "ABE2062", "Fall 2013", "Instructor"),
	}}
	p := &Pipeline{Source: src, Store: seedStore(), Metrics: m}

	_, err := p.Run(context.Background(), approve)
	require.NoError(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.RunsVerified))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.RunsRejected))
	// Two extracts: first pass plus verification pass.
	assert.Equal(t, float64(2), testutil.ToFloat64(m.RecordsExtracted))
	assert.Greater(t, testutil.ToFloat64(m.StatementsAdded), float64(0))
}
