package ingest

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mconlon17/vivo-course-ingest/reconcile"
)

// Metrics instruments ingest runs.
type Metrics struct {
	RecordsExtracted    prometheus.Counter
	Classifications     *prometheus.CounterVec
	StatementsAdded     prometheus.Counter
	StatementsRetracted prometheus.Counter
	RunsVerified        prometheus.Counter
	RunsRejected        prometheus.Counter
}

// NewMetrics creates and registers the ingest metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RecordsExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vivo_ingest_records_extracted_total",
			Help: "Warehouse records read across all runs.",
		}),
		Classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vivo_ingest_classifications_total",
			Help: "Record classifications by kind.",
		}, []string{"kind"}),
		StatementsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vivo_ingest_statements_added_total",
			Help: "Statements applied as additions.",
		}),
		StatementsRetracted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vivo_ingest_statements_retracted_total",
			Help: "Statements applied as retractions.",
		}),
		RunsVerified: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vivo_ingest_runs_verified_total",
			Help: "Runs whose post-apply pass was empty.",
		}),
		RunsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vivo_ingest_runs_rejected_total",
			Help: "Runs rejected by a non-empty post-apply pass.",
		}),
	}
	reg.MustRegister(
		m.RecordsExtracted,
		m.Classifications,
		m.StatementsAdded,
		m.StatementsRetracted,
		m.RunsVerified,
		m.RunsRejected,
	)
	return m
}

func (m *Metrics) observeReport(report *reconcile.Report) {
	if m == nil {
		return
	}
	for _, c := range report.Classifications {
		m.Classifications.WithLabelValues(string(c.Kind)).Inc()
	}
}

func (m *Metrics) observeExtract(n int) {
	if m == nil {
		return
	}
	m.RecordsExtracted.Add(float64(n))
}

func (m *Metrics) observeApply(additions, retractions int) {
	if m == nil {
		return
	}
	m.StatementsAdded.Add(float64(additions))
	m.StatementsRetracted.Add(float64(retractions))
}

func (m *Metrics) observeOutcome(verified bool) {
	if m == nil {
		return
	}
	if verified {
		m.RunsVerified.Inc()
	} else {
		m.RunsRejected.Inc()
	}
}
