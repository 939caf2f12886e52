// Package metrics bundles the Prometheus collectors for extraction runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors, registered on a dedicated registry so serve
// mode can expose exactly this set.
type Metrics struct {
	Registry           *prometheus.Registry
	RunsTotal          *prometheus.CounterVec
	CandidatesTotal    *prometheus.CounterVec
	DuplicatesTotal    prometheus.Counter
	RunDuration        prometheus.Histogram
	CatalogWritesTotal *prometheus.CounterVec
}

// New constructs and registers all collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	runs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extraction_runs_total",
			Help: "Extraction runs by terminal status.",
		},
		[]string{"status"},
	)
	candidates := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extraction_candidates_total",
			Help: "Raw candidates extracted, by source.",
		},
		[]string{"source"},
	)
	duplicates := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "extraction_duplicates_removed_total",
			Help: "Candidates folded away by deduplication.",
		},
	)
	duration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "extraction_run_duration_seconds",
			Help:    "End-to-end extraction run duration.",
			Buckets: prometheus.DefBuckets,
		},
	)
	writes := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extraction_catalog_writes_total",
			Help: "Catalog entries written by reconciliation, by operation.",
		},
		[]string{"op"},
	)

	registry.MustRegister(runs, candidates, duplicates, duration, writes)

	return &Metrics{
		Registry:           registry,
		RunsTotal:          runs,
		CandidatesTotal:    candidates,
		DuplicatesTotal:    duplicates,
		RunDuration:        duration,
		CatalogWritesTotal: writes,
	}
}

// ObserveRun records a terminal run.
func (m *Metrics) ObserveRun(status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(status).Inc()
	m.RunDuration.Observe(duration.Seconds())
}

// AddCandidates records raw candidates for a source.
func (m *Metrics) AddCandidates(source string, n int) {
	if m == nil {
		return
	}
	m.CandidatesTotal.WithLabelValues(source).Add(float64(n))
}

// AddDuplicates records removed duplicates.
func (m *Metrics) AddDuplicates(n int) {
	if m == nil {
		return
	}
	m.DuplicatesTotal.Add(float64(n))
}

// AddCatalogWrites records created/updated catalog entries.
func (m *Metrics) AddCatalogWrites(op string, n int) {
	if m == nil {
		return
	}
	m.CatalogWritesTotal.WithLabelValues(op).Add(float64(n))
}
