package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ObserveRun("completed", 2*time.Second)
	m.ObserveRun("completed", time.Second)
	m.ObserveRun("failed", time.Second)
	m.AddCandidates("uvp", 5)
	m.AddCandidates("website", 3)
	m.AddDuplicates(2)
	m.AddCatalogWrites("create", 4)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("failed")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.CandidatesTotal.WithLabelValues("uvp")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.CandidatesTotal.WithLabelValues("website")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.DuplicatesTotal))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.CatalogWritesTotal.WithLabelValues("create")))
}

func TestMetrics_RegistryGathers(t *testing.T) {
	m := New()
	m.ObserveRun("completed", time.Second)

	families, err := m.Registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveRun("completed", time.Second)
	m.AddCandidates("uvp", 1)
	m.AddDuplicates(1)
	m.AddCatalogWrites("update", 1)
}
