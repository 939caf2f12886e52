package runner

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/catalog-cli/internal/extractor"
	"github.com/sells-group/catalog-cli/internal/model"
	"github.com/sells-group/catalog-cli/internal/store"
)

// memStore is an in-memory store.Store for manager tests.
type memStore struct {
	mu      sync.Mutex
	results []model.RunResult
}

func (m *memStore) SaveResult(ctx context.Context, result *model.RunResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, *result)
	return nil
}

func (m *memStore) LastResult(ctx context.Context, tenantID string) (*model.RunResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.results) - 1; i >= 0; i-- {
		if m.results[i].TenantID == tenantID {
			r := m.results[i]
			return &r, nil
		}
	}
	return nil, nil
}

func (m *memStore) ListResults(ctx context.Context, filter store.Filter) ([]model.RunResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.RunResult, len(m.results))
	copy(out, m.results)
	return out, nil
}

func (m *memStore) Migrate(ctx context.Context) error { return nil }
func (m *memStore) Close() error                      { return nil }

func TestManager_RunPersistsResult(t *testing.T) {
	src := &fakeSourceStore{
		tenants: knownTenants(),
		hasUVP:  true,
		uvp:     extractor.UVPPayload{Text: "We offer duct cleaning."},
	}
	st := &memStore{}
	m := NewManager(newTestRunner(src, nil), st)

	result := m.Run(context.Background(), "t1", Options{Sources: AllSources()}, nil)
	require.Equal(t, model.RunStatusCompleted, result.Status)

	last, err := m.Last(context.Background(), "t1")
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, result.RunID, last.RunID)
}

func TestManager_RunFailedStillPersisted(t *testing.T) {
	st := &memStore{}
	m := NewManager(newTestRunner(&fakeSourceStore{tenants: knownTenants()}, nil), st)

	result := m.Run(context.Background(), "ghost", Options{Sources: AllSources()}, nil)
	assert.Equal(t, model.RunStatusFailed, result.Status)

	last, err := m.Last(context.Background(), "ghost")
	require.NoError(t, err)
	require.NotNil(t, last, "failed runs are reviewable too")
	assert.Equal(t, model.RunStatusFailed, last.Status)
}

func TestManager_StartRunAndCancel(t *testing.T) {
	src := &fakeSourceStore{
		tenants:      knownTenants(),
		blockReviews: true,
	}
	st := &memStore{}
	m := NewManager(newTestRunner(src, nil), st)

	runID := m.StartRun(context.Background(), "t1", Options{Sources: AllSources()}, nil)
	require.NotEmpty(t, runID)

	assert.True(t, m.Cancel(runID), "run is active and cancellable")

	require.Eventually(t, func() bool {
		last, err := m.Last(context.Background(), "t1")
		return err == nil && last != nil && last.RunID == runID
	}, 5*time.Second, 10*time.Millisecond)

	last, err := m.Last(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusCancelled, last.Status)
}

func TestManager_CancelUnknownRun(t *testing.T) {
	m := NewManager(newTestRunner(&fakeSourceStore{tenants: knownTenants()}, nil), &memStore{})
	assert.False(t, m.Cancel("nope"))
	assert.False(t, m.Wait("nope"))
}

func TestManager_LastWithoutStore(t *testing.T) {
	m := NewManager(newTestRunner(&fakeSourceStore{tenants: knownTenants()}, nil), nil)
	_, err := m.Last(context.Background(), "t1")
	assert.Error(t, err)
}
