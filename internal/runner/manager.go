package runner

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/catalog-cli/internal/model"
	"github.com/sells-group/catalog-cli/internal/resilience"
	"github.com/sells-group/catalog-cli/internal/store"
)

// Manager tracks in-flight runs so callers can cancel them by run id and
// read the last result per tenant. It persists terminal results through the
// run store; persistence failures never fail a run.
type Manager struct {
	runner *Runner
	store  store.Store

	mu     sync.Mutex
	active map[string]*activeRun
}

type activeRun struct {
	tenantID string
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewManager creates a run manager. st may be nil (results kept in memory
// for the life of the active map only).
func NewManager(r *Runner, st store.Store) *Manager {
	return &Manager{
		runner: r,
		store:  st,
		active: make(map[string]*activeRun),
	}
}

// Run executes a run synchronously and returns its result. The run is
// cancellable through Cancel for its duration.
func (m *Manager) Run(ctx context.Context, tenantID string, opts Options, onProgress ProgressFunc) *model.RunResult {
	runID, run := m.begin(ctx, tenantID)
	defer close(run.done)

	result := m.runner.Run(run.ctx, runID, tenantID, opts, onProgress)
	m.end(runID, result)
	return result
}

// StartRun executes a run in the background and returns its id immediately.
func (m *Manager) StartRun(ctx context.Context, tenantID string, opts Options, onProgress ProgressFunc) string {
	runID, run := m.begin(ctx, tenantID)

	go func() {
		defer close(run.done)
		result := m.runner.Run(run.ctx, runID, tenantID, opts, onProgress)
		m.end(runID, result)
	}()

	return runID
}

// Cancel requests cooperative cancellation of an active run. Returns false
// when the run id is unknown or already terminal.
func (m *Manager) Cancel(runID string) bool {
	m.mu.Lock()
	run, ok := m.active[runID]
	m.mu.Unlock()
	if !ok {
		return false
	}
	run.cancel()
	return true
}

// Wait blocks until the given run reaches a terminal state. Returns false
// for an unknown run id.
func (m *Manager) Wait(runID string) bool {
	m.mu.Lock()
	run, ok := m.active[runID]
	m.mu.Unlock()
	if !ok {
		return false
	}
	<-run.done
	return true
}

// Last returns the most recent result for a tenant from the run store.
func (m *Manager) Last(ctx context.Context, tenantID string) (*model.RunResult, error) {
	if m.store == nil {
		return nil, eris.New("manager: no run store configured")
	}
	return m.store.LastResult(ctx, tenantID)
}

// begin registers a new active run.
func (m *Manager) begin(ctx context.Context, tenantID string) (string, *activeRun) {
	runID := uuid.New().String()
	runCtx, cancel := context.WithCancel(ctx)
	run := &activeRun{
		tenantID: tenantID,
		ctx:      runCtx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	m.mu.Lock()
	m.active[runID] = run
	m.mu.Unlock()

	return runID, run
}

// end deregisters a run and persists its terminal result.
func (m *Manager) end(runID string, result *model.RunResult) {
	m.mu.Lock()
	run := m.active[runID]
	delete(m.active, runID)
	m.mu.Unlock()
	if run != nil {
		run.cancel()
	}

	if m.store == nil || result == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	err := resilience.Do(ctx, resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: 200 * time.Millisecond}, func(ctx context.Context) error {
		return m.store.SaveResult(ctx, result)
	})
	if err != nil {
		zap.L().Warn("manager: failed to persist run result",
			zap.String("run_id", runID),
			zap.Error(err),
		)
	}
}
