package runner

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/catalog-cli/internal/db"
	"github.com/sells-group/catalog-cli/internal/model"
)

// RunLog appends audit rows for extraction runs. Writes are fire-and-forget
// from the runner's perspective: a log failure must never fail the run, so
// the runner swallows errors from these methods and reports them only
// through zap.
type RunLog struct {
	pool db.Pool
}

// NewRunLog creates a run log backed by the given pool.
func NewRunLog(pool db.Pool) *RunLog {
	return &RunLog{pool: pool}
}

// Migration creates the extraction_log table.
const Migration = `
CREATE TABLE IF NOT EXISTS extraction_log (
	run_id          TEXT PRIMARY KEY,
	tenant_id       TEXT NOT NULL,
	status          TEXT NOT NULL,
	started_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at    TIMESTAMPTZ,
	total_extracted INT NOT NULL DEFAULT 0,
	unique_products INT NOT NULL DEFAULT 0,
	created         INT NOT NULL DEFAULT 0,
	updated         INT NOT NULL DEFAULT 0,
	error           TEXT
);
CREATE INDEX IF NOT EXISTS idx_extraction_log_tenant ON extraction_log(tenant_id, started_at DESC);
`

// Start records the beginning of a run.
func (l *RunLog) Start(ctx context.Context, runID, tenantID string) error {
	_, err := l.pool.Exec(ctx,
		`INSERT INTO extraction_log (run_id, tenant_id, status, started_at)
		 VALUES ($1, $2, $3, now())`,
		runID, tenantID, string(model.RunStatusRunning),
	)
	return eris.Wrapf(err, "runlog: start run %s", runID)
}

// Finish records the terminal state of a run with its summary counters.
// Upserts by run_id: a run refused before Start was called still gets its
// audit row.
func (l *RunLog) Finish(ctx context.Context, result *model.RunResult) error {
	var errMsg *string
	if result.Error != "" {
		errMsg = &result.Error
	}
	_, err := l.pool.Exec(ctx,
		`INSERT INTO extraction_log
		     (run_id, tenant_id, status, started_at, completed_at,
		      total_extracted, unique_products, created, updated, error)
		 VALUES ($1, $2, $3, $4, now(), $5, $6, $7, $8, $9)
		 ON CONFLICT (run_id) DO UPDATE
		 SET status = EXCLUDED.status, completed_at = EXCLUDED.completed_at,
		     total_extracted = EXCLUDED.total_extracted,
		     unique_products = EXCLUDED.unique_products,
		     created = EXCLUDED.created, updated = EXCLUDED.updated,
		     error = EXCLUDED.error`,
		result.RunID, result.TenantID, string(result.Status), result.StartedAt,
		result.Stats.TotalExtracted, result.Stats.UniqueProducts,
		result.Created, result.Updated, errMsg,
	)
	return eris.Wrapf(err, "runlog: finish run %s", result.RunID)
}

// logStart is the swallow-errors wrapper used by the runner.
func logStart(ctx context.Context, l *RunLog, runID, tenantID string) {
	if l == nil {
		return
	}
	if err := l.Start(ctx, runID, tenantID); err != nil {
		zap.L().Warn("runner: run log start failed", zap.String("run_id", runID), zap.Error(err))
	}
}

// logFinish is the swallow-errors wrapper used by the runner. Uses a fresh
// timeout so a cancelled run still gets its terminal log row.
func logFinish(l *RunLog, result *model.RunResult) {
	if l == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := l.Finish(ctx, result); err != nil {
		zap.L().Warn("runner: run log finish failed", zap.String("run_id", result.RunID), zap.Error(err))
	}
}
