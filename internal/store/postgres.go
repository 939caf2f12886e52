package store

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/catalog-cli/internal/db"
	"github.com/sells-group/catalog-cli/internal/model"
)

// PostgresStore implements Store over a pgx pool. The pool's lifecycle is
// owned by the caller; Close is a no-op.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres creates a Postgres-backed run store.
func NewPostgres(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS run_results (
	run_id     TEXT PRIMARY KEY,
	tenant_id  TEXT NOT NULL,
	status     TEXT NOT NULL,
	result     JSONB NOT NULL,
	started_at TIMESTAMPTZ NOT NULL,
	saved_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_run_results_tenant ON run_results(tenant_id, started_at DESC);
`

// Migrate creates the run_results table.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "store: postgres migrate")
}

// Close is a no-op; the pool belongs to the caller.
func (s *PostgresStore) Close() error { return nil }

// SaveResult upserts a terminal run result.
func (s *PostgresStore) SaveResult(ctx context.Context, result *model.RunResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "store: marshal result")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO run_results (run_id, tenant_id, status, result, started_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (run_id) DO UPDATE SET status = $3, result = $4, saved_at = now()`,
		result.RunID, result.TenantID, string(result.Status), resultJSON, result.StartedAt,
	)
	return eris.Wrapf(err, "store: save result %s", result.RunID)
}

// LastResult returns the most recent result for a tenant, nil when none.
func (s *PostgresStore) LastResult(ctx context.Context, tenantID string) (*model.RunResult, error) {
	var resultJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT result FROM run_results
		 WHERE tenant_id = $1 ORDER BY started_at DESC LIMIT 1`,
		tenantID,
	).Scan(&resultJSON)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) || err.Error() == "no rows in result set" {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "store: last result for %s", tenantID)
	}

	var result model.RunResult
	if err := json.Unmarshal(resultJSON, &result); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal result")
	}
	return &result, nil
}

// ListResults returns results matching the filter, newest first.
func (s *PostgresStore) ListResults(ctx context.Context, filter Filter) ([]model.RunResult, error) {
	query := `SELECT result FROM run_results WHERE 1=1`
	var args []any

	if filter.TenantID != "" {
		args = append(args, filter.TenantID)
		query += ` AND tenant_id = $` + strconv.Itoa(len(args))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY started_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "store: list results")
	}
	defer rows.Close()

	var results []model.RunResult
	for rows.Next() {
		var resultJSON []byte
		if err := rows.Scan(&resultJSON); err != nil {
			return nil, eris.Wrap(err, "store: scan result")
		}
		var result model.RunResult
		if err := json.Unmarshal(resultJSON, &result); err != nil {
			return nil, eris.Wrap(err, "store: unmarshal result")
		}
		results = append(results, result)
	}
	return results, eris.Wrap(rows.Err(), "store: list results iterate")
}
