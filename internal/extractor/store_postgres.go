package extractor

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/catalog-cli/internal/db"
)

// PostgresSourceStore reads cached source payloads from the source_cache
// table: one JSONB payload per row, tagged by source type. Malformed
// payloads are skipped (fail closed), never surfaced as errors.
type PostgresSourceStore struct {
	pool db.Pool
}

// NewPostgresSourceStore creates a source store backed by the given pool.
func NewPostgresSourceStore(pool db.Pool) *PostgresSourceStore {
	return &PostgresSourceStore{pool: pool}
}

// SourceCacheMigration creates the source_cache table.
const SourceCacheMigration = `
CREATE TABLE IF NOT EXISTS source_cache (
	id         BIGSERIAL PRIMARY KEY,
	tenant_id  TEXT NOT NULL,
	source     TEXT NOT NULL,
	payload    JSONB NOT NULL,
	fetched_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_source_cache_tenant_source ON source_cache(tenant_id, source);

CREATE TABLE IF NOT EXISTS tenants (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	website_url TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Tenant looks up a tenant by id.
func (s *PostgresSourceStore) Tenant(ctx context.Context, tenantID string) (Tenant, bool, error) {
	var t Tenant
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, website_url FROM tenants WHERE id = $1`,
		tenantID,
	).Scan(&t.ID, &t.Name, &t.WebsiteURL)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) || err.Error() == "no rows in result set" {
			return Tenant{}, false, nil
		}
		return Tenant{}, false, eris.Wrap(err, "sourcestore: query tenant")
	}
	return t, true, nil
}

func (s *PostgresSourceStore) payloads(ctx context.Context, tenantID, source string) ([][]byte, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT payload FROM source_cache
		 WHERE tenant_id = $1 AND source = $2
		 ORDER BY fetched_at DESC, id DESC`,
		tenantID, source,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sourcestore: query %s payloads", source)
	}
	defer rows.Close()

	var out [][]byte
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, eris.Wrapf(err, "sourcestore: scan %s payload", source)
		}
		out = append(out, raw)
	}
	return out, rows.Err()
}

// UVP returns the most recent value proposition on file.
func (s *PostgresSourceStore) UVP(ctx context.Context, tenantID string) (UVPPayload, bool, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM source_cache
		 WHERE tenant_id = $1 AND source = 'uvp'
		 ORDER BY fetched_at DESC, id DESC LIMIT 1`,
		tenantID,
	).Scan(&raw)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) || err.Error() == "no rows in result set" {
			return UVPPayload{}, false, nil
		}
		return UVPPayload{}, false, eris.Wrap(err, "sourcestore: query uvp")
	}

	p, ok := parseUVPPayload(raw)
	if !ok {
		zap.L().Warn("sourcestore: malformed uvp payload", zap.String("tenant", tenantID))
		return UVPPayload{}, false, nil
	}
	return p, true, nil
}

// Pages returns the tenant's scraped pages, skipping malformed rows.
func (s *PostgresSourceStore) Pages(ctx context.Context, tenantID string) ([]PagePayload, error) {
	raws, err := s.payloads(ctx, tenantID, "website")
	if err != nil {
		return nil, err
	}
	out := make([]PagePayload, 0, len(raws))
	for _, raw := range raws {
		if p, ok := parsePagePayload(raw); ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// Reviews returns the tenant's reviews, skipping malformed rows.
func (s *PostgresSourceStore) Reviews(ctx context.Context, tenantID string) ([]ReviewPayload, error) {
	raws, err := s.payloads(ctx, tenantID, "review")
	if err != nil {
		return nil, err
	}
	out := make([]ReviewPayload, 0, len(raws))
	for _, raw := range raws {
		if p, ok := parseReviewPayload(raw); ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// Keywords returns the tenant's keyword research rows, skipping malformed rows.
func (s *PostgresSourceStore) Keywords(ctx context.Context, tenantID string) ([]KeywordPayload, error) {
	raws, err := s.payloads(ctx, tenantID, "keyword")
	if err != nil {
		return nil, err
	}
	out := make([]KeywordPayload, 0, len(raws))
	for _, raw := range raws {
		if p, ok := parseKeywordPayload(raw); ok {
			out = append(out, p)
		}
	}
	return out, nil
}
