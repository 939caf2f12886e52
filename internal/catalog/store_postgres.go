package catalog

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/catalog-cli/internal/db"
)

// PostgresCatalog implements Catalog over a pgx pool.
type PostgresCatalog struct {
	pool db.Pool
}

// NewPostgres creates a Postgres-backed catalog.
func NewPostgres(pool db.Pool) *PostgresCatalog {
	return &PostgresCatalog{pool: pool}
}

// Migration creates the products table.
const Migration = `
CREATE TABLE IF NOT EXISTS products (
	id          TEXT PRIMARY KEY,
	tenant_id   TEXT NOT NULL,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	price       DOUBLE PRECISION,
	currency    TEXT NOT NULL DEFAULT '',
	is_service  BOOLEAN NOT NULL DEFAULT FALSE,
	status      TEXT NOT NULL DEFAULT 'draft',
	tags        TEXT[] NOT NULL DEFAULT '{}',
	metadata    JSONB,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_products_tenant ON products(tenant_id);
CREATE INDEX IF NOT EXISTS idx_products_tenant_lower_name ON products(tenant_id, lower(name));
`

const productColumns = `id, tenant_id, name, description, price, currency, is_service, status, tags, metadata, created_at, updated_at`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	var metaJSON []byte
	if err := row.Scan(&p.ID, &p.TenantID, &p.Name, &p.Description, &p.Price, &p.Currency,
		&p.IsService, &p.Status, &p.Tags, &metaJSON, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if metaJSON != nil {
		_ = json.Unmarshal(metaJSON, &p.Metadata)
	}
	return &p, nil
}

// ListByTenant returns up to limit entries for a tenant, oldest first.
func (c *PostgresCatalog) ListByTenant(ctx context.Context, tenantID string, limit int) ([]Product, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := c.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products
		 WHERE tenant_id = $1 ORDER BY created_at, id LIMIT $2`,
		tenantID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: list by tenant")
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, eris.Wrap(err, "catalog: scan product")
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

const insertProductSQL = `INSERT INTO products
	(id, tenant_id, name, description, price, currency, is_service, status, tags, metadata, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)`

// Create inserts one catalog entry.
func (c *PostgresCatalog) Create(ctx context.Context, draft ProductDraft) (*Product, error) {
	p, args, err := draftRow(draft)
	if err != nil {
		return nil, err
	}
	if _, err := c.pool.Exec(ctx, insertProductSQL, args...); err != nil {
		return nil, eris.Wrapf(err, "catalog: create %q", draft.Name)
	}
	return p, nil
}

// BulkCreate inserts the drafts one statement at a time. A pgx batch would
// pipeline the chunk into a single implicit transaction, where one failed
// insert rolls back its already-acknowledged neighbours; per-statement
// execs keep failures isolated so Created reflects rows that landed.
func (c *PostgresCatalog) BulkCreate(ctx context.Context, drafts []ProductDraft) (*BulkCreateResult, error) {
	result := &BulkCreateResult{}
	for i, draft := range drafts {
		p, args, err := draftRow(draft)
		if err != nil {
			result.Errors = append(result.Errors, IndexedError{Index: i, Name: draft.Name, Err: err.Error()})
			continue
		}
		if _, err := c.pool.Exec(ctx, insertProductSQL, args...); err != nil {
			result.Errors = append(result.Errors, IndexedError{Index: i, Name: draft.Name, Err: err.Error()})
			continue
		}
		result.Created = append(result.Created, *p)
	}
	return result, nil
}

// Update applies a partial update. Only description, tags, and metadata can
// change through this path.
func (c *PostgresCatalog) Update(ctx context.Context, id string, patch ProductPatch) (*Product, error) {
	sets := []string{"updated_at = now()"}
	args := []any{id}

	if patch.Description != nil {
		args = append(args, *patch.Description)
		sets = append(sets, "description = $"+strconv.Itoa(len(args)))
	}
	if patch.Tags != nil {
		args = append(args, patch.Tags)
		sets = append(sets, "tags = $"+strconv.Itoa(len(args)))
	}
	if patch.Metadata != nil {
		metaJSON, err := json.Marshal(patch.Metadata)
		if err != nil {
			return nil, eris.Wrap(err, "catalog: marshal metadata")
		}
		args = append(args, metaJSON)
		sets = append(sets, "metadata = $"+strconv.Itoa(len(args)))
	}

	row := c.pool.QueryRow(ctx,
		`UPDATE products SET `+strings.Join(sets, ", ")+` WHERE id = $1 RETURNING `+productColumns,
		args...,
	)
	p, err := scanProduct(row)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: update %s", id)
	}
	return p, nil
}

// draftRow validates a draft and builds its insert arguments.
func draftRow(draft ProductDraft) (*Product, []any, error) {
	if strings.TrimSpace(draft.Name) == "" {
		return nil, nil, eris.New("catalog: draft name is empty")
	}
	if draft.Status == "" {
		draft.Status = StatusDraft
	}

	var metaJSON []byte
	if draft.Metadata != nil {
		var err error
		metaJSON, err = json.Marshal(draft.Metadata)
		if err != nil {
			return nil, nil, eris.Wrap(err, "catalog: marshal metadata")
		}
	}

	now := time.Now().UTC()
	p := &Product{
		ID:          uuid.New().String(),
		TenantID:    draft.TenantID,
		Name:        draft.Name,
		Description: draft.Description,
		Price:       draft.Price,
		Currency:    draft.Currency,
		IsService:   draft.IsService,
		Status:      draft.Status,
		Tags:        draft.Tags,
		Metadata:    draft.Metadata,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	tags := draft.Tags
	if tags == nil {
		tags = []string{}
	}
	args := []any{p.ID, p.TenantID, p.Name, p.Description, p.Price, p.Currency, p.IsService, string(p.Status), tags, metaJSON, now}
	return p, args, nil
}
