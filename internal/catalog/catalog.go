// Package catalog defines the product catalog contract consumed by the
// reconciler, plus the Postgres implementation and the reconciliation
// logic that turns merged candidates into create/update decisions.
package catalog

import (
	"context"
	"time"
)

// ProductStatus is the catalog entry lifecycle state. Extraction only ever
// creates drafts; a human promotes them to active.
type ProductStatus string

const (
	StatusDraft    ProductStatus = "draft"
	StatusActive   ProductStatus = "active"
	StatusArchived ProductStatus = "archived"
)

// MetaConfidence is the metadata key carrying the extraction confidence a
// catalog entry was last written with.
const MetaConfidence = "extraction_confidence"

// Product is an existing catalog entry.
type Product struct {
	ID          string         `json:"id"`
	TenantID    string         `json:"tenant_id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Price       *float64       `json:"price,omitempty"`
	Currency    string         `json:"currency,omitempty"`
	IsService   bool           `json:"is_service"`
	Status      ProductStatus  `json:"status"`
	Tags        []string       `json:"tags,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Confidence returns the extraction confidence recorded in the entry's
// metadata, 0 when absent.
func (p *Product) Confidence() float64 {
	v, ok := p.Metadata[MetaConfidence]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}

// ProductDraft is a new catalog entry queued for creation.
type ProductDraft struct {
	TenantID    string         `json:"tenant_id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Price       *float64       `json:"price,omitempty"`
	Currency    string         `json:"currency,omitempty"`
	IsService   bool           `json:"is_service"`
	Status      ProductStatus  `json:"status"`
	Tags        []string       `json:"tags,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// ProductPatch is a partial update. Nil fields are left untouched. Status
// and price are deliberately absent: reconciliation never overwrites them.
type ProductPatch struct {
	Description *string        `json:"description,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// IndexedError attributes a bulk-create failure to its input position.
type IndexedError struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Err   string `json:"error"`
}

// BulkCreateResult reports per-item outcomes of a batch create.
type BulkCreateResult struct {
	Created []Product      `json:"created"`
	Errors  []IndexedError `json:"errors,omitempty"`
}

// Catalog is the CRUD surface of the persistent catalog store.
type Catalog interface {
	ListByTenant(ctx context.Context, tenantID string, limit int) ([]Product, error)
	Create(ctx context.Context, draft ProductDraft) (*Product, error)
	BulkCreate(ctx context.Context, drafts []ProductDraft) (*BulkCreateResult, error)
	Update(ctx context.Context, id string, patch ProductPatch) (*Product, error)
}
