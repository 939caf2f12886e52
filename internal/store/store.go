// Package store persists terminal run results so callers can review the
// last extraction per tenant across process restarts.
package store

import (
	"context"

	"github.com/sells-group/catalog-cli/internal/model"
)

// Filter specifies criteria for listing stored run results.
type Filter struct {
	TenantID string          `json:"tenant_id,omitempty"`
	Status   model.RunStatus `json:"status,omitempty"`
	Limit    int             `json:"limit,omitempty"`
	Offset   int             `json:"offset,omitempty"`
}

// Store defines the run result persistence interface.
type Store interface {
	// SaveResult persists a terminal run result.
	SaveResult(ctx context.Context, result *model.RunResult) error

	// LastResult returns the most recent result for a tenant, nil when
	// the tenant has no runs.
	LastResult(ctx context.Context, tenantID string) (*model.RunResult, error)

	// ListResults returns results matching the filter, newest first.
	ListResults(ctx context.Context, filter Filter) ([]model.RunResult, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
