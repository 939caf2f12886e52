package extractor

import "context"

// Tenant is the business whose catalog is being extracted.
type Tenant struct {
	ID         string
	Name       string
	WebsiteURL string
}

// SourceStore supplies per-tenant cached source data to the adapters.
type SourceStore interface {
	// Tenant looks up a tenant by id; ok=false when unknown.
	Tenant(ctx context.Context, tenantID string) (Tenant, bool, error)

	// UVP returns the tenant's stated value proposition, or a zero
	// payload with ok=false when none is on file.
	UVP(ctx context.Context, tenantID string) (UVPPayload, bool, error)

	// Pages returns the tenant's scraped website pages. Empty when
	// nothing has been scraped.
	Pages(ctx context.Context, tenantID string) ([]PagePayload, error)

	// Reviews returns the tenant's customer reviews.
	Reviews(ctx context.Context, tenantID string) ([]ReviewPayload, error)

	// Keywords returns the tenant's search-keyword research rows.
	Keywords(ctx context.Context, tenantID string) ([]KeywordPayload, error)
}
