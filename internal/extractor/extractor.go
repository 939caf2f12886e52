// Package extractor defines the source extractor contract and the four
// adapters that produce raw catalog candidates from a tenant's signal
// sources: stated value proposition, scraped website content, customer
// reviews, and search-keyword research.
package extractor

import (
	"context"

	"github.com/sells-group/catalog-cli/internal/model"
)

// Extractor is the contract every source adapter implements. Extract must
// honor ctx cancellation before any expensive step and return a result with
// Success=false (never panic) when it cannot produce candidates. Every
// returned candidate is tagged with the adapter's source, has its confidence
// clamped to [0,1], and carries a non-empty name.
type Extractor interface {
	Source() model.CandidateSource
	Extract(ctx context.Context, tenantID string) (*model.SingleSourceResult, error)
}

// Registry holds the adapters in fixed priority order: uvp, website,
// review, keyword. Order is load-bearing: the runner invokes adapters and
// feeds the dedup engine in this order so runs are deterministic.
type Registry struct {
	order    []model.CandidateSource
	adapters map[model.CandidateSource]Extractor
}

// NewRegistry creates a registry populated with the four source adapters.
func NewRegistry(store SourceStore, cfg Config) *Registry {
	r := &Registry{adapters: make(map[model.CandidateSource]Extractor)}
	r.Register(NewUVP(store, cfg))
	r.Register(NewWebsite(store, cfg))
	r.Register(NewReview(store, cfg))
	r.Register(NewKeyword(store, cfg))
	return r
}

// Register adds an adapter. Registration order defines priority order.
func (r *Registry) Register(e Extractor) {
	if _, ok := r.adapters[e.Source()]; !ok {
		r.order = append(r.order, e.Source())
	}
	r.adapters[e.Source()] = e
}

// Get returns the adapter for a source, or nil.
func (r *Registry) Get(source model.CandidateSource) Extractor {
	return r.adapters[source]
}

// Enabled returns the adapters whose source is enabled, in priority order.
// Disabled sources are skipped entirely: not invoked, not counted.
func (r *Registry) Enabled(enabled map[model.CandidateSource]bool) []Extractor {
	var out []Extractor
	for _, src := range r.order {
		if enabled[src] {
			out = append(out, r.adapters[src])
		}
	}
	return out
}

// Config holds shared adapter settings.
type Config struct {
	// MaxCandidates caps the number of candidates one adapter may return.
	// The lowest-confidence excess is dropped.
	MaxCandidates int

	// LiveFetch allows the website adapter to fetch the tenant homepage
	// when no scraped pages are cached.
	LiveFetch bool

	// FetchRatePerSec bounds live fetches across a process.
	FetchRatePerSec float64

	// SeedListPath optionally points to a YAML stop/intent term list for
	// the keyword adapter.
	SeedListPath string
}

// DefaultMaxCandidates is used when Config.MaxCandidates is unset.
const DefaultMaxCandidates = 50

func (c Config) maxCandidates() int {
	if c.MaxCandidates <= 0 {
		return DefaultMaxCandidates
	}
	return c.MaxCandidates
}
