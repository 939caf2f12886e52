package catalog

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/catalog-cli/internal/model"
)

const (
	// listPageSize bounds how many existing entries are loaded for matching.
	listPageSize = 1000

	// DefaultBatchSize is the chunk size for batch creates.
	DefaultBatchSize = 50
)

// ReconcileResult reports what reconciliation did.
type ReconcileResult struct {
	Created int            `json:"created"`
	Updated int            `json:"updated"`
	Skipped int            `json:"skipped"`
	Errors  []IndexedError `json:"errors,omitempty"`
}

// Reconciler compares merged candidates against the existing catalog and
// decides, per candidate, create vs. update vs. skip.
type Reconciler struct {
	catalog   Catalog
	batchSize int
	titler    cases.Caser
}

// NewReconciler creates a reconciler writing through the given catalog.
func NewReconciler(c Catalog) *Reconciler {
	return &Reconciler{
		catalog:   c,
		batchSize: DefaultBatchSize,
		titler:    cases.Title(language.AmericanEnglish, cases.NoLower),
	}
}

// Reconcile matches candidates to existing entries by lowercase name. A
// match is updated only when the incoming confidence strictly exceeds the
// stored one, and only the description/tags/metadata surface, never a
// human-edited status or price. Unmatched candidates are batch-created as
// drafts. Per-item write failures are collected; remaining work continues.
func (r *Reconciler) Reconcile(ctx context.Context, tenantID string, merged []model.MergedCandidate) (*ReconcileResult, error) {
	log := zap.L().With(zap.String("component", "reconciler"), zap.String("tenant", tenantID))
	result := &ReconcileResult{}

	existing, err := r.catalog.ListByTenant(ctx, tenantID, listPageSize)
	if err != nil {
		return nil, eris.Wrap(err, "reconcile: load existing catalog")
	}

	byName := make(map[string]*Product, len(existing))
	for i := range existing {
		byName[strings.ToLower(strings.TrimSpace(existing[i].Name))] = &existing[i]
	}

	var drafts []ProductDraft
	for _, mc := range merged {
		cand := mc.Candidate
		key := strings.ToLower(strings.TrimSpace(cand.Name))
		if key == "" {
			result.Skipped++
			continue
		}

		entry, found := byName[key]
		if !found {
			drafts = append(drafts, r.draft(tenantID, mc))
			continue
		}

		if cand.Confidence <= entry.Confidence() {
			log.Debug("reconcile: skipping, stored confidence not beaten",
				zap.String("name", cand.Name),
				zap.Float64("incoming", cand.Confidence),
				zap.Float64("stored", entry.Confidence()),
			)
			result.Skipped++
			continue
		}

		patch := ProductPatch{
			Tags:     cand.Tags,
			Metadata: r.metadata(mc),
		}
		if cand.Description != "" {
			desc := cand.Description
			patch.Description = &desc
		}
		if _, err := r.catalog.Update(ctx, entry.ID, patch); err != nil {
			log.Warn("reconcile: update failed", zap.String("name", cand.Name), zap.Error(err))
			result.Errors = append(result.Errors, IndexedError{Name: cand.Name, Err: err.Error()})
			continue
		}
		result.Updated++
	}

	// Batch-create new entries in fixed chunks so no single write grows
	// unbounded; a failed chunk doesn't stop the rest.
	for offset := 0; offset < len(drafts); offset += r.batchSize {
		end := offset + r.batchSize
		if end > len(drafts) {
			end = len(drafts)
		}
		chunk := drafts[offset:end]

		created, err := r.catalog.BulkCreate(ctx, chunk)
		if err != nil {
			log.Warn("reconcile: batch create failed", zap.Int("offset", offset), zap.Error(err))
			for i, d := range chunk {
				result.Errors = append(result.Errors, IndexedError{Index: offset + i, Name: d.Name, Err: err.Error()})
			}
			continue
		}
		result.Created += len(created.Created)
		for _, ie := range created.Errors {
			ie.Index += offset
			result.Errors = append(result.Errors, ie)
		}
	}

	log.Info("reconcile: complete",
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", len(result.Errors)),
	)
	return result, nil
}

// draft builds a draft entry from a merged candidate. Status is always
// draft: a human promotes entries to active.
func (r *Reconciler) draft(tenantID string, mc model.MergedCandidate) ProductDraft {
	cand := mc.Candidate
	return ProductDraft{
		TenantID:    tenantID,
		Name:        r.titler.String(cand.Name),
		Description: cand.Description,
		Price:       cand.Price,
		Currency:    cand.Currency,
		IsService:   cand.IsService,
		Status:      StatusDraft,
		Tags:        cand.Tags,
		Metadata:    r.metadata(mc),
	}
}

// metadata records confidence and provenance on the catalog entry.
func (r *Reconciler) metadata(mc model.MergedCandidate) map[string]any {
	sources := make([]string, 0, len(mc.Sources))
	for _, s := range mc.Sources {
		sources = append(sources, string(s))
	}
	return map[string]any{
		MetaConfidence: mc.Candidate.Confidence,
		"sources":      sources,
		"contributors": len(mc.Contributors),
	}
}
