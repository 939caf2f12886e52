package extractor

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/catalog-cli/internal/model"
)

// finalize stamps, sanitizes, and caps the candidates and wraps them in a
// successful SingleSourceResult. Candidates failing invariants (empty name,
// negative price) are dropped silently.
func finalize(source model.CandidateSource, cands []model.ExtractedCandidate, start time.Time, max int, meta map[string]any) *model.SingleSourceResult {
	kept := sanitize(source, cands)
	kept = keepTopN(kept, max)
	return &model.SingleSourceResult{
		Source:     source,
		Success:    true,
		Candidates: kept,
		DurationMs: time.Since(start).Milliseconds(),
		Metadata:   meta,
	}
}

// failure wraps an adapter error in a SingleSourceResult. A cancelled
// context produces the same shape; the runner maps it to the cancelled
// terminal status.
func failure(source model.CandidateSource, start time.Time, err error) *model.SingleSourceResult {
	return &model.SingleSourceResult{
		Source:     source,
		Success:    false,
		Error:      err.Error(),
		DurationMs: time.Since(start).Milliseconds(),
	}
}

// sanitize stamps TempID and Source on each candidate, clamps confidence,
// and drops candidates that fail validation.
func sanitize(source model.CandidateSource, cands []model.ExtractedCandidate) []model.ExtractedCandidate {
	out := make([]model.ExtractedCandidate, 0, len(cands))
	for _, c := range cands {
		c.Source = source
		c.ClampConfidence()
		if c.TempID == "" {
			c.TempID = uuid.New().String()
		}
		if err := c.Validate(); err != nil {
			zap.L().Debug("extractor: dropping invalid candidate",
				zap.String("source", string(source)),
				zap.String("name", c.Name),
				zap.Error(err),
			)
			continue
		}
		out = append(out, c)
	}
	return out
}

// keepTopN drops the lowest-confidence candidates beyond max while
// preserving the input order of the survivors.
func keepTopN(cands []model.ExtractedCandidate, max int) []model.ExtractedCandidate {
	if max <= 0 || len(cands) <= max {
		return cands
	}

	// Rank by confidence (ties keep input order), take the top max, then
	// restore input order among the survivors.
	idx := make([]int, len(cands))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return cands[idx[a]].Confidence > cands[idx[b]].Confidence
	})
	idx = idx[:max]
	sort.Ints(idx)

	out := make([]model.ExtractedCandidate, 0, max)
	for _, i := range idx {
		out = append(out, cands[i])
	}
	return out
}
