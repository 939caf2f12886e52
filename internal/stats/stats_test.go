package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/catalog-cli/internal/model"
)

func srcResult(source model.CandidateSource, durationMs int64, names ...string) model.SingleSourceResult {
	cands := make([]model.ExtractedCandidate, 0, len(names))
	for _, n := range names {
		cands = append(cands, model.ExtractedCandidate{Name: n, Source: source})
	}
	return model.SingleSourceResult{
		Source:     source,
		Success:    true,
		Candidates: cands,
		DurationMs: durationMs,
	}
}

func mergedWith(confidences ...float64) []model.MergedCandidate {
	out := make([]model.MergedCandidate, 0, len(confidences))
	for _, c := range confidences {
		out = append(out, model.MergedCandidate{
			Candidate: model.ExtractedCandidate{Confidence: c},
		})
	}
	return out
}

func TestCalculate(t *testing.T) {
	sources := []model.SingleSourceResult{
		srcResult(model.SourceUVP, 120, "a", "b"),
		srcResult(model.SourceWebsite, 340, "a", "c", "d"),
		srcResult(model.SourceReview, 90),
	}
	merged := mergedWith(0.9, 0.6, 0.6, 0.3)

	s := Calculate(sources, merged)

	assert.Equal(t, 5, s.TotalExtracted)
	assert.Equal(t, 4, s.UniqueProducts)
	assert.Equal(t, 1, s.DuplicatesRemoved)
	assert.Equal(t, int64(550), s.ProcessingTimeMs)
	assert.InDelta(t, 0.6, s.AverageConfidence, 1e-9)
	assert.Equal(t, map[model.CandidateSource]int{
		model.SourceUVP:     2,
		model.SourceWebsite: 3,
		model.SourceReview:  0,
	}, s.PerSourceCounts)
}

func TestCalculate_Empty(t *testing.T) {
	s := Calculate(nil, nil)

	assert.Zero(t, s.TotalExtracted)
	assert.Zero(t, s.UniqueProducts)
	assert.Zero(t, s.DuplicatesRemoved)
	assert.Zero(t, s.AverageConfidence)
	assert.NotNil(t, s.PerSourceCounts)
	assert.Empty(t, s.PerSourceCounts)
}

func TestCalculate_DuplicatesNeverNegative(t *testing.T) {
	// A merged list longer than the extracted total cannot drive the
	// duplicate count below zero.
	s := Calculate(
		[]model.SingleSourceResult{srcResult(model.SourceUVP, 10, "a")},
		mergedWith(0.5, 0.5),
	)
	assert.Equal(t, 0, s.DuplicatesRemoved)
}
