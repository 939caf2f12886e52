// Package stats derives aggregate run statistics from source results and
// the merged candidate list. Pure computation, no side effects.
package stats

import "github.com/sells-group/catalog-cli/internal/model"

// Calculate builds RunStatistics from the per-source results and the merged
// list. DuplicatesRemoved is never negative by construction and
// AverageConfidence is 0 for an empty merged list.
func Calculate(sources []model.SingleSourceResult, merged []model.MergedCandidate) model.RunStatistics {
	s := model.RunStatistics{
		PerSourceCounts: make(map[model.CandidateSource]int, len(sources)),
	}

	for _, src := range sources {
		s.TotalExtracted += len(src.Candidates)
		s.PerSourceCounts[src.Source] += len(src.Candidates)
		s.ProcessingTimeMs += src.DurationMs
	}

	s.UniqueProducts = len(merged)
	s.DuplicatesRemoved = s.TotalExtracted - s.UniqueProducts
	if s.DuplicatesRemoved < 0 {
		s.DuplicatesRemoved = 0
	}

	if len(merged) > 0 {
		var sum float64
		for _, mc := range merged {
			sum += mc.Candidate.Confidence
		}
		s.AverageConfidence = sum / float64(len(merged))
	}

	return s
}
