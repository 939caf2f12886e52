package dedup

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/catalog-cli/internal/model"
)

// DefaultThreshold is the minimum token similarity for two candidates to be
// considered the same offering.
const DefaultThreshold = 0.8

// Merger clusters raw candidates that plausibly denote the same real-world
// offering. Clustering is greedy and streaming: candidates are processed in
// input order and folded into the first best cluster that clears the
// threshold, trading global optimality for O(n*k) simplicity. Callers feed
// candidates in source priority order so output is deterministic.
type Merger struct {
	Threshold float64
}

// NewMerger creates a Merger, applying DefaultThreshold when threshold is
// not a usable similarity (<= 0 or > 1).
func NewMerger(threshold float64) *Merger {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Merger{Threshold: threshold}
}

// cluster pairs a merged candidate with the normalized name it was seeded by.
type cluster struct {
	key    string
	merged *model.MergedCandidate
}

// Merge consolidates the candidates into one MergedCandidate per cluster,
// sorted by descending confidence. Candidates whose normalized name is
// empty are dropped. The input slice is not modified.
func (m *Merger) Merge(candidates []model.ExtractedCandidate) []model.MergedCandidate {
	var clusters []*cluster
	now := time.Now().UTC()

	for _, cand := range candidates {
		key := NormalizeName(cand.Name)
		if key == "" {
			continue
		}
		cand.ClampConfidence()

		// Find the best-matching existing cluster. On a similarity tie the
		// earliest-created cluster wins (strict > keeps the first match).
		var best *cluster
		bestSim := 0.0
		for _, cl := range clusters {
			sim := TokenSimilarity(key, cl.key)
			if sim >= m.Threshold && sim > bestSim {
				best = cl
				bestSim = sim
			}
		}

		if best != nil {
			fold(best.merged, cand)
			zap.L().Debug("dedup: folded candidate",
				zap.String("name", cand.Name),
				zap.String("cluster", best.key),
				zap.Float64("similarity", bestSim),
			)
			continue
		}

		clusters = append(clusters, &cluster{
			key: key,
			merged: &model.MergedCandidate{
				Candidate:    cand,
				Sources:      []model.CandidateSource{cand.Source},
				Contributors: []model.ExtractedCandidate{cand},
				MergedAt:     now,
			},
		})
	}

	out := make([]model.MergedCandidate, 0, len(clusters))
	for _, cl := range clusters {
		out = append(out, *cl.merged)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Candidate.Confidence > out[j].Candidate.Confidence
	})
	return out
}

// fold merges an incoming candidate into an existing cluster: running mean
// confidence, longer description wins, tag union, price and images adopted
// only when the cluster has none yet.
func fold(mc *model.MergedCandidate, cand model.ExtractedCandidate) {
	rep := &mc.Candidate

	n := float64(len(mc.Contributors))
	rep.Confidence = (rep.Confidence*n + cand.Confidence) / (n + 1)

	if len(cand.Description) > len(rep.Description) {
		rep.Description = cand.Description
	}
	if len(cand.ShortDescription) > len(rep.ShortDescription) {
		rep.ShortDescription = cand.ShortDescription
	}
	rep.Tags = unionTags(rep.Tags, cand.Tags)
	if rep.Price == nil && cand.Price != nil {
		rep.Price = cand.Price
		rep.Currency = cand.Currency
	}
	if len(rep.Images) == 0 {
		rep.Images = cand.Images
	}
	if rep.SuggestedCategory == "" {
		rep.SuggestedCategory = cand.SuggestedCategory
	}

	if !mc.HasSource(cand.Source) {
		mc.Sources = append(mc.Sources, cand.Source)
	}
	mc.Contributors = append(mc.Contributors, cand)
}

// unionTags merges two tag lists preserving first-seen order, comparing
// case-insensitively.
func unionTags(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, tag := range list {
			key := NormalizeName(tag)
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, tag)
		}
	}
	return out
}
