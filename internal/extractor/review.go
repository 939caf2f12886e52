package extractor

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/catalog-cli/internal/dedup"
	"github.com/sells-group/catalog-cli/internal/model"
)

// mentionPatterns pull offering names out of review prose. The first
// capture group is the offering phrase.
var mentionPatterns = []*regexp.Regexp{
	// "their duct cleaning service was great"
	regexp.MustCompile(`(?i)\b(?:their|the|his|her|its)\s+([a-z][a-z /&-]{2,60}?\s+(?:service|repair|installation|cleaning|inspection|tune[ -]?up|replacement|maintenance))\b`),
	// "they installed a new furnace", "came out to repair our AC unit"
	regexp.MustCompile(`(?i)\b(?:installed|repaired|replaced|serviced|cleaned|inspected)\s+(?:a|an|the|our|my)\s+(?:new\s+)?([a-z][a-z /&-]{2,60}?)(?:\s+(?:for|at|in|last|yesterday|today)|[,.!]|$)`),
	// "great job on the water heater installation"
	regexp.MustCompile(`(?i)\bjob (?:on|with) (?:the|our|my)\s+([a-z][a-z /&-]{2,60}?)(?:[,.!]|$)`),
}

// Review extracts candidates from customer review text. Confidence grows
// with the number of distinct reviews mentioning the same offering.
type Review struct {
	store SourceStore
	cfg   Config
}

// NewReview creates the review adapter.
func NewReview(store SourceStore, cfg Config) *Review {
	return &Review{store: store, cfg: cfg}
}

func (r *Review) Source() model.CandidateSource { return model.SourceReview }

const (
	reviewBaseConfidence    = 0.45
	reviewMentionBoost      = 0.08
	reviewMaxConfidence     = 0.9
	reviewHighRatingBoost   = 0.05
	reviewHighRatingMinimum = 4.0
)

// Extract scans reviews for offering mentions and aggregates them by
// normalized name, one candidate per distinct offering.
func (r *Review) Extract(ctx context.Context, tenantID string) (*model.SingleSourceResult, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return failure(model.SourceReview, start, err), err
	}

	reviews, err := r.store.Reviews(ctx, tenantID)
	if err != nil {
		return failure(model.SourceReview, start, err), nil
	}
	if len(reviews) == 0 {
		err := eris.New("review: no reviews on file for tenant")
		return failure(model.SourceReview, start, err), nil
	}

	type mention struct {
		name      string
		snippet   string
		count     int
		ratingSum float64
	}
	mentions := make(map[string]*mention)
	order := []string{}

	for _, rev := range reviews {
		if err := ctx.Err(); err != nil {
			return failure(model.SourceReview, start, err), err
		}
		seenInReview := make(map[string]struct{})
		for _, pat := range mentionPatterns {
			for _, m := range pat.FindAllStringSubmatch(rev.Text, -1) {
				name := strings.Trim(m[1], " -/&")
				key := dedup.NormalizeName(name)
				if key == "" {
					continue
				}
				if _, dup := seenInReview[key]; dup {
					continue
				}
				seenInReview[key] = struct{}{}

				entry, ok := mentions[key]
				if !ok {
					entry = &mention{name: name, snippet: snippet(rev.Text)}
					mentions[key] = entry
					order = append(order, key)
				}
				entry.count++
				entry.ratingSum += rev.Rating
			}
		}
	}

	cands := make([]model.ExtractedCandidate, 0, len(order))
	for _, key := range order {
		m := mentions[key]
		conf := reviewBaseConfidence + reviewMentionBoost*float64(m.count)
		if m.count > 0 && m.ratingSum/float64(m.count) >= reviewHighRatingMinimum {
			conf += reviewHighRatingBoost
		}
		if conf > reviewMaxConfidence {
			conf = reviewMaxConfidence
		}
		cands = append(cands, model.ExtractedCandidate{
			Name:        m.name,
			Description: m.snippet,
			IsService:   serviceWords.MatchString(m.name),
			Confidence:  conf,
			Tags:        []string{"customer-mentioned"},
			Raw:         map[string]any{"mentions": m.count},
		})
	}

	zap.L().Debug("review: extraction complete",
		zap.String("tenant", tenantID),
		zap.Int("reviews", len(reviews)),
		zap.Int("candidates", len(cands)),
	)

	return finalize(model.SourceReview, cands, start, r.cfg.maxCandidates(), map[string]any{
		"reviews": len(reviews),
	}), nil
}

// snippet returns the first ~140 chars of a review for use as a description.
func snippet(text string) string {
	text = strings.TrimSpace(text)
	if len(text) <= 140 {
		return text
	}
	return text[:140]
}
