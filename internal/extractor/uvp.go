package extractor

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/catalog-cli/internal/model"
)

// offeringPhrases maps lead-in phrases in value proposition text to the
// confidence assigned to offerings listed after them.
var offeringPhrases = []struct {
	re         *regexp.Regexp
	confidence float64
}{
	{regexp.MustCompile(`(?i)\bwe (?:offer|provide|deliver)\b`), 0.8},
	{regexp.MustCompile(`(?i)\bour (?:services|products|offerings) include\b`), 0.8},
	{regexp.MustCompile(`(?i)\bspecializ(?:e|ing) in\b`), 0.7},
	{regexp.MustCompile(`(?i)\bexperts? in\b`), 0.65},
	{regexp.MustCompile(`(?i)\bfeaturing\b`), 0.6},
}

var serviceWords = regexp.MustCompile(`(?i)\b(service|repair|installation|maintenance|cleaning|consulting|support|inspection|tune[ -]?up)s?\b`)

var sentenceSplitRe = regexp.MustCompile(`[.!?;\n]+`)

// UVP extracts candidates from the tenant's stated value proposition text.
type UVP struct {
	store SourceStore
	cfg   Config
}

// NewUVP creates the value-proposition adapter.
func NewUVP(store SourceStore, cfg Config) *UVP {
	return &UVP{store: store, cfg: cfg}
}

func (u *UVP) Source() model.CandidateSource { return model.SourceUVP }

// Extract parses the UVP on file for offering lead-in phrases and turns the
// listed items into candidates.
func (u *UVP) Extract(ctx context.Context, tenantID string) (*model.SingleSourceResult, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return failure(model.SourceUVP, start, err), err
	}

	payload, ok, err := u.store.UVP(ctx, tenantID)
	if err != nil {
		return failure(model.SourceUVP, start, err), nil
	}
	if !ok {
		err := eris.New("uvp: no value proposition on file")
		return failure(model.SourceUVP, start, err), nil
	}

	var cands []model.ExtractedCandidate

	// Pre-segmented UVPs list offerings explicitly.
	for _, seg := range payload.Segments {
		cands = append(cands, model.ExtractedCandidate{
			Name:       strings.TrimSpace(seg),
			IsService:  serviceWords.MatchString(seg),
			Confidence: 0.85,
			Raw:        payload,
		})
	}

	for _, sentence := range sentenceSplitRe.Split(payload.Text, -1) {
		if err := ctx.Err(); err != nil {
			return failure(model.SourceUVP, start, err), err
		}
		for _, phrase := range offeringPhrases {
			loc := phrase.re.FindStringIndex(sentence)
			if loc == nil {
				continue
			}
			for _, item := range splitList(sentence[loc[1]:]) {
				cands = append(cands, model.ExtractedCandidate{
					Name:        item,
					Description: strings.TrimSpace(sentence),
					IsService:   serviceWords.MatchString(item),
					Confidence:  phrase.confidence,
					Raw:         payload,
				})
			}
			break
		}
	}

	zap.L().Debug("uvp: extraction complete",
		zap.String("tenant", tenantID),
		zap.Int("candidates", len(cands)),
	)

	return finalize(model.SourceUVP, cands, start, u.cfg.maxCandidates(), map[string]any{
		"text_len": len(payload.Text),
		"segments": len(payload.Segments),
	}), nil
}

var listSplitRe = regexp.MustCompile(`(?i)\s*(?:,|\band\b|&)\s*`)

// splitList breaks "duct cleaning, furnace repair and AC installation" into
// its items, trimming filler.
func splitList(s string) []string {
	var out []string
	for _, item := range listSplitRe.Split(s, -1) {
		item = strings.Trim(item, " \t.:-")
		item = strings.TrimPrefix(item, "including ")
		if n := utf8.RuneCountInString(item); n < model.MinNameLength || n > model.MaxNameLength {
			continue
		}
		out = append(out, item)
	}
	return out
}
