package model

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rotisserie/eris"
)

// CandidateSource identifies which extractor produced a candidate.
type CandidateSource string

const (
	SourceUVP     CandidateSource = "uvp"
	SourceWebsite CandidateSource = "website"
	SourceReview  CandidateSource = "review"
	SourceKeyword CandidateSource = "keyword"
	SourceManual  CandidateSource = "manual"
	SourceAPI     CandidateSource = "api"
)

// SourcePriority is the fixed order in which extractors are attempted and
// in which their candidates seed dedup clusters. Keeping this deterministic
// makes progress reporting and merge output reproducible for a given input.
var SourcePriority = []CandidateSource{SourceUVP, SourceWebsite, SourceReview, SourceKeyword}

// ParseSource converts a string into a CandidateSource.
func ParseSource(s string) (CandidateSource, error) {
	switch CandidateSource(strings.ToLower(strings.TrimSpace(s))) {
	case SourceUVP:
		return SourceUVP, nil
	case SourceWebsite:
		return SourceWebsite, nil
	case SourceReview:
		return SourceReview, nil
	case SourceKeyword:
		return SourceKeyword, nil
	case SourceManual:
		return SourceManual, nil
	case SourceAPI:
		return SourceAPI, nil
	default:
		return "", eris.Errorf("model: unknown source %q (valid: uvp, website, review, keyword, manual, api)", s)
	}
}

const (
	// MinNameLength and MaxNameLength bound a candidate name after trimming.
	MinNameLength = 2
	MaxNameLength = 200
)

// ExtractedCandidate is one offering guess produced by a single extractor,
// or the representative record of a merged cluster.
type ExtractedCandidate struct {
	TempID            string          `json:"temp_id"`
	Name              string          `json:"name"`
	Description       string          `json:"description,omitempty"`
	ShortDescription  string          `json:"short_description,omitempty"`
	Price             *float64        `json:"price,omitempty"`
	Currency          string          `json:"currency,omitempty"`
	Features          []string        `json:"features,omitempty"`
	Benefits          []string        `json:"benefits,omitempty"`
	Images            []string        `json:"images,omitempty"`
	SuggestedCategory string          `json:"suggested_category,omitempty"`
	IsService         bool            `json:"is_service"`
	Seasonal          bool            `json:"seasonal,omitempty"`
	SeasonStart       *time.Time      `json:"season_start,omitempty"`
	SeasonEnd         *time.Time      `json:"season_end,omitempty"`
	Tags              []string        `json:"tags,omitempty"`
	ExternalID        string          `json:"external_id,omitempty"`
	Source            CandidateSource `json:"source"`
	SourceURL         string          `json:"source_url,omitempty"`
	Confidence        float64         `json:"confidence"`
	Raw               any             `json:"raw,omitempty"` // opaque source payload, provenance only
}

// Validate checks the candidate invariants: a usable name, a confidence
// inside [0,1], and a non-negative price when one is present.
func (c *ExtractedCandidate) Validate() error {
	name := strings.TrimSpace(c.Name)
	if utf8.RuneCountInString(name) < MinNameLength {
		return eris.Errorf("model: candidate name %q too short", c.Name)
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return eris.Errorf("model: candidate name exceeds %d chars", MaxNameLength)
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		return eris.Errorf("model: confidence %f outside [0,1]", c.Confidence)
	}
	if c.Price != nil && *c.Price < 0 {
		return eris.Errorf("model: negative price %f", *c.Price)
	}
	return nil
}

// ClampConfidence forces the confidence into [0,1].
func (c *ExtractedCandidate) ClampConfidence() {
	if c.Confidence < 0 {
		c.Confidence = 0
	}
	if c.Confidence > 1 {
		c.Confidence = 1
	}
}

// SingleSourceResult is the immutable outcome of one extractor invocation.
type SingleSourceResult struct {
	Source     CandidateSource      `json:"source"`
	Success    bool                 `json:"success"`
	Candidates []ExtractedCandidate `json:"candidates"`
	Error      string               `json:"error,omitempty"`
	DurationMs int64                `json:"duration_ms"`
	Metadata   map[string]any       `json:"metadata,omitempty"`
}
