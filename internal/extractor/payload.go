package extractor

import "encoding/json"

// Cached source rows carry one JSON payload per source type. Parsing fails
// closed: a malformed payload yields the zero value and ok=false, never an
// error, so one bad row cannot fail an extraction.

// UVPPayload is the stated value proposition on file for a tenant.
type UVPPayload struct {
	Text     string   `json:"text"`
	Segments []string `json:"segments,omitempty"`
}

// PagePayload is one scraped website page.
type PagePayload struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
	HTML  string `json:"html"`
}

// ReviewPayload is one customer review.
type ReviewPayload struct {
	Author string  `json:"author,omitempty"`
	Text   string  `json:"text"`
	Rating float64 `json:"rating,omitempty"`
}

// KeywordPayload is one search-keyword research row.
type KeywordPayload struct {
	Term   string  `json:"term"`
	Volume int     `json:"volume,omitempty"`
	Intent string  `json:"intent,omitempty"`
	CPC    float64 `json:"cpc,omitempty"`
}

func parseUVPPayload(raw []byte) (UVPPayload, bool) {
	var p UVPPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.Text == "" {
		return UVPPayload{}, false
	}
	return p, true
}

func parsePagePayload(raw []byte) (PagePayload, bool) {
	var p PagePayload
	if err := json.Unmarshal(raw, &p); err != nil || p.HTML == "" {
		return PagePayload{}, false
	}
	return p, true
}

func parseReviewPayload(raw []byte) (ReviewPayload, bool) {
	var p ReviewPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.Text == "" {
		return ReviewPayload{}, false
	}
	return p, true
}

func parseKeywordPayload(raw []byte) (KeywordPayload, bool) {
	var p KeywordPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.Term == "" {
		return KeywordPayload{}, false
	}
	return p, true
}
