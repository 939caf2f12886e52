package model

import "time"

// MergedCandidate is one dedup cluster: a representative candidate with
// merged fields plus the full provenance of every contributor folded in.
type MergedCandidate struct {
	Candidate    ExtractedCandidate   `json:"candidate"`
	Sources      []CandidateSource    `json:"sources"`
	Contributors []ExtractedCandidate `json:"contributors"`
	MergedAt     time.Time            `json:"merged_at"`
}

// HasSource reports whether a given source already contributed to the cluster.
func (m *MergedCandidate) HasSource(s CandidateSource) bool {
	for _, have := range m.Sources {
		if have == s {
			return true
		}
	}
	return false
}
