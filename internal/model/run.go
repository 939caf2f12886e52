package model

import "time"

// RunStatus represents the current state of an extraction run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusMerging   RunStatus = "merging"
	RunStatusSaving    RunStatus = "saving"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// Terminal reports whether the status is a terminal state.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusFailed, RunStatusCancelled:
		return true
	default:
		return false
	}
}

// RunProgress is a snapshot of an in-flight run. The runner is the single
// writer; observers receive copies after every transition and must not
// mutate them.
type RunProgress struct {
	RunID            string          `json:"run_id"`
	CurrentSource    CandidateSource `json:"current_source,omitempty"`
	SourcesCompleted int             `json:"sources_completed"`
	TotalSources     int             `json:"total_sources"`
	CandidatesFound  int             `json:"candidates_found"`
	Status           RunStatus       `json:"status"`
	Error            string          `json:"error,omitempty"`
	SourceDetail     string          `json:"source_detail,omitempty"`
}

// RunStatistics summarizes an extraction run. Derived from the source
// results and merged list; never mutated independently.
type RunStatistics struct {
	TotalExtracted    int                     `json:"total_extracted"`
	UniqueProducts    int                     `json:"unique_products"`
	DuplicatesRemoved int                     `json:"duplicates_removed"`
	PerSourceCounts   map[CandidateSource]int `json:"per_source_counts"`
	AverageConfidence float64                 `json:"average_confidence"`
	ProcessingTimeMs  int64                   `json:"processing_time_ms"`
}

// RunResult is the terminal record of a run. Created once at run end.
type RunResult struct {
	RunID      string               `json:"run_id"`
	TenantID   string               `json:"tenant_id"`
	StartedAt  time.Time            `json:"started_at"`
	Status     RunStatus            `json:"status"`
	Sources    []SingleSourceResult `json:"sources"`
	Merged     []MergedCandidate    `json:"merged"`
	Stats      RunStatistics        `json:"stats"`
	Created    int                  `json:"created"`
	Updated    int                  `json:"updated"`
	DurationMs int64                `json:"duration_ms"`
	Error      string               `json:"error,omitempty"`
}
