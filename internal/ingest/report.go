package ingest

import "time"

// LevelStats counts unit outcomes for one fan-out level.
type LevelStats struct {
	Units     int `json:"units"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Records   int `json:"records"`
}

// RunReport summarizes one ingestion run. It is what the run log persists and
// what the completion notification carries.
type RunReport struct {
	RunID      string    `json:"run_id"`
	Command    string    `json:"command"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Days is Level 1 (one unit per day, records are laws), Laws is Level 2
	// (one unit per law, records are votes) and Entities is the sequential
	// listing path (one unit per listing).
	Days     LevelStats `json:"days"`
	Laws     LevelStats `json:"laws"`
	Entities LevelStats `json:"entities"`

	SkippedRecords    int `json:"skipped_records"`
	ResolverFallbacks int `json:"resolver_fallbacks"`
	AmbiguousNames    int `json:"ambiguous_names"`
	Similarities      int `json:"similarities"`
	NodesWritten      int `json:"nodes_written"`
	EdgesWritten      int `json:"edges_written"`

	Errors []UnitError `json:"errors,omitempty"`
	// Err is set when the run aborted (sink failure, unreachable store).
	Err string `json:"error,omitempty"`
}

// Duration returns the wall time of the run.
func (r RunReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Succeeded reports whether the run finished without a run-level error.
func (r RunReport) Succeeded() bool {
	return r.Err == ""
}
