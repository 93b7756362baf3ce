package model

import "time"

// Snapshot is the atomic (records, metrics) pair produced by one pipeline run.
type Snapshot struct {
	RunID     string          `json:"runId" yaml:"run_id"`
	FetchedAt time.Time       `json:"fetchedAt" yaml:"fetched_at"`
	Fallback  bool            `json:"fallback" yaml:"fallback"`
	Records   []ProjectRecord `json:"records" yaml:"records"`
	Metrics   BusinessMetrics `json:"metrics" yaml:"metrics"`
}

// View is what the presentation layer consumes.
// Metrics is nil only before the first run completes.
type View struct {
	Metrics   *BusinessMetrics `json:"metrics"`
	Records   []ProjectRecord  `json:"records,omitempty"`
	IsLoading bool             `json:"isLoading"`
	Error     *string          `json:"error"`
	State     string           `json:"state"`
	Fallback  bool             `json:"fallback"`
	UpdatedAt time.Time        `json:"updatedAt"`
}
