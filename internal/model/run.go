package model

import "time"

// RunStatus is the lifecycle state of a persisted pipeline run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// Run records one pipeline execution in the store.
type Run struct {
	ID          string      `json:"id"`
	Inputs      []string    `json:"inputs"`
	Status      RunStatus   `json:"status"`
	StartedAt   time.Time   `json:"started_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
	Error       string      `json:"error,omitempty"`
	Summary     *RunSummary `json:"summary,omitempty"`
}

// RunSummary holds headline counts for a completed run.
type RunSummary struct {
	RowsRead         int64   `json:"rows_read"`
	RowsKept         int64   `json:"rows_kept"`
	Disclosures      int     `json:"disclosures"`
	Excluded         int     `json:"excluded"`
	Quarters         int     `json:"quarters"`
	TotalProppantLbs float64 `json:"total_proppant_lbs"`
	TotalWaterGal    float64 `json:"total_water_gal"`
}
