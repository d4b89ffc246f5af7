// Package api is a client for the Virtool jobs API.
package api

import "time"

// Job states reported through status updates.
const (
	StateWaiting   = "waiting"
	StatePreparing = "preparing"
	StateRunning   = "running"
	StateComplete  = "complete"
	StateCancelled = "cancelled"
	StateError     = "error"
)

// Job is a unit of work tracked by Virtool.
type Job struct {
	ID     string         `json:"id"`
	Task   string         `json:"task"`
	Args   map[string]any `json:"args"`
	Mem    int            `json:"mem"`
	Proc   int            `json:"proc"`
	Status []JobStatus    `json:"status"`

	// Key is the API key granted when the job is acquired. It
	// authenticates all further requests made on behalf of the job.
	Key string `json:"key,omitempty"`
}

// JobStatus is one entry in a job's status history.
type JobStatus struct {
	State     string    `json:"state"`
	Stage     string    `json:"stage,omitempty"`
	Progress  float64   `json:"progress"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Analysis is an analysis record exposed by the jobs API.
type Analysis struct {
	ID    string         `json:"id"`
	Ready bool           `json:"ready"`
	Files []AnalysisFile `json:"files"`
}

// AnalysisFile is a file attached to an analysis.
type AnalysisFile struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	NameOnDisk string    `json:"name_on_disk"`
	Size       int64     `json:"size"`
	Format     string    `json:"format"`
	UploadedAt time.Time `json:"uploaded_at"`
}
