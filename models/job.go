package models

import "time"

// JobState is the lifecycle state of an ingestion job
type JobState string

const (
	JobWaiting   JobState = "waiting"
	JobActive    JobState = "active"
	JobCompleted JobState = "completed"
	JobFailed    JobState = "failed"

	// JobNotFound is only ever returned by status lookups, never stored
	JobNotFound JobState = "not_found"
)

// Terminal reports whether no further transitions are possible
func (s JobState) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// Valid reports whether s is a storable job state
func (s JobState) Valid() bool {
	switch s {
	case JobWaiting, JobActive, JobCompleted, JobFailed:
		return true
	}
	return false
}

// IngestionJob is the unit of work handed to the ingestion worker.
// All fields are set at submission time and never change afterwards.
type IngestionJob struct {
	ID          string `json:"job_id"`
	SessionID   string `json:"session_id"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Destination string `json:"destination"`
	SourcePath  string `json:"path"`
}

// JobRecord is the tracked view of a job, keyed by session
type JobRecord struct {
	JobID          string    `json:"job_id"`
	SessionID      string    `json:"session_id"`
	Filename       string    `json:"filename"`
	State          JobState  `json:"state"`
	ProcessedCount int       `json:"processed_count"`
	TotalCount     int       `json:"total_count"`
	Error          string    `json:"error,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// JobResult is reported by the worker when a job completes
type JobResult struct {
	Success        bool `json:"success"`
	ProcessedCount int  `json:"processedCount"`
	TotalCount     int  `json:"totalCount"`
}
