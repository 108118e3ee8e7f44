package jobs

import (
	"context"
	"fmt"
	"time"

	"docchat-platform/models"
)

// Store tracks one ingestion job per session. Get returns a
// *models.JobNotFoundError for unknown sessions.
type Store interface {
	Save(ctx context.Context, rec *models.JobRecord) error
	Get(ctx context.Context, sessionID string) (*models.JobRecord, error)
	Delete(ctx context.Context, sessionID string) error
}

// Transition moves rec to the next state, refusing anything the job
// lifecycle does not allow. Re-entering active is permitted so a redelivered
// task can pick up an interrupted job.
func Transition(rec *models.JobRecord, to models.JobState, now time.Time) error {
	if !to.Valid() {
		return fmt.Errorf("invalid job state %q", to)
	}
	if !allowed(rec.State, to) {
		return fmt.Errorf("illegal job transition %s -> %s", rec.State, to)
	}
	rec.State = to
	rec.UpdatedAt = now
	return nil
}

func allowed(from, to models.JobState) bool {
	switch from {
	case models.JobWaiting:
		return to == models.JobActive || to == models.JobFailed
	case models.JobActive:
		return to == models.JobActive || to == models.JobCompleted || to == models.JobFailed
	}
	return false
}

// NewRecord builds the waiting record written at submission time
func NewRecord(job models.IngestionJob, now time.Time) *models.JobRecord {
	return &models.JobRecord{
		JobID:     job.ID,
		SessionID: job.SessionID,
		Filename:  job.Filename,
		State:     models.JobWaiting,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
