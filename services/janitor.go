package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"docchat-platform/internal/jobs"
	"docchat-platform/internal/logger"
	"docchat-platform/internal/session"
	"docchat-platform/internal/storage"
	"docchat-platform/internal/vectorstore"
	"docchat-platform/models"

	"github.com/go-co-op/gocron"
)

// Janitor periodically removes stale uploads and vector collections whose
// session and job have both expired.
type Janitor struct {
	scheduler *gocron.Scheduler
	files     storage.Store
	vectors   vectorstore.Store
	sessions  session.Store
	jobs      jobs.Store
	retention time.Duration
	now       func() time.Time
}

// SweepReport counts what one sweep removed
type SweepReport struct {
	Files       int
	Collections int
}

func NewJanitor(files storage.Store, vectors vectorstore.Store, sessions session.Store, js jobs.Store, retention time.Duration) *Janitor {
	s := gocron.NewScheduler(time.UTC)
	s.TagsUnique()

	return &Janitor{
		scheduler: s,
		files:     files,
		vectors:   vectors,
		sessions:  sessions,
		jobs:      js,
		retention: retention,
		now:       time.Now,
	}
}

// Start schedules the sweep every interval
func (j *Janitor) Start(interval time.Duration) error {
	_, err := j.scheduler.Every(interval).Tag("janitor").Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := j.Sweep(ctx); err != nil {
			logger.Error("Janitor sweep failed", "error", err)
		}
	})
	if err != nil {
		return err
	}
	j.scheduler.StartAsync()
	return nil
}

func (j *Janitor) Stop() {
	j.scheduler.Stop()
}

// Sweep runs one cleanup pass. Individual removal failures are logged and skipped.
func (j *Janitor) Sweep(ctx context.Context) (SweepReport, error) {
	var report SweepReport

	stale, err := j.files.ListOlderThan(ctx, j.now().Add(-j.retention))
	if err != nil {
		return report, err
	}
	for _, path := range stale {
		if err := j.files.Remove(ctx, path); err != nil {
			logger.Warn("Failed to remove stale upload", "path", path, "error", err)
			continue
		}
		report.Files++
	}

	names, err := j.vectors.ListCollections(ctx)
	if err != nil {
		return report, err
	}
	for _, name := range names {
		sessionID, ok := strings.CutPrefix(name, models.CollectionPrefix)
		if !ok {
			continue
		}
		orphan, err := j.orphaned(ctx, sessionID)
		if err != nil {
			logger.Warn("Failed to check collection owner", "collection", name, "error", err)
			continue
		}
		if !orphan {
			continue
		}
		if err := j.vectors.DropCollection(ctx, name); err != nil {
			logger.Warn("Failed to drop collection", "collection", name, "error", err)
			continue
		}
		report.Collections++
	}

	if report.Files > 0 || report.Collections > 0 {
		logger.Info("Janitor sweep finished", "files", report.Files, "collections", report.Collections)
	}
	return report, nil
}

func (j *Janitor) orphaned(ctx context.Context, sessionID string) (bool, error) {
	alive, err := j.sessions.Exists(ctx, sessionID)
	if err != nil || alive {
		return false, err
	}
	_, err = j.jobs.Get(ctx, sessionID)
	if errors.Is(err, models.ErrJobNotFound) {
		return true, nil
	}
	return false, err
}
