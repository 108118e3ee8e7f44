package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"docchat-platform/internal/jobs"
	"docchat-platform/internal/logger"
	"docchat-platform/internal/queue"
	"docchat-platform/internal/session"
	"docchat-platform/internal/storage"
	"docchat-platform/models"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// Upload is a file received from a client
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// SubmitResult identifies the job and the session it created
type SubmitResult struct {
	JobID     string `json:"jobId"`
	SessionID string `json:"sessionId"`
}

// IngestionService accepts uploads and tracks their ingestion jobs
type IngestionService struct {
	files    storage.Store
	sessions session.Store
	jobs     jobs.Store
	queue    queue.Enqueuer
	allowed  map[string]bool
	maxSize  int64

	now   func() time.Time
	newID func() string
}

func NewIngestionService(files storage.Store, sessions session.Store, js jobs.Store, q queue.Enqueuer, allowedTypes []string, maxSize int64) *IngestionService {
	allowed := make(map[string]bool, len(allowedTypes))
	for _, t := range allowedTypes {
		if t = mediaType(t); t != "" {
			allowed[t] = true
		}
	}
	return &IngestionService{
		files:    files,
		sessions: sessions,
		jobs:     js,
		queue:    q,
		allowed:  allowed,
		maxSize:  maxSize,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Submit validates an upload, stores it, opens an empty session record and
// enqueues an ingestion job for it. Nothing is left behind when a step fails.
func (s *IngestionService) Submit(ctx context.Context, up *Upload) (*SubmitResult, error) {
	if up == nil || len(up.Data) == 0 {
		return nil, &models.InvalidUploadError{Reason: "no file uploaded"}
	}
	if s.maxSize > 0 && int64(len(up.Data)) > s.maxSize {
		return nil, &models.InvalidUploadError{Reason: fmt.Sprintf("file exceeds %d bytes", s.maxSize)}
	}

	contentType := s.resolveType(up)
	if !s.allowed[contentType] {
		return nil, &models.InvalidUploadError{Reason: fmt.Sprintf("unsupported file type %q", contentType)}
	}

	now := s.now()
	job := models.IngestionJob{
		ID:          s.newID(),
		SessionID:   s.newID(),
		Filename:    up.Filename,
		ContentType: contentType,
		Destination: s.files.Destination(),
	}
	log := logger.With("job_id", job.ID, "session_id", job.SessionID)

	path, err := s.files.Save(ctx, storage.ObjectKey(now, up.Filename), up.Data, contentType)
	if err != nil {
		return nil, models.Upstream("file storage", err)
	}
	job.SourcePath = path

	sess := &models.SessionRecord{SessionID: job.SessionID, CreatedAt: now, UpdatedAt: now}
	if err := s.sessions.Save(ctx, sess); err != nil {
		s.removeFile(ctx, path)
		return nil, models.Upstream("session store", err)
	}

	if err := s.jobs.Save(ctx, jobs.NewRecord(job, now)); err != nil {
		s.removeFile(ctx, path)
		s.removeSession(ctx, job.SessionID)
		return nil, models.Upstream("job store", err)
	}

	if err := s.queue.Enqueue(ctx, job); err != nil {
		log.Error("Failed to enqueue ingestion job", "error", err)
		s.removeFile(ctx, path)
		s.removeSession(ctx, job.SessionID)
		if derr := s.jobs.Delete(context.WithoutCancel(ctx), job.SessionID); derr != nil {
			log.Warn("Failed to delete job record", "error", derr)
		}
		return nil, models.Upstream("queue", err)
	}

	log.Info("Upload accepted", "filename", up.Filename, "content_type", contentType, "bytes", len(up.Data))
	return &SubmitResult{JobID: job.ID, SessionID: job.SessionID}, nil
}

// Status reports the job state for a session. Unknown sessions yield
// JobNotFound together with a *models.JobNotFoundError.
func (s *IngestionService) Status(ctx context.Context, sessionID string) (models.JobState, error) {
	rec, err := s.Job(ctx, sessionID)
	if err != nil {
		if errors.Is(err, models.ErrJobNotFound) {
			return models.JobNotFound, err
		}
		return "", err
	}
	return rec.State, nil
}

// Job returns the full job record for a session
func (s *IngestionService) Job(ctx context.Context, sessionID string) (*models.JobRecord, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, &models.JobNotFoundError{SessionID: sessionID}
	}
	rec, err := s.jobs.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, models.ErrJobNotFound) {
			return nil, err
		}
		return nil, models.Upstream("job store", err)
	}
	return rec, nil
}

// resolveType trusts a specific declared type and sniffs generic ones
func (s *IngestionService) resolveType(up *Upload) string {
	declared := mediaType(up.ContentType)
	switch declared {
	case "", "application/octet-stream", "binary/octet-stream":
		return mediaType(mimetype.Detect(up.Data).String())
	}
	return declared
}

func (s *IngestionService) removeSession(ctx context.Context, sessionID string) {
	if err := s.sessions.Delete(context.WithoutCancel(ctx), sessionID); err != nil {
		logger.Warn("Failed to delete session record", "session_id", sessionID, "error", err)
	}
}

func (s *IngestionService) removeFile(ctx context.Context, path string) {
	if err := s.files.Remove(context.WithoutCancel(ctx), path); err != nil {
		logger.Warn("Failed to remove stored upload", "path", path, "error", err)
	}
}

func mediaType(contentType string) string {
	mt, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}
