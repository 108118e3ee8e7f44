package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"docchat-platform/internal/jobs"
	"docchat-platform/internal/loader"
	"docchat-platform/internal/logger"
	"docchat-platform/internal/telemetry"
	"docchat-platform/internal/vectorstore"
	"docchat-platform/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Worker runs one ingestion job end to end: load, split, embed, upsert
type Worker struct {
	loader   loader.Loader
	splitter *Splitter
	stage    *UpsertStage
	vectors  vectorstore.Store
	jobs     jobs.Store
	metrics  *telemetry.Metrics
	now      func() time.Time
}

func NewWorker(l loader.Loader, splitter *Splitter, stage *UpsertStage, vectors vectorstore.Store, js jobs.Store, metrics *telemetry.Metrics) *Worker {
	return &Worker{
		loader:   l,
		splitter: splitter,
		stage:    stage,
		vectors:  vectors,
		jobs:     js,
		metrics:  metrics,
		now:      time.Now,
	}
}

// Process drives job to a terminal state. Chunk-level failures during the
// upsert stage do not fail the job; failures before it do. A shutdown
// (context.Canceled) leaves the job active so a redelivery can resume it.
func (w *Worker) Process(ctx context.Context, job models.IngestionJob) (*models.JobResult, error) {
	ctx, span := otel.Tracer("ingest").Start(ctx, "ingest.process")
	defer span.End()
	span.SetAttributes(
		attribute.String("job.id", job.ID),
		attribute.String("job.session_id", job.SessionID),
	)

	log := logger.With("job_id", job.ID, "session_id", job.SessionID)
	started := w.now()

	rec, err := w.jobs.Get(ctx, job.SessionID)
	if errors.Is(err, models.ErrJobNotFound) {
		rec = jobs.NewRecord(job, started)
	} else if err != nil {
		return nil, fmt.Errorf("load job record: %w", err)
	}

	if rec.State.Terminal() {
		log.Info("Job already finished, skipping redelivery", "state", rec.State)
		return &models.JobResult{
			Success:        rec.State == models.JobCompleted,
			ProcessedCount: rec.ProcessedCount,
			TotalCount:     rec.TotalCount,
		}, nil
	}

	if err := w.transition(ctx, rec, models.JobActive); err != nil {
		return nil, err
	}
	log.Info("Processing job", "filename", job.Filename)

	result, err := w.run(ctx, job)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn("Job interrupted, leaving active for redelivery", "error", err)
			return nil, err
		}
		log.Error("Job failed", "error", err)
		rec.Error = err.Error()
		if terr := w.transition(context.WithoutCancel(ctx), rec, models.JobFailed); terr != nil {
			log.Error("Failed to record job failure", "error", terr)
		}
		w.metrics.RecordJob(ctx, w.now().Sub(started).Seconds(), string(models.JobFailed))
		span.SetAttributes(attribute.Bool("job.failed", true))
		return nil, err
	}

	rec.ProcessedCount = result.ProcessedCount
	rec.TotalCount = result.TotalCount
	rec.Error = ""
	// the vectors are written; a late cancel must not strand the job in active
	if err := w.transition(context.WithoutCancel(ctx), rec, models.JobCompleted); err != nil {
		return nil, err
	}
	w.metrics.RecordJob(ctx, w.now().Sub(started).Seconds(), string(models.JobCompleted))
	log.Info("Job completed", "processed", result.ProcessedCount, "total", result.TotalCount)
	return result, nil
}

func (w *Worker) run(ctx context.Context, job models.IngestionJob) (*models.JobResult, error) {
	segments, err := w.loader.Load(ctx, job.SourcePath, job.ContentType)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}

	chunks := w.splitter.Split(segments, models.SourceRef{JobID: job.ID, Filename: job.Filename})
	if len(chunks) == 0 {
		return nil, models.ErrEmptyDocument
	}

	collection := models.CollectionName(job.SessionID)
	if err := w.vectors.EnsureCollection(ctx, collection); err != nil {
		return nil, models.Upstream("vector store", fmt.Errorf("ensure collection %s: %w", collection, err))
	}

	res, err := w.stage.Upsert(ctx, collection, chunks)
	if err != nil {
		return nil, err
	}
	return &models.JobResult{
		Success:        true,
		ProcessedCount: res.Succeeded,
		TotalCount:     len(chunks),
	}, nil
}

func (w *Worker) transition(ctx context.Context, rec *models.JobRecord, to models.JobState) error {
	if err := jobs.Transition(rec, to, w.now()); err != nil {
		return err
	}
	if err := w.jobs.Save(ctx, rec); err != nil {
		return fmt.Errorf("save job record: %w", err)
	}
	return nil
}
