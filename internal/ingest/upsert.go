package ingest

import (
	"context"
	"fmt"
	"time"

	"docchat-platform/internal/ai"
	"docchat-platform/internal/logger"
	"docchat-platform/internal/telemetry"
	"docchat-platform/internal/vectorstore"
	"docchat-platform/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// UpsertResult counts chunks written versus chunks tried
type UpsertResult struct {
	Succeeded int
	Attempted int
}

// Failed is the number of chunks that were skipped
func (r UpsertResult) Failed() int { return r.Attempted - r.Succeeded }

// UpsertStage embeds chunks and writes them to a vector collection in small,
// paced batches. A failing batch is skipped and the rest carry on.
type UpsertStage struct {
	embedder  ai.Embedder
	store     vectorstore.Store
	batchSize int
	pause     time.Duration
	timeout   time.Duration
	metrics   *telemetry.Metrics

	sleep func(ctx context.Context, d time.Duration) error
}

// UpsertOption customises an UpsertStage
type UpsertOption func(*UpsertStage)

// WithBatchPause sets the delay between consecutive batches
func WithBatchPause(d time.Duration) UpsertOption {
	return func(u *UpsertStage) { u.pause = d }
}

// WithUpsertTimeout bounds each vector store write
func WithUpsertTimeout(d time.Duration) UpsertOption {
	return func(u *UpsertStage) { u.timeout = d }
}

func WithUpsertMetrics(m *telemetry.Metrics) UpsertOption {
	return func(u *UpsertStage) { u.metrics = m }
}

// WithPauseFunc replaces the inter-batch sleep
func WithPauseFunc(fn func(ctx context.Context, d time.Duration) error) UpsertOption {
	return func(u *UpsertStage) { u.sleep = fn }
}

func NewUpsertStage(embedder ai.Embedder, store vectorstore.Store, batchSize int, opts ...UpsertOption) *UpsertStage {
	if batchSize <= 0 {
		batchSize = 1
	}
	u := &UpsertStage{
		embedder:  embedder,
		store:     store,
		batchSize: batchSize,
		pause:     500 * time.Millisecond,
		sleep:     pauseContext,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Upsert processes chunks in document order. The returned error is non-nil
// only when ctx ends; the counts gathered so far are returned with it.
func (u *UpsertStage) Upsert(ctx context.Context, collection string, chunks []models.DocumentChunk) (UpsertResult, error) {
	ctx, span := otel.Tracer("ingest").Start(ctx, "ingest.upsert")
	defer span.End()
	span.SetAttributes(
		attribute.String("vector.collection", collection),
		attribute.Int("ingest.chunks", len(chunks)),
	)

	var res UpsertResult
	log := logger.With("collection", collection)

	for start := 0; start < len(chunks); start += u.batchSize {
		if start > 0 && u.pause > 0 {
			if err := u.sleep(ctx, u.pause); err != nil {
				return res, err
			}
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}

		end := start + u.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]
		res.Attempted += len(batch)

		if err := u.writeBatch(ctx, collection, batch); err != nil {
			if ctx.Err() != nil {
				res.Attempted -= len(batch)
				return res, ctx.Err()
			}
			log.Error("Failed to upsert batch, skipping",
				"first_chunk", batch[0].Order,
				"batch_size", len(batch),
				"error", err,
			)
			continue
		}
		res.Succeeded += len(batch)
		log.Debug("Upserted batch", "first_chunk", batch[0].Order, "batch_size", len(batch))
	}

	u.metrics.RecordUpsert(ctx, res.Succeeded, res.Failed())
	span.SetAttributes(
		attribute.Int("ingest.succeeded", res.Succeeded),
		attribute.Int("ingest.failed", res.Failed()),
	)
	return res, nil
}

func (u *UpsertStage) writeBatch(ctx context.Context, collection string, batch []models.DocumentChunk) error {
	points := make([]models.VectorPoint, 0, len(batch))
	for _, c := range batch {
		vec, err := u.embedder.EmbedText(ctx, c.Content)
		if err != nil {
			return fmt.Errorf("embed chunk %d: %w", c.Order, err)
		}
		points = append(points, models.VectorPoint{
			ID:       c.ID,
			Content:  c.Content,
			Vector:   vec,
			Metadata: models.ChunkMetadata{SourceRef: c.Ref, Order: c.Order},
		})
	}

	writeCtx := ctx
	if u.timeout > 0 {
		var cancel context.CancelFunc
		writeCtx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}
	if err := u.store.Upsert(writeCtx, collection, points); err != nil {
		return fmt.Errorf("store upsert: %w", err)
	}
	return nil
}

func pauseContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
