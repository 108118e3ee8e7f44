package database

import (
	"context"

	"docchat-platform/internal/ai"
	"docchat-platform/internal/config"
	"docchat-platform/internal/ingest"
	"docchat-platform/internal/loader"
	"docchat-platform/internal/queue"
	"docchat-platform/internal/telemetry"

	"github.com/hibiken/asynq"
)

// NewEmbedder builds the Gemini embedder behind the shared throttle and
// rate-limit retries. The returned close func releases the client.
func NewEmbedder(ctx context.Context, cfg *config.Config, metrics *telemetry.Metrics) (ai.Embedder, func() error, error) {
	gemini, err := ai.NewGeminiEmbedder(ctx, cfg.GeminiAPIKey, cfg.GoogleEmbeddingsModel)
	if err != nil {
		return nil, nil, err
	}
	policy := ai.RetryPolicy{
		MaxRetries: cfg.EmbedMaxRetries,
		BaseDelay:  cfg.EmbedBaseDelay,
		JitterMax:  cfg.EmbedJitterMax,
	}
	return ai.NewRetryingEmbedder(gemini, policy,
		ai.WithLimiter(ai.NewSharedLimiter(cfg.EmbedRPM)),
		ai.WithCallTimeout(cfg.EmbedTimeout),
		ai.WithMetrics(metrics),
	), gemini.Close, nil
}

// NewIngestWorker assembles load, split and upsert over the opened backends
func (b *Backends) NewIngestWorker(cfg *config.Config, embedder ai.Embedder, metrics *telemetry.Metrics) (*ingest.Worker, error) {
	splitter, err := ingest.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	stage := ingest.NewUpsertStage(embedder, b.Vectors, cfg.UpsertBatchSize,
		ingest.WithBatchPause(cfg.UpsertBatchPause),
		ingest.WithUpsertTimeout(cfg.UpsertTimeout),
		ingest.WithUpsertMetrics(metrics),
	)
	return ingest.NewWorker(loader.New(b.Files), splitter, stage, b.Vectors, b.Jobs, metrics), nil
}

// NewQueueServer returns an asynq server consuming the ingestion queue and
// the mux that routes its tasks to worker
func NewQueueServer(cfg *config.Config, redisOpt asynq.RedisConnOpt, worker queue.JobProcessor) (*asynq.Server, *asynq.ServeMux) {
	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency:  cfg.WorkerConcurrency,
		Queues:       map[string]int{cfg.QueueName: 1},
		Logger:       queue.NewLogger(),
		ErrorHandler: asynq.ErrorHandlerFunc(queue.LogTaskFailure),
	})

	mux := asynq.NewServeMux()
	queue.NewTaskProcessor(worker).Register(mux)
	return server, mux
}
