package database

import (
	"context"
	"strings"
	"testing"

	"docchat-platform/internal/config"
	"docchat-platform/internal/queue"
	"docchat-platform/internal/storage"
	"docchat-platform/internal/telemetry"
	"docchat-platform/internal/vectorstore"
	"docchat-platform/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type constEmbedder struct{}

func (constEmbedder) EmbedText(_ context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text)), 1}, nil
}

func memoryConfig(t *testing.T) *config.Config {
	mr := miniredis.RunT(t)
	return &config.Config{
		RedisURL:          mr.Addr(),
		VectorBackend:     "memory",
		SessionStore:      "memory",
		StorageBackend:    "local",
		FileStorageDir:    t.TempDir(),
		SessionMaxEntries: 100,
		ChunkSize:         1000,
		ChunkOverlap:      200,
		UpsertBatchSize:   2,
		WorkerConcurrency: 1,
		QueueName:         "test-queue",
	}
}

func TestOpenMemoryBackends(t *testing.T) {
	cfg := memoryConfig(t)

	b, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer b.Close(context.Background())

	assert.NotNil(t, b.Redis)
	assert.IsType(t, &vectorstore.MemoryStore{}, b.Vectors)
	assert.IsType(t, &storage.LocalStore{}, b.Files)
	assert.Equal(t, cfg.FileStorageDir, b.Files.Destination())
}

func TestOpenFailsWithoutRedis(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.RedisURL = "127.0.0.1:1"

	_, err := Open(context.Background(), cfg)
	assert.Error(t, err)
}

func TestIngestWorkerOverMemoryBackends(t *testing.T) {
	ctx := context.Background()
	cfg := memoryConfig(t)

	b, err := Open(ctx, cfg)
	require.NoError(t, err)
	defer b.Close(ctx)

	path, err := b.Files.Save(ctx, "notes.txt", []byte(strings.Repeat("a", 1500)), "text/plain")
	require.NoError(t, err)

	worker, err := b.NewIngestWorker(cfg, constEmbedder{}, telemetry.NoopMetrics())
	require.NoError(t, err)

	job := models.IngestionJob{
		ID:          "job-1",
		SessionID:   "s1",
		Filename:    "notes.txt",
		ContentType: "text/plain",
		Destination: b.Files.Destination(),
		SourcePath:  path,
	}
	result, err := worker.Process(ctx, job)
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalCount)
	assert.Equal(t, 2, result.ProcessedCount)

	rec, err := b.Jobs.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, models.JobCompleted, rec.State)

	mem := b.Vectors.(*vectorstore.MemoryStore)
	assert.Len(t, mem.Points("Collection_s1"), 2)
}

func TestNewQueueServerRegistersIngestHandler(t *testing.T) {
	cfg := memoryConfig(t)
	server, mux := NewQueueServer(cfg, asynq.RedisClientOpt{Addr: cfg.RedisURL}, nil)
	require.NotNil(t, server)
	defer server.Shutdown()

	h, pattern := mux.Handler(asynq.NewTask(queue.TaskIngestDocument, nil))
	assert.NotNil(t, h)
	assert.Equal(t, queue.TaskIngestDocument, pattern)
}
