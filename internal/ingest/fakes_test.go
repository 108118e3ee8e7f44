package ingest

import (
	"context"
	"errors"
	"sync"
	"time"

	"docchat-platform/internal/vectorstore"
	"docchat-platform/models"
)

// stubEmbedder returns a tiny vector per text and fails for configured texts
type stubEmbedder struct {
	mu     sync.Mutex
	failOn map[string]error
	calls  []string
}

func (e *stubEmbedder) EmbedText(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, text)
	if err, ok := e.failOn[text]; ok {
		return nil, err
	}
	return []float32{float32(len(text)), 1}, nil
}

// flakyStore wraps the in-memory store and rejects writes for chosen chunk orders
type flakyStore struct {
	*vectorstore.MemoryStore
	failOrders map[int]bool
	ensureErr  error
	writes     [][]string
}

func newFlakyStore() *flakyStore {
	return &flakyStore{MemoryStore: vectorstore.NewMemoryStore(), failOrders: map[int]bool{}}
}

func (s *flakyStore) EnsureCollection(ctx context.Context, name string) error {
	if s.ensureErr != nil {
		return s.ensureErr
	}
	return s.MemoryStore.EnsureCollection(ctx, name)
}

func (s *flakyStore) Upsert(ctx context.Context, name string, points []models.VectorPoint) error {
	ids := make([]string, 0, len(points))
	for _, p := range points {
		if s.failOrders[p.Metadata.Order] {
			return errors.New("vector db unavailable")
		}
		ids = append(ids, p.ID)
	}
	s.writes = append(s.writes, ids)
	return s.MemoryStore.Upsert(ctx, name, points)
}

type stubLoader struct {
	segments []models.Segment
	err      error
}

func (l *stubLoader) Load(_ context.Context, _, _ string) ([]models.Segment, error) {
	return l.segments, l.err
}

// pauseRecorder counts inter-batch pauses without sleeping
type pauseRecorder struct {
	pauses []time.Duration
}

func (p *pauseRecorder) sleep(ctx context.Context, d time.Duration) error {
	p.pauses = append(p.pauses, d)
	return ctx.Err()
}

func chunksOf(texts ...string) []models.DocumentChunk {
	out := make([]models.DocumentChunk, len(texts))
	for i, t := range texts {
		out[i] = models.DocumentChunk{ID: models.ChunkID(t), Content: t, Order: i}
	}
	return out
}
