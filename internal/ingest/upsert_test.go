package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertWritesInDocumentOrderWithPauses(t *testing.T) {
	store := newFlakyStore()
	require.NoError(t, store.EnsureCollection(context.Background(), "Collection_s1"))
	pr := &pauseRecorder{}
	stage := NewUpsertStage(&stubEmbedder{}, store, 1, WithPauseFunc(pr.sleep))

	chunks := chunksOf("one", "two", "three")
	res, err := stage.Upsert(context.Background(), "Collection_s1", chunks)
	require.NoError(t, err)

	assert.Equal(t, UpsertResult{Succeeded: 3, Attempted: 3}, res)
	require.Len(t, store.writes, 3)
	for i, c := range chunks {
		assert.Equal(t, []string{c.ID}, store.writes[i])
	}
	// pauses only between batches
	assert.Equal(t, []time.Duration{500 * time.Millisecond, 500 * time.Millisecond}, pr.pauses)
}

func TestUpsertSkipsFailedBatches(t *testing.T) {
	store := newFlakyStore()
	store.failOrders[1] = true
	require.NoError(t, store.EnsureCollection(context.Background(), "c"))
	embedder := &stubEmbedder{failOn: map[string]error{"four": errors.New("embedding quota exceeded")}}
	stage := NewUpsertStage(embedder, store, 1, WithPauseFunc((&pauseRecorder{}).sleep))

	res, err := stage.Upsert(context.Background(), "c", chunksOf("one", "two", "three", "four"))
	require.NoError(t, err)

	assert.Equal(t, 4, res.Attempted)
	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 2, res.Failed())

	points := store.Points("c")
	require.Len(t, points, 2)
	assert.Equal(t, "one", points[0].Content)
	assert.Equal(t, "three", points[1].Content)
}

func TestUpsertBatches(t *testing.T) {
	store := newFlakyStore()
	require.NoError(t, store.EnsureCollection(context.Background(), "c"))
	pr := &pauseRecorder{}
	stage := NewUpsertStage(&stubEmbedder{}, store, 2, WithPauseFunc(pr.sleep), WithBatchPause(time.Second))

	res, err := stage.Upsert(context.Background(), "c", chunksOf("a", "b", "c", "d", "e"))
	require.NoError(t, err)

	assert.Equal(t, 5, res.Succeeded)
	require.Len(t, store.writes, 3)
	assert.Len(t, store.writes[0], 2)
	assert.Len(t, store.writes[2], 1)
	assert.Len(t, pr.pauses, 2)
}

func TestUpsertIsIdempotent(t *testing.T) {
	store := newFlakyStore()
	require.NoError(t, store.EnsureCollection(context.Background(), "c"))
	stage := NewUpsertStage(&stubEmbedder{}, store, 1, WithPauseFunc((&pauseRecorder{}).sleep))
	chunks := chunksOf("alpha", "beta")

	_, err := stage.Upsert(context.Background(), "c", chunks)
	require.NoError(t, err)
	_, err = stage.Upsert(context.Background(), "c", chunks)
	require.NoError(t, err)

	assert.Len(t, store.Points("c"), 2)
}

func TestUpsertStopsOnCancel(t *testing.T) {
	store := newFlakyStore()
	require.NoError(t, store.EnsureCollection(context.Background(), "c"))
	ctx, cancel := context.WithCancel(context.Background())

	stage := NewUpsertStage(&stubEmbedder{}, store, 1, WithPauseFunc(func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}))

	res, err := stage.Upsert(ctx, "c", chunksOf("one", "two", "three"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, UpsertResult{Succeeded: 1, Attempted: 1}, res)
}

func TestUpsertEmpty(t *testing.T) {
	stage := NewUpsertStage(&stubEmbedder{}, newFlakyStore(), 1)

	res, err := stage.Upsert(context.Background(), "c", nil)
	require.NoError(t, err)
	assert.Equal(t, UpsertResult{}, res)
}
