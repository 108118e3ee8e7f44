package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"docchat-platform/internal/ai"
	"docchat-platform/models"
)

// Store is the vector database boundary. A collection holds every chunk of
// exactly one session.
type Store interface {
	EnsureCollection(ctx context.Context, name string) error
	Upsert(ctx context.Context, name string, points []models.VectorPoint) error
	Search(ctx context.Context, name string, vector []float32, k int) ([]models.ScoredChunk, error)
	ListCollections(ctx context.Context) ([]string, error)
	DropCollection(ctx context.Context, name string) error
}

// Retriever answers text queries by embedding them and searching a collection
type Retriever struct {
	embedder ai.Embedder
	store    Store
	timeout  time.Duration
}

func NewRetriever(embedder ai.Embedder, store Store, timeout time.Duration) *Retriever {
	return &Retriever{embedder: embedder, store: store, timeout: timeout}
}

// SimilaritySearch returns up to k chunks ranked by similarity to query
func (r *Retriever) SimilaritySearch(ctx context.Context, collection, query string, k int) ([]models.ScoredChunk, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	vec, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	hits, err := r.store.Search(ctx, collection, vec, k)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", collection, err)
	}
	return hits, nil
}

// CosineSimilarity returns 0 for mismatched or zero-length vectors
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// RankByCosine scores points against query and keeps the k best, ties broken by document order
func RankByCosine(query []float32, points []models.VectorPoint, k int) []models.ScoredChunk {
	hits := make([]models.ScoredChunk, 0, len(points))
	for _, p := range points {
		hits = append(hits, models.ScoredChunk{
			Content:  p.Content,
			Metadata: p.Metadata,
			Score:    CosineSimilarity(query, p.Vector),
		})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Metadata.Order < hits[j].Metadata.Order
	})
	if k >= 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits
}
