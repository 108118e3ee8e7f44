package vectorstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"docchat-platform/models"
)

// MemoryStore keeps collections in process. Used for local runs and tests.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]models.VectorPoint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]map[string]models.VectorPoint)}
}

func (s *MemoryStore) EnsureCollection(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; !ok {
		s.collections[name] = make(map[string]models.VectorPoint)
	}
	return nil
}

func (s *MemoryStore) Upsert(_ context.Context, name string, points []models.VectorPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	coll, ok := s.collections[name]
	if !ok {
		return fmt.Errorf("collection %s does not exist", name)
	}
	for _, p := range points {
		coll[p.ID] = p
	}
	return nil
}

func (s *MemoryStore) Search(_ context.Context, name string, vector []float32, k int) ([]models.ScoredChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	coll, ok := s.collections[name]
	if !ok {
		return nil, nil
	}
	points := make([]models.VectorPoint, 0, len(coll))
	for _, p := range coll {
		points = append(points, p)
	}
	return RankByCosine(vector, points, k), nil
}

// Points returns a collection's contents in document order
func (s *MemoryStore) Points(name string) []models.VectorPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.VectorPoint, 0, len(s.collections[name]))
	for _, p := range s.collections[name] {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Metadata.Order < out[j].Metadata.Order })
	return out
}

func (s *MemoryStore) ListCollections(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *MemoryStore) DropCollection(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, name)
	return nil
}

var _ Store = (*MemoryStore)(nil)
