package session

import (
	"context"
	"time"

	"docchat-platform/models"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryStore is a size-bounded in-process store. The least recently used
// session is evicted once maxEntries is reached.
type MemoryStore struct {
	cache *expirable.LRU[string, models.SessionRecord]
}

func NewMemoryStore(maxEntries int, ttl time.Duration) *MemoryStore {
	return &MemoryStore{cache: expirable.NewLRU[string, models.SessionRecord](maxEntries, nil, ttl)}
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (*models.SessionRecord, error) {
	rec, ok := s.cache.Get(sessionID)
	if !ok {
		return nil, ErrNotFound
	}
	rec.History = append([]models.Turn(nil), rec.History...)
	return &rec, nil
}

func (s *MemoryStore) Save(_ context.Context, rec *models.SessionRecord) error {
	cp := *rec
	cp.History = append([]models.Turn(nil), rec.History...)
	s.cache.Add(rec.SessionID, cp)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.cache.Remove(sessionID)
	return nil
}

func (s *MemoryStore) Exists(_ context.Context, sessionID string) (bool, error) {
	return s.cache.Contains(sessionID), nil
}

var _ Store = (*MemoryStore)(nil)
