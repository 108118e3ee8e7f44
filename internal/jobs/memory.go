package jobs

import (
	"context"
	"time"

	"docchat-platform/models"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryStore is a size-bounded, expiring in-process job store
type MemoryStore struct {
	cache *expirable.LRU[string, models.JobRecord]
}

func NewMemoryStore(maxEntries int, ttl time.Duration) *MemoryStore {
	return &MemoryStore{cache: expirable.NewLRU[string, models.JobRecord](maxEntries, nil, ttl)}
}

func (s *MemoryStore) Save(_ context.Context, rec *models.JobRecord) error {
	s.cache.Add(rec.SessionID, *rec)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (*models.JobRecord, error) {
	rec, ok := s.cache.Get(sessionID)
	if !ok {
		return nil, &models.JobNotFoundError{SessionID: sessionID}
	}
	return &rec, nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.cache.Remove(sessionID)
	return nil
}

var _ Store = (*MemoryStore)(nil)
