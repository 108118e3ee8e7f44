package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"docchat-platform/models"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "job:"

// RedisStore keeps job records as JSON strings with a TTL refreshed on every write
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) Save(ctx context.Context, rec *models.JobRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal job record: %w", err)
	}
	if err := s.rdb.Set(ctx, keyPrefix+rec.SessionID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save job record: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (*models.JobRecord, error) {
	data, err := s.rdb.Get(ctx, keyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, &models.JobNotFoundError{SessionID: sessionID}
	}
	if err != nil {
		return nil, fmt.Errorf("load job record: %w", err)
	}

	var rec models.JobRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode job record: %w", err)
	}
	return &rec, nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	return s.rdb.Del(ctx, keyPrefix+sessionID).Err()
}

var _ Store = (*RedisStore)(nil)
