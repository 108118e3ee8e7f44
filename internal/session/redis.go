package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"docchat-platform/models"
	"docchat-platform/utils"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "session:"

// RedisStore keeps histories as brotli-compressed JSON with a sliding TTL
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (*models.SessionRecord, error) {
	data, err := s.rdb.Get(ctx, keyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return decode(data)
}

func (s *RedisStore) Save(ctx context.Context, rec *models.SessionRecord) error {
	data, err := encode(rec)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, keyPrefix+rec.SessionID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	return s.rdb.Del(ctx, keyPrefix+sessionID).Err()
}

func (s *RedisStore) Exists(ctx context.Context, sessionID string) (bool, error) {
	n, err := s.rdb.Exists(ctx, keyPrefix+sessionID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func encode(rec *models.SessionRecord) ([]byte, error) {
	data, err := utils.CompressJSON(rec)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*models.SessionRecord, error) {
	var rec models.SessionRecord
	if err := utils.DecompressJSON(data, &rec); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &rec, nil
}

var _ Store = (*RedisStore)(nil)
