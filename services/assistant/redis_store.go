package assistant

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

const sessionKeyPrefix = "chat:sess:"

// RedisSessionStore is the production DurableSessionStore, keeping session
// blobs in Redis with a sliding TTL.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &RedisSessionStore{client: client, ttl: ttl}
}

func (s *RedisSessionStore) GetSessionBlob(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, sessionKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *RedisSessionStore) PutSessionBlob(ctx context.Context, key string, blob []byte) error {
	return s.client.Set(ctx, sessionKeyPrefix+key, blob, s.ttl).Err()
}

func (s *RedisSessionStore) DeleteSessionBlob(ctx context.Context, key string) error {
	return s.client.Del(ctx, sessionKeyPrefix+key).Err()
}
