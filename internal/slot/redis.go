package slot

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisPrefix = "slot:"

// RedisStore keeps the slot in a single Redis string without expiry.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore builds a Redis-backed slot under the given key.
func NewRedisStore(client *redis.Client, key string) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if key == "" {
		return nil, fmt.Errorf("slot key is required")
	}
	return &RedisStore{client: client, key: redisPrefix + key}, nil
}

// Read returns the stored value or ErrEmpty.
func (s *RedisStore) Read(ctx context.Context) ([]byte, error) {
	value, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	return value, nil
}

// Write overwrites the slot.
func (s *RedisStore) Write(ctx context.Context, value []byte) error {
	if err := s.client.Set(ctx, s.key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}

// Delete removes the slot.
func (s *RedisStore) Delete(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", s.key, err)
	}
	return nil
}
