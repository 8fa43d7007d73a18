package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisPingTimeout = 2 * time.Second

// NewRedisClient connects to REDIS_URL and verifies it answers. purpose names
// the components sharing the client and prefixes every error.
func NewRedisClient(ctx context.Context, url, purpose string) (*redis.Client, error) {
	if url == "" {
		return nil, fmt.Errorf("redis for %s: REDIS_URL is required", purpose)
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis for %s: parse REDIS_URL: %w", purpose, err)
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis for %s: ping: %w", purpose, err)
	}

	return client, nil
}
