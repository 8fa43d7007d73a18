package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	postgresMaxConns    = 4
	postgresPingTimeout = 5 * time.Second
)

// NewPostgresPool opens a small pool for the session tables. purpose names the
// component that asked for it and prefixes every error.
func NewPostgresPool(ctx context.Context, url, purpose string) (*pgxpool.Pool, error) {
	if url == "" {
		return nil, fmt.Errorf("postgres for %s: DATABASE_URL is required", purpose)
	}

	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("postgres for %s: parse DATABASE_URL: %w", purpose, err)
	}
	// one row per slot key; a handful of connections is plenty
	cfg.MaxConns = postgresMaxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres for %s: connect: %w", purpose, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, postgresPingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres for %s: ping: %w", purpose, err)
	}

	return pool, nil
}
