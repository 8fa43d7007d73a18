package infra

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/citizen-portal/citizen_portal/internal/config"
	"github.com/citizen-portal/citizen_portal/internal/slot"
)

// Resources holds the external connections a process opened. Any field may be
// nil when the configuration does not call for it.
type Resources struct {
	DB    *pgxpool.Pool
	Cache *redis.Client
	Local *sql.DB
}

// Open connects to every backend the configuration names. Redis is opened
// whenever REDIS_URL is set because rate limiting and idempotency use it too.
func Open(ctx context.Context, cfg config.Config) (*Resources, error) {
	res := &Resources{}

	if cfg.SlotBackend == config.SlotPostgres || cfg.DatabaseURL != "" {
		purpose := "health checks"
		if cfg.SlotBackend == config.SlotPostgres {
			purpose = "session slot"
		}
		db, err := NewPostgresPool(ctx, cfg.DatabaseURL, purpose)
		if err != nil {
			return nil, err
		}
		res.DB = db
	}

	if cfg.RedisURL != "" {
		purpose := "rate limiting and idempotency"
		if cfg.SlotBackend == config.SlotRedis {
			purpose = "session slot, rate limiting and idempotency"
		}
		cache, err := NewRedisClient(ctx, cfg.RedisURL, purpose)
		if err != nil {
			res.Close()
			return nil, err
		}
		res.Cache = cache
	}

	if cfg.SlotBackend == config.SlotSQLite {
		local, err := NewSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			res.Close()
			return nil, err
		}
		res.Local = local
	}

	return res, nil
}

// Slot builds the durable slot selected by SLOT_BACKEND.
func (r *Resources) Slot(ctx context.Context, cfg config.Config) (slot.Store, error) {
	switch cfg.SlotBackend {
	case config.SlotMemory:
		return slot.NewMemory(), nil
	case config.SlotSQLite:
		return slot.NewSQLiteStore(ctx, r.Local, cfg.SlotKey)
	case config.SlotRedis:
		return slot.NewRedisStore(r.Cache, cfg.SlotKey)
	case config.SlotPostgres:
		return slot.NewPostgresStore(ctx, r.DB, cfg.SlotKey)
	default:
		return nil, fmt.Errorf("unknown slot backend %q", cfg.SlotBackend)
	}
}

// Close releases every open connection.
func (r *Resources) Close() error {
	var errs []error
	if r.DB != nil {
		r.DB.Close()
	}
	if r.Cache != nil {
		if err := r.Cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if r.Local != nil {
		if err := r.Local.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close sqlite: %w", err))
		}
	}
	return errors.Join(errs...)
}
