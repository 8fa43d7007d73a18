package slot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `CREATE TABLE IF NOT EXISTS session_slots (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
)`

// PostgresStore keeps the slot as one row of the session_slots table.
type PostgresStore struct {
	db  *pgxpool.Pool
	key string
}

// NewPostgresStore ensures the session_slots table exists and returns a store
// bound to key.
func NewPostgresStore(ctx context.Context, db *pgxpool.Pool, key string) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("postgres pool is required")
	}
	if key == "" {
		return nil, fmt.Errorf("slot key is required")
	}
	if _, err := db.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("create session_slots: %w", err)
	}
	return &PostgresStore{db: db, key: key}, nil
}

// Read returns the stored value or ErrEmpty.
func (s *PostgresStore) Read(ctx context.Context) ([]byte, error) {
	var value string
	err := s.db.QueryRow(ctx, `SELECT value FROM session_slots WHERE key = $1`, s.key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, err
	}
	return []byte(value), nil
}

// Write upserts the slot row.
func (s *PostgresStore) Write(ctx context.Context, value []byte) error {
	_, err := s.db.Exec(ctx, `INSERT INTO session_slots (key, value, updated_at) VALUES ($1, $2, $3)
        ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		s.key, string(value), time.Now().UTC())
	return err
}

// Delete removes the slot row if present.
func (s *PostgresStore) Delete(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DELETE FROM session_slots WHERE key = $1`, s.key)
	return err
}
