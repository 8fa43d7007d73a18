package slot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS session_slots (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at TEXT NOT NULL
)`

// SQLiteStore keeps the slot in a local SQLite file, the closest analogue of
// browser local storage.
type SQLiteStore struct {
	db  *sql.DB
	key string
}

// NewSQLiteStore ensures the session_slots table exists and returns a store
// bound to key. The caller owns db.
func NewSQLiteStore(ctx context.Context, db *sql.DB, key string) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlite handle is required")
	}
	if key == "" {
		return nil, fmt.Errorf("slot key is required")
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return nil, fmt.Errorf("create session_slots: %w", err)
	}
	return &SQLiteStore{db: db, key: key}, nil
}

// Read returns the stored value or ErrEmpty.
func (s *SQLiteStore) Read(ctx context.Context) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM session_slots WHERE key = ?`, s.key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, err
	}
	return []byte(value), nil
}

// Write upserts the slot row.
func (s *SQLiteStore) Write(ctx context.Context, value []byte) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO session_slots (key, value, updated_at) VALUES (?, ?, ?)
        ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.key, string(value), time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

// Delete removes the slot row if present.
func (s *SQLiteStore) Delete(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM session_slots WHERE key = ?`, s.key)
	return err
}
