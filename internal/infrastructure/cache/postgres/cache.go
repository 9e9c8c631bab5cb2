// Package postgres implements the content-addressed TTL cache on the same
// database the stores use. The cache is a pass-through accelerator, not
// primary storage: an expired or missing row is a miss, and concurrent
// writers for the same key are safe because the value is an idempotent
// function of the key.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026080403)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS ai_cache (
	cache_key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ai_cache_expires ON ai_cache(expires_at);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `
SELECT value FROM ai_cache WHERE cache_key = $1 AND expires_at > $2
`, key, time.Now().UTC()).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache get: %w", err)
	}
	return value, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO ai_cache (cache_key, value, expires_at)
VALUES ($1,$2,$3)
ON CONFLICT (cache_key)
DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at
`, key, value, time.Now().UTC().Add(ttl))
	if err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// PurgeExpired removes rows past their TTL. Expiry itself does not depend on
// this; it only reclaims space.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM ai_cache WHERE expires_at <= $1`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("cache purge: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cache purge rows affected: %w", err)
	}
	return n, nil
}
