package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/HendryAvila/clickup-mcp/internal/cache"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// SQLite stores entries in a single table of a local database file.
type SQLite struct {
	db  *sql.DB
	now cache.Clock
}

// NewSQLite opens (and creates if needed) the database at path.
func NewSQLite(path string, clock cache.Clock) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("store: sqlite driver needs a database path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("store: create data dir: %w", err)
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	// SQLite performance pragmas
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("store: pragma %q: %w", p, err)
		}
	}

	s := &SQLite{db: db, now: clockOrSystem(clock)}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: migration: %w", err)
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS cache_entries (
			key        TEXT PRIMARY KEY,
			value      BLOB NOT NULL,
			expires_at INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_cache_entries_expires ON cache_entries(expires_at);
	`)
	return err
}

// Get returns the live record for key, or nil. expires_at is Unix
// milliseconds; 0 never expires.
func (s *SQLite) Get(ctx context.Context, key string) (*cache.Record, error) {
	var (
		value     []byte
		expiresMs int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM cache_entries WHERE key = ?`, key,
	).Scan(&value, &expiresMs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get %s: %w", key, err)
	}

	rec := &cache.Record{Value: value}
	if expiresMs > 0 {
		rec.ExpiresAt = time.UnixMilli(expiresMs).UTC()
		if !s.now().Before(rec.ExpiresAt) {
			if _, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ? AND expires_at = ?`, key, expiresMs); err != nil {
				return nil, fmt.Errorf("store: expire %s: %w", key, err)
			}
			return nil, nil
		}
	}
	return rec, nil
}

// Set upserts value under key.
func (s *SQLite) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresMs int64
	if exp := expiry(s.now(), ttl); !exp.IsZero() {
		expiresMs = exp.UnixMilli()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cache_entries (key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, value, expiresMs,
	)
	if err != nil {
		return fmt.Errorf("store: set %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (s *SQLite) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("store: delete %s: %w", key, err)
	}
	return nil
}

// Purge removes every entry.
func (s *SQLite) Purge(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries`); err != nil {
		return fmt.Errorf("store: purge: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
