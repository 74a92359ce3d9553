package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/HendryAvila/clickup-mcp/internal/cache"
)

// Postgres stores entries in one table of a shared database, so several
// server processes can share a warm cache.
type Postgres struct {
	db  *sql.DB
	now cache.Clock
}

// NewPostgres opens databaseURL, checks it and creates the table.
func NewPostgres(ctx context.Context, databaseURL string, clock cache.Clock) (*Postgres, error) {
	if databaseURL == "" {
		return nil, errors.New("store: postgres driver needs a database url")
	}
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetMaxIdleConns(2)
	db.SetMaxOpenConns(5)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	p := &Postgres{db: db, now: clockOrSystem(clock)}
	if err := p.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: migration: %w", err)
	}
	return p, nil
}

func (p *Postgres) migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS clickup_cache_entries (
			key        TEXT PRIMARY KEY,
			value      BYTEA NOT NULL,
			expires_at TIMESTAMPTZ
		)`)
	return err
}

// Get returns the live record for key, or nil. Expired rows are left for
// the next Set or Purge; they are never returned.
func (p *Postgres) Get(ctx context.Context, key string) (*cache.Record, error) {
	var (
		value   []byte
		expires sql.NullTime
	)
	err := p.db.QueryRowContext(ctx, `
		SELECT value, expires_at FROM clickup_cache_entries
		WHERE key = $1 AND (expires_at IS NULL OR expires_at > $2)`,
		key, p.now(),
	).Scan(&value, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get %s: %w", key, err)
	}
	rec := &cache.Record{Value: value}
	if expires.Valid {
		rec.ExpiresAt = expires.Time
	}
	return rec, nil
}

// Set upserts value under key.
func (p *Postgres) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expires sql.NullTime
	if exp := expiry(p.now(), ttl); !exp.IsZero() {
		expires = sql.NullTime{Time: exp, Valid: true}
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO clickup_cache_entries (key, value, expires_at) VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at`,
		key, value, expires,
	)
	if err != nil {
		return fmt.Errorf("store: set %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (p *Postgres) Delete(ctx context.Context, key string) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM clickup_cache_entries WHERE key = $1`, key); err != nil {
		return fmt.Errorf("store: delete %s: %w", key, err)
	}
	return nil
}

// Purge removes every entry.
func (p *Postgres) Purge(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM clickup_cache_entries`); err != nil {
		return fmt.Errorf("store: purge: %w", err)
	}
	return nil
}

// Close closes the pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}
