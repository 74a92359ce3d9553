// Package store provides the durable backing stores the session caches
// persist through: in-memory, atomic JSON files, SQLite, Redis and Postgres.
//
// Every store treats its contents as a cache. Writes are last-write-wins and
// every value carries its own expiry; nothing here is a source of truth.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/clickup-mcp/internal/cache"
)

// Driver names accepted by Open.
const (
	DriverNone     = "none"
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Backend is a cache.Store that owns resources.
type Backend interface {
	cache.Store
	// Purge deletes every entry this store owns.
	Purge(ctx context.Context) error
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Driver string
	// URL is the connection string of the redis and postgres drivers.
	URL string
	// Path is the directory of the file driver or the database file of sqlite.
	Path string
	// Clock drives expiry of the memory, file and sqlite drivers.
	Clock cache.Clock
}

// Open returns the configured backend. DriverNone returns a nil Backend:
// callers keep their caches in memory only.
func Open(ctx context.Context, cfg Config) (Backend, error) {
	switch strings.ToLower(cfg.Driver) {
	case DriverNone:
		return nil, nil
	case "", DriverMemory:
		return NewMemory(cfg.Clock), nil
	case DriverFile:
		return NewFile(cfg.Path, cfg.Clock)
	case DriverSQLite:
		return NewSQLite(cfg.Path, cfg.Clock)
	case DriverRedis:
		return NewRedis(ctx, cfg.URL)
	case DriverPostgres:
		return NewPostgres(ctx, cfg.URL, cfg.Clock)
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

func clockOrSystem(c cache.Clock) cache.Clock {
	if c == nil {
		return cache.SystemClock
	}
	return c
}
