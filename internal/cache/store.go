package cache

import (
	"context"
	"time"
)

// Record is a value read back from a Store.
type Record struct {
	Value     []byte
	ExpiresAt time.Time
}

// Store is the optional durable backing store shared across sessions.
//
// It is only ever treated as a cache: last write wins and every value
// carries its own TTL. Get returns (nil, nil) for absent or expired keys.
type Store interface {
	Get(ctx context.Context, key string) (*Record, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
