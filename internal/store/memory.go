package store

import (
	"context"
	"sync"
	"time"

	"github.com/HendryAvila/clickup-mcp/internal/cache"
)

// Memory is a process-local store. It gives sessions of one process a
// shared cache without any external service.
type Memory struct {
	now cache.Clock

	mu   sync.Mutex
	data map[string]cache.Record
}

// NewMemory returns an empty Memory store.
func NewMemory(clock cache.Clock) *Memory {
	return &Memory{now: clockOrSystem(clock), data: make(map[string]cache.Record)}
}

// Get returns the live record for key, or nil.
func (m *Memory) Get(_ context.Context, key string) (*cache.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	if !rec.ExpiresAt.IsZero() && !m.now().Before(rec.ExpiresAt) {
		delete(m.data, key)
		return nil, nil
	}
	value := make([]byte, len(rec.Value))
	copy(value, rec.Value)
	return &cache.Record{Value: value, ExpiresAt: rec.ExpiresAt}, nil
}

// Set stores value under key. ttl <= 0 never expires.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]byte, len(value))
	copy(stored, value)
	m.data[key] = cache.Record{Value: stored, ExpiresAt: expiry(m.now(), ttl)}
	return nil
}

// Delete removes key.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Purge removes everything.
func (m *Memory) Purge(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.data)
	return nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

// expiry is now+ttl, or the zero time for ttl <= 0.
func expiry(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}
