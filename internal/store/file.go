package store

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/atomic"

	"github.com/HendryAvila/clickup-mcp/internal/cache"
)

const fileSuffix = ".json"

// File keeps one JSON document per key in a directory. Writes go through
// a temp file and rename, so readers never see a partial document.
type File struct {
	dir string
	now cache.Clock
}

type fileRecord struct {
	Key       string    `json:"key"`
	Value     []byte    `json:"value"`
	ExpiresAt time.Time `json:"expiresAt,omitzero"`
}

// NewFile creates dir if needed and returns a File store rooted there.
func NewFile(dir string, clock cache.Clock) (*File, error) {
	if dir == "" {
		return nil, errors.New("store: file driver needs a directory")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("store: create dir: %w", err)
	}
	return &File{dir: dir, now: clockOrSystem(clock)}, nil
}

// path hashes key so any key maps to a safe file name.
func (f *File) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(f.dir, hex.EncodeToString(sum[:16])+fileSuffix)
}

// Get returns the live record for key, or nil. Expired files are removed.
func (f *File) Get(_ context.Context, key string) (*cache.Record, error) {
	p := f.path(key)
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", key, err)
	}

	var rec fileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("store: decode %s: %w", key, err)
	}
	if !rec.ExpiresAt.IsZero() && !f.now().Before(rec.ExpiresAt) {
		_ = os.Remove(p)
		return nil, nil
	}
	return &cache.Record{Value: rec.Value, ExpiresAt: rec.ExpiresAt}, nil
}

// Set writes value under key atomically.
func (f *File) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	data, err := json.Marshal(fileRecord{Key: key, Value: value, ExpiresAt: expiry(f.now(), ttl)})
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", key, err)
	}
	if err := atomic.WriteFile(f.path(key), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("store: write %s: %w", key, err)
	}
	return nil
}

// Delete removes key. A missing key is not an error.
func (f *File) Delete(_ context.Context, key string) error {
	err := os.Remove(f.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("store: delete %s: %w", key, err)
	}
	return nil
}

// Purge removes every entry file in the directory.
func (f *File) Purge(context.Context) error {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return fmt.Errorf("store: list %s: %w", f.dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileSuffix) {
			continue
		}
		if err := os.Remove(filepath.Join(f.dir, e.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("store: purge: %w", err)
		}
	}
	return nil
}

// Close is a no-op.
func (f *File) Close() error { return nil }
