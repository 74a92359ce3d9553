package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/HendryAvila/clickup-mcp/internal/cache"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)}
}

// exercise runs the behaviour every backend shares. advance moves the
// backend's notion of time forward.
func exercise(t *testing.T, s Backend, advance func(time.Duration)) {
	t.Helper()
	ctx := context.Background()

	rec, err := s.Get(ctx, "hierarchy:missing")
	if err != nil || rec != nil {
		t.Fatalf("Get(missing) = %v, %v; want nil, nil", rec, err)
	}

	if err := s.Set(ctx, "hierarchy:1", []byte(`{"v":1}`), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, "hierarchy:1", []byte(`{"v":2}`), time.Minute); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	rec, err = s.Get(ctx, "hierarchy:1")
	if err != nil || rec == nil {
		t.Fatalf("Get = %v, %v", rec, err)
	}
	if string(rec.Value) != `{"v":2}` {
		t.Errorf("value = %s, want last write", rec.Value)
	}
	if rec.ExpiresAt.IsZero() {
		t.Error("ExpiresAt should be set for a positive ttl")
	}

	if err := s.Set(ctx, "forever", []byte("x"), 0); err != nil {
		t.Fatalf("Set forever: %v", err)
	}

	advance(2 * time.Minute)
	if rec, err := s.Get(ctx, "hierarchy:1"); err != nil || rec != nil {
		t.Errorf("Get after expiry = %v, %v; want nil", rec, err)
	}
	if rec, err := s.Get(ctx, "forever"); err != nil || rec == nil {
		t.Errorf("Get(forever) = %v, %v; want a record", rec, err)
	}

	if err := s.Delete(ctx, "forever"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "forever"); err != nil {
		t.Errorf("Delete of a missing key: %v", err)
	}
	if rec, _ := s.Get(ctx, "forever"); rec != nil {
		t.Error("deleted key still readable")
	}

	for _, k := range []string{"a", "b"} {
		if err := s.Set(ctx, k, []byte(k), time.Hour); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Purge(ctx); err != nil {
		t.Fatalf("Purge: %v", err)
	}
	for _, k := range []string{"a", "b"} {
		if rec, _ := s.Get(ctx, k); rec != nil {
			t.Errorf("%s survived Purge", k)
		}
	}
}

func TestMemory(t *testing.T) {
	clock := newClock()
	exercise(t, NewMemory(clock.now), func(d time.Duration) { clock.t = clock.t.Add(d) })
}

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(nil)
	buf := []byte("abc")
	_ = m.Set(ctx, "k", buf, time.Minute)
	buf[0] = 'z'

	rec, _ := m.Get(ctx, "k")
	if string(rec.Value) != "abc" {
		t.Errorf("stored value changed with caller's buffer: %s", rec.Value)
	}
}

func TestFile(t *testing.T) {
	clock := newClock()
	s, err := NewFile(t.TempDir(), clock.now)
	if err != nil {
		t.Fatal(err)
	}
	exercise(t, s, func(d time.Duration) { clock.t = clock.t.Add(d) })
}

func TestFile_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	first, _ := NewFile(dir, nil)
	if err := first.Set(ctx, "hierarchy:team", []byte("snap"), time.Hour); err != nil {
		t.Fatal(err)
	}

	second, _ := NewFile(dir, nil)
	rec, err := second.Get(ctx, "hierarchy:team")
	if err != nil || rec == nil || string(rec.Value) != "snap" {
		t.Errorf("Get after reopen = %v, %v", rec, err)
	}
}

func TestFile_CorruptDocumentIsAnError(t *testing.T) {
	s, _ := NewFile(t.TempDir(), nil)
	if err := os.WriteFile(s.path("k"), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(context.Background(), "k"); err == nil {
		t.Error("expected a decode error")
	}
}

func TestSQLite(t *testing.T) {
	clock := newClock()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "cache.db"), clock.now)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	exercise(t, s, func(d time.Duration) { clock.t = clock.t.Add(d) })
}

func TestSQLite_OpenError(t *testing.T) {
	orig := openDB
	t.Cleanup(func() { openDB = orig })
	openDB = func(string, string) (*sql.DB, error) { return nil, errors.New("disk on fire") }

	if _, err := NewSQLite(filepath.Join(t.TempDir(), "x.db"), nil); err == nil {
		t.Error("expected the open error to surface")
	}
}

func TestRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisWithClient(client)
	t.Cleanup(func() { _ = s.Close() })

	exercise(t, s, mr.FastForward)

	if err := s.Set(context.Background(), "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if !mr.Exists(redisPrefix + "k") {
		t.Error("keys should carry the store prefix")
	}
}

func TestPostgres(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	clock := newClock()
	s, err := NewPostgres(context.Background(), url, clock.now)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = s.Purge(context.Background())
		_ = s.Close()
	})
	exercise(t, s, func(d time.Duration) { clock.t = clock.t.Add(d) })
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		cfg     Config
		wantNil bool
		wantErr bool
	}{
		{cfg: Config{Driver: DriverNone}, wantNil: true},
		{cfg: Config{}},
		{cfg: Config{Driver: "FILE", Path: filepath.Join(dir, "files")}},
		{cfg: Config{Driver: DriverSQLite, Path: filepath.Join(dir, "c.db")}},
		{cfg: Config{Driver: DriverSQLite}, wantErr: true},
		{cfg: Config{Driver: "etcd"}, wantErr: true},
	}
	for _, tt := range tests {
		b, err := Open(ctx, tt.cfg)
		if (err != nil) != tt.wantErr {
			t.Errorf("Open(%+v) err = %v", tt.cfg, err)
			continue
		}
		if tt.wantErr {
			continue
		}
		if (b == nil) != tt.wantNil {
			t.Errorf("Open(%+v) = %v", tt.cfg, b)
		}
		if b != nil {
			var _ cache.Store = b
			_ = b.Close()
		}
	}
}
