package cache

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestEntry_ExpiredBoundary(t *testing.T) {
	ttl := time.Minute
	e := NewEntry(ScopeSpaces, "team-1", []string{"a"}, t0, ttl)

	if e.Expired(t0.Add(ttl-time.Millisecond), ttl) {
		t.Error("entry should be fresh one millisecond before the TTL")
	}
	if !e.Expired(t0.Add(ttl+time.Millisecond), ttl) {
		t.Error("entry should be stale one millisecond after the TTL")
	}
	if !e.ExpiresAt.Equal(t0.Add(ttl)) {
		t.Errorf("ExpiresAt = %v, want FetchedAt+ttl", e.ExpiresAt)
	}
}

func TestEntry_DisabledTTLAlwaysExpired(t *testing.T) {
	e := NewEntry(ScopeLists, "k", []int{1}, t0, 0)
	if !e.Expired(t0, 0) {
		t.Error("ttl 0 must treat every read as expired")
	}
	var nilEntry *Entry[int]
	if !nilEntry.Expired(t0, time.Hour) {
		t.Error("absent entry must be expired")
	}
}

func TestEntry_Metadata(t *testing.T) {
	ttl := 5 * time.Minute
	e := NewEntry(ScopeFolders, "space-9", []string{"x", "y"}, t0, ttl)

	got := e.Metadata(t0.Add(1500*time.Millisecond), ttl)
	want := Metadata{
		Scope:       ScopeFolders,
		Key:         "space-9",
		LastFetched: "2026-03-01T12:00:00.000Z",
		AgeMs:       1500,
		ExpiresAt:   "2026-03-01T12:05:00.000Z",
		TTLMs:       300000,
		Stale:       false,
		TotalItems:  2,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Metadata mismatch (-want +got):\n%s", diff)
	}
}

func TestNewEntry_NilItemsBecomeEmpty(t *testing.T) {
	e := NewEntry[string](ScopeWorkspaces, "workspaces", nil, t0, time.Minute)
	if e.Items == nil || len(e.Items) != 0 {
		t.Errorf("Items = %#v, want empty non-nil slice", e.Items)
	}
}

func TestEvictOldest(t *testing.T) {
	m := map[string]time.Time{
		"c": t0.Add(3 * time.Second),
		"a": t0.Add(1 * time.Second),
		"b": t0.Add(2 * time.Second),
		"d": t0.Add(4 * time.Second),
	}
	evicted := EvictOldest(m, 2, func(v time.Time) time.Time { return v })

	if diff := cmp.Diff([]string{"a", "b"}, evicted); diff != "" {
		t.Errorf("evicted mismatch (-want +got):\n%s", diff)
	}
	if len(m) != 2 {
		t.Fatalf("len = %d, want 2", len(m))
	}
	if _, ok := m["d"]; !ok {
		t.Error("newest entry should survive")
	}
}

func TestEvictOldest_Unbounded(t *testing.T) {
	m := map[string]time.Time{"a": t0, "b": t0}
	if got := EvictOldest(m, 0, func(v time.Time) time.Time { return v }); got != nil {
		t.Errorf("evicted = %v, want none", got)
	}
	if len(m) != 2 {
		t.Errorf("len = %d, want 2", len(m))
	}
}
