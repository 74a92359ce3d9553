// Package cache holds the primitives shared by the session caches:
// TTL-bounded entries, the metadata block surfaced to tool callers,
// the durable backing store contract and age-ordered eviction.
package cache

import "time"

// Scope names the kind of data an entry holds.
type Scope string

const (
	ScopeWorkspaces Scope = "workspaces"
	ScopeSpaces     Scope = "spaces"
	ScopeFolders    Scope = "folders"
	ScopeLists      Scope = "lists"
	ScopeTasks      Scope = "tasks"
	ScopeSearch     Scope = "search"
	ScopeMembers    Scope = "members"
)

// isoLayout matches the millisecond UTC timestamps tool callers already parse.
const isoLayout = "2006-01-02T15:04:05.000Z"

// Clock returns the current time. Caches take one at construction so
// tests can drive TTL expiry without sleeping.
type Clock func() time.Time

// SystemClock is the wall clock.
func SystemClock() time.Time { return time.Now() }

// Entry is one cached fetch result.
//
// ExpiresAt is always FetchedAt + ttl. An entry is stale once more than
// ttl has elapsed since FetchedAt; stale entries are refreshed, never served.
type Entry[T any] struct {
	Scope     Scope     `json:"scope"`
	Key       string    `json:"key"`
	Items     []T       `json:"items"`
	FetchedAt time.Time `json:"fetchedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// NewEntry stamps items with a fresh fetch time.
func NewEntry[T any](scope Scope, key string, items []T, now time.Time, ttl time.Duration) *Entry[T] {
	if items == nil {
		items = []T{}
	}
	return &Entry[T]{
		Scope:     scope,
		Key:       key,
		Items:     items,
		FetchedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Expired reports whether the entry must be refetched at now.
// A non-positive ttl disables caching, so everything is expired.
func (e *Entry[T]) Expired(now time.Time, ttl time.Duration) bool {
	if e == nil || ttl <= 0 {
		return true
	}
	return now.Sub(e.FetchedAt) > ttl
}

// Metadata describes the entry as seen at now.
func (e *Entry[T]) Metadata(now time.Time, ttl time.Duration) Metadata {
	age := now.Sub(e.FetchedAt)
	if age < 0 {
		age = 0
	}
	return Metadata{
		Scope:       e.Scope,
		Key:         e.Key,
		LastFetched: FormatTime(e.FetchedAt),
		AgeMs:       age.Milliseconds(),
		ExpiresAt:   FormatTime(e.ExpiresAt),
		TTLMs:       ttl.Milliseconds(),
		Stale:       age > ttl,
		TotalItems:  len(e.Items),
	}
}

// Metadata is the cache block attached to every read result.
// Field names are part of the tool output contract.
type Metadata struct {
	Scope       Scope  `json:"scope"`
	Key         string `json:"key"`
	LastFetched string `json:"lastFetched"`
	AgeMs       int64  `json:"ageMs"`
	ExpiresAt   string `json:"expiresAt"`
	TTLMs       int64  `json:"ttlMs"`
	Stale       bool   `json:"stale"`
	TotalItems  int    `json:"totalItems"`
}

// FormatTime renders t as a UTC ISO-8601 timestamp with milliseconds.
func FormatTime(t time.Time) string {
	return t.UTC().Format(isoLayout)
}
