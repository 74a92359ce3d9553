package members

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/HendryAvila/clickup-mcp/internal/cache"
)

// Fetch loads the raw member roster of a team.
type Fetch func(ctx context.Context) ([]map[string]any, error)

// Options tunes Ensure.
type Options struct {
	ForceRefresh bool
}

// SearchOptions tunes Search.
type SearchOptions struct {
	Limit        int
	ForceRefresh bool
}

// SearchResult is a ranked member lookup.
type SearchResult struct {
	Matches  []Match        `json:"matches"`
	Metadata cache.Metadata `json:"cacheMetadata"`
}

// Config configures a Directory.
type Config struct {
	// Credential scopes cached rosters so two tokens never share one.
	// Only a fingerprint of it is kept.
	Credential string
	TTL        time.Duration
	Clock      cache.Clock
	Logger     *slog.Logger
}

type rosterEntry struct {
	entry  *cache.Entry[MemberRecord]
	roster *Roster
}

// Directory caches one roster per (credential, team).
type Directory struct {
	fingerprint string
	ttl         time.Duration
	now         cache.Clock
	log         *slog.Logger

	mu      sync.Mutex
	rosters map[string]*rosterEntry
}

// NewDirectory creates an empty Directory.
func NewDirectory(cfg Config) *Directory {
	now := cfg.Clock
	if now == nil {
		now = cache.SystemClock
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	sum := sha256.Sum256([]byte(cfg.Credential))
	return &Directory{
		fingerprint: hex.EncodeToString(sum[:8]),
		ttl:         cfg.TTL,
		now:         now,
		log:         logger.With(slog.String("component", "members")),
		rosters:     make(map[string]*rosterEntry),
	}
}

func (d *Directory) key(teamID string) string {
	return d.fingerprint + ":" + teamID
}

// Ensure returns the team's roster, fetching it when absent, expired or
// forced. Fetch errors are returned unchanged.
func (d *Directory) Ensure(ctx context.Context, teamID string, fetch Fetch, opts Options) (*Roster, cache.Metadata, error) {
	key := d.key(teamID)

	d.mu.Lock()
	now := d.now()
	if e, ok := d.rosters[key]; ok {
		if !opts.ForceRefresh && !e.entry.Expired(now, d.ttl) {
			meta := e.entry.Metadata(now, d.ttl)
			d.mu.Unlock()
			return e.roster, meta, nil
		}
		if e.entry.Expired(now, d.ttl) {
			delete(d.rosters, key)
		}
	}
	d.mu.Unlock()

	raw, err := fetch(ctx)
	if err != nil {
		return nil, cache.Metadata{}, err
	}
	members := Prepare(raw)
	roster := NewRoster(members)

	d.mu.Lock()
	defer d.mu.Unlock()
	fetchedAt := d.now()
	e := &rosterEntry{
		entry:  cache.NewEntry(cache.ScopeMembers, teamID, members, fetchedAt, d.ttl),
		roster: roster,
	}
	if d.ttl > 0 {
		d.rosters[key] = e
	}
	d.log.Debug("loaded roster", slog.String("team", teamID), slog.Int("members", len(members)))
	return roster, e.entry.Metadata(fetchedAt, d.ttl), nil
}

// Search ranks the team's members against query.
func (d *Directory) Search(ctx context.Context, teamID, query string, fetch Fetch, opts SearchOptions) (SearchResult, error) {
	roster, meta, err := d.Ensure(ctx, teamID, fetch, Options{ForceRefresh: opts.ForceRefresh})
	if err != nil {
		return SearchResult{}, err
	}
	matches := Rank(roster, query, opts.Limit)
	if matches == nil {
		matches = []Match{}
	}
	return SearchResult{Matches: matches, Metadata: meta}, nil
}

// Clear drops the roster of teamID, or every roster when teamID is empty.
func (d *Directory) Clear(teamID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if teamID == "" {
		clear(d.rosters)
		return
	}
	delete(d.rosters, d.key(teamID))
}

// Len reports the number of cached rosters.
func (d *Directory) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	now := d.now()
	for k, e := range d.rosters {
		if e.entry.Expired(now, d.ttl) {
			delete(d.rosters, k)
			continue
		}
		n++
	}
	return n
}

// Unique reports whether matches has a single best candidate.
func Unique(matches []Match) bool {
	switch len(matches) {
	case 0:
		return false
	case 1:
		return true
	default:
		return matches[0].Score < matches[1].Score
	}
}
