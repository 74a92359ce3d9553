package taskcache

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/HendryAvila/clickup-mcp/internal/cache"
	"github.com/HendryAvila/clickup-mcp/internal/clickup"
)

// Default map bounds, used when the corresponding Config field is zero.
const (
	DefaultMaxListPages = 200
	DefaultMaxSearches  = 100
	DefaultMaxContexts  = 100
	DefaultMaxRecords   = 5000
)

// Config configures a Catalogue. Negative Max* values disable the bound.
type Config struct {
	TTL          time.Duration
	MaxListPages int
	MaxSearches  int
	MaxContexts  int
	MaxRecords   int
	Clock        cache.Clock
	Logger       *slog.Logger
	// OnIndexBuild is called after every search index rebuild.
	OnIndexBuild func(records int)
}

// ListPage is one cached page of a list's tasks. Entry.Items holds the
// normalized records; Tasks holds the decoded API payload.
// Callers must treat it as read-only.
type ListPage struct {
	ListID   string
	Filters  ListFilters
	Page     int
	Tasks    []clickup.Task
	LastPage bool
	Entry    *cache.Entry[TaskRecord]
}

// SearchEntry is one cached search result with its fuzzy index.
// Callers must treat it as read-only.
type SearchEntry struct {
	TeamID    string
	Tasks     []clickup.Task
	Signature string
	Index     *SearchIndex
	Entry     *cache.Entry[TaskRecord]
}

// PageFetch loads one list page from the API.
type PageFetch func(ctx context.Context) (tasks []clickup.Task, lastPage bool, err error)

// SearchFetch loads the task set a search runs over.
type SearchFetch func(ctx context.Context) ([]clickup.Task, error)

type contextEntry struct {
	index     *SearchIndex
	fetchedAt time.Time
}

type recordEntry struct {
	record    TaskRecord
	fetchedAt time.Time
}

// Catalogue caches list pages, search results, context indexes and a
// reverse id → record lookup for one session. It is safe for concurrent
// use; the lock is never held across a fetch.
type Catalogue struct {
	ttl     time.Duration
	limits  Stats
	now     cache.Clock
	log     *slog.Logger
	onBuild func(int)

	mu       sync.Mutex
	lists    map[string]*ListPage
	searches map[string]*SearchEntry
	contexts map[string]*contextEntry
	records  map[string]recordEntry
}

// New creates an empty Catalogue.
func New(cfg Config) *Catalogue {
	now := cfg.Clock
	if now == nil {
		now = cache.SystemClock
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Catalogue{
		ttl: cfg.TTL,
		limits: Stats{
			ListPages: orDefault(cfg.MaxListPages, DefaultMaxListPages),
			Searches:  orDefault(cfg.MaxSearches, DefaultMaxSearches),
			Contexts:  orDefault(cfg.MaxContexts, DefaultMaxContexts),
			Records:   orDefault(cfg.MaxRecords, DefaultMaxRecords),
		},
		now:      now,
		log:      logger.With(slog.String("component", "taskcache")),
		onBuild:  cfg.OnIndexBuild,
		lists:    make(map[string]*ListPage),
		searches: make(map[string]*SearchEntry),
		contexts: make(map[string]*contextEntry),
		records:  make(map[string]recordEntry),
	}
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

// TTL returns the configured time-to-live.
func (c *Catalogue) TTL() time.Duration { return c.ttl }

func (c *Catalogue) expired(fetchedAt time.Time, now time.Time) bool {
	return c.ttl <= 0 || now.Sub(fetchedAt) > c.ttl
}

// ─── List pages ──────────────────────────────────────────────────────────────

// GetListPage returns the cached page, or false when absent or expired.
func (c *Catalogue) GetListPage(listID string, f ListFilters, page int) (*ListPage, cache.Metadata, bool) {
	key := ListKey(listID, f, page)
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	p, ok := c.lists[key]
	if !ok {
		return nil, cache.Metadata{}, false
	}
	if p.Entry.Expired(now, c.ttl) {
		delete(c.lists, key)
		return nil, cache.Metadata{}, false
	}
	return p, p.Entry.Metadata(now, c.ttl), true
}

// StoreListPage caches a freshly fetched page and remembers its tasks in
// the reverse lookup. With caching disabled the page is returned unstored.
func (c *Catalogue) StoreListPage(listID string, f ListFilters, page int, tasks []clickup.Task, lastPage bool) (*ListPage, cache.Metadata) {
	key := ListKey(listID, f, page)
	records := RecordsFromTasks(tasks)

	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	p := &ListPage{
		ListID:   listID,
		Filters:  f,
		Page:     page,
		Tasks:    tasks,
		LastPage: lastPage,
		Entry:    cache.NewEntry(cache.ScopeTasks, key, records, now, c.ttl),
	}
	meta := p.Entry.Metadata(now, c.ttl)
	if c.ttl <= 0 {
		return p, meta
	}
	c.lists[key] = p
	c.rememberLocked(records, now)
	if ev := cache.EvictOldest(c.lists, c.limits.ListPages, func(p *ListPage) time.Time { return p.Entry.FetchedAt }); len(ev) > 0 {
		c.log.Debug("evicted list pages", slog.Int("count", len(ev)))
	}
	return p, meta
}

// EnsureListPage serves the page from cache or fetches and stores it.
// Fetch errors are returned unchanged and leave the cache untouched.
func (c *Catalogue) EnsureListPage(ctx context.Context, listID string, f ListFilters, page int, fetch PageFetch, force bool) (*ListPage, cache.Metadata, error) {
	if !force {
		if p, meta, ok := c.GetListPage(listID, f, page); ok {
			return p, meta, nil
		}
	}
	tasks, last, err := fetch(ctx)
	if err != nil {
		return nil, cache.Metadata{}, err
	}
	p, meta := c.StoreListPage(listID, f, page, tasks, last)
	return p, meta, nil
}

// ─── Searches ────────────────────────────────────────────────────────────────

// GetSearchEntry returns the cached search, or false when absent or expired.
func (c *Catalogue) GetSearchEntry(teamID string, params map[string]any) (*SearchEntry, cache.Metadata, bool) {
	key := SearchKey(teamID, params)
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	e, ok := c.searches[key]
	if !ok {
		return nil, cache.Metadata{}, false
	}
	if e.Entry.Expired(now, c.ttl) {
		delete(c.searches, key)
		return nil, cache.Metadata{}, false
	}
	return e, e.Entry.Metadata(now, c.ttl), true
}

// StoreSearchEntry caches a search result. When another result with the
// same task ids already built an index, that index is reused.
func (c *Catalogue) StoreSearchEntry(teamID string, params map[string]any, tasks []clickup.Task) (*SearchEntry, cache.Metadata) {
	key := SearchKey(teamID, params)
	records := RecordsFromTasks(tasks)
	sig := BuildSignature(records)

	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	e := &SearchEntry{
		TeamID:    teamID,
		Tasks:     tasks,
		Signature: sig,
		Index:     c.contextIndexLocked(sig, records, now),
		Entry:     cache.NewEntry(cache.ScopeSearch, key, records, now, c.ttl),
	}
	meta := e.Entry.Metadata(now, c.ttl)
	if c.ttl <= 0 {
		return e, meta
	}
	c.searches[key] = e
	c.rememberLocked(records, now)
	cache.EvictOldest(c.searches, c.limits.Searches, func(e *SearchEntry) time.Time { return e.Entry.FetchedAt })
	return e, meta
}

// EnsureSearch serves the search from cache or fetches and stores it.
func (c *Catalogue) EnsureSearch(ctx context.Context, teamID string, params map[string]any, fetch SearchFetch, force bool) (*SearchEntry, cache.Metadata, error) {
	if !force {
		if e, meta, ok := c.GetSearchEntry(teamID, params); ok {
			return e, meta, nil
		}
	}
	tasks, err := fetch(ctx)
	if err != nil {
		return nil, cache.Metadata{}, err
	}
	e, meta := c.StoreSearchEntry(teamID, params, tasks)
	return e, meta, nil
}

// ─── Context indexes ─────────────────────────────────────────────────────────

// GetContextIndex returns the index registered under signature.
func (c *Catalogue) GetContextIndex(signature string) (*SearchIndex, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.contexts[signature]
	if !ok {
		return nil, false
	}
	if c.expired(e.fetchedAt, c.now()) {
		delete(c.contexts, signature)
		return nil, false
	}
	return e.index, true
}

// StoreContextIndex registers ix under signature.
func (c *Catalogue) StoreContextIndex(signature string, ix *SearchIndex) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.storeContextLocked(signature, ix, c.now())
}

// ContextIndex returns the index for records, building and registering it
// only when no index with the same signature is cached.
func (c *Catalogue) ContextIndex(records []TaskRecord) *SearchIndex {
	sig := BuildSignature(records)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.contextIndexLocked(sig, records, c.now())
}

// NewIndex builds a standalone index over records.
func (c *Catalogue) NewIndex(records []TaskRecord) *SearchIndex {
	ix := NewSearchIndex(c.onBuild)
	ix.Index(records)
	return ix
}

func (c *Catalogue) contextIndexLocked(sig string, records []TaskRecord, now time.Time) *SearchIndex {
	if e, ok := c.contexts[sig]; ok && !c.expired(e.fetchedAt, now) {
		return e.index
	}
	ix := c.NewIndex(records)
	c.storeContextLocked(sig, ix, now)
	return ix
}

func (c *Catalogue) storeContextLocked(sig string, ix *SearchIndex, now time.Time) {
	if c.ttl <= 0 || sig == "" {
		return
	}
	c.contexts[sig] = &contextEntry{index: ix, fetchedAt: now}
	cache.EvictOldest(c.contexts, c.limits.Contexts, func(e *contextEntry) time.Time { return e.fetchedAt })
}

// ─── Reverse lookup ──────────────────────────────────────────────────────────

// LookupTask returns the most recently seen record for id.
func (c *Catalogue) LookupTask(id string) (TaskRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.records[id]
	if !ok {
		return TaskRecord{}, false
	}
	if c.expired(e.fetchedAt, c.now()) {
		delete(c.records, id)
		return TaskRecord{}, false
	}
	return e.record, true
}

// Remember adds records to the reverse lookup, for example after a single
// task fetch.
func (c *Catalogue) Remember(records ...TaskRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ttl <= 0 {
		return
	}
	c.rememberLocked(records, c.now())
}

func (c *Catalogue) rememberLocked(records []TaskRecord, now time.Time) {
	for _, r := range records {
		if r.ID != "" {
			c.records[r.ID] = recordEntry{record: r, fetchedAt: now}
		}
	}
	cache.EvictOldest(c.records, c.limits.Records, func(e recordEntry) time.Time { return e.fetchedAt })
}

// ─── Invalidation ────────────────────────────────────────────────────────────

// InvalidateTask drops every list page, search result and context index
// that contains taskID, and its reverse lookup entry.
func (c *Catalogue) InvalidateTask(taskID string) {
	if taskID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, p := range c.lists {
		if hasRecord(p.Entry.Items, taskID) {
			delete(c.lists, key)
		}
	}
	for key, e := range c.searches {
		if hasRecord(e.Entry.Items, taskID) {
			delete(c.searches, key)
			delete(c.contexts, e.Signature)
		}
	}
	for sig, e := range c.contexts {
		if e.index.contains(taskID) {
			delete(c.contexts, sig)
		}
	}
	delete(c.records, taskID)
	c.log.Debug("invalidated task", slog.String("task", taskID))
}

// InvalidateList drops the pages of listID and every context index that
// holds a task of that list.
func (c *Catalogue) InvalidateList(listID string) {
	if listID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, p := range c.lists {
		if p.ListID == listID {
			delete(c.lists, key)
		}
	}
	for sig, e := range c.contexts {
		if e.index.referencesList(listID) {
			delete(c.contexts, sig)
		}
	}
	c.log.Debug("invalidated list", slog.String("list", listID))
}

// ForgetList invalidates listID and also drops the reverse lookup of every
// task recorded in it. Use it when the list itself is gone.
func (c *Catalogue) ForgetList(listID string) {
	if listID == "" {
		return
	}
	c.mu.Lock()
	gone := make(map[string]bool)
	for _, p := range c.lists {
		if p.ListID == listID {
			for _, r := range p.Entry.Items {
				gone[r.ID] = true
			}
		}
	}
	for id, e := range c.records {
		if gone[id] || e.record.ListID == listID {
			delete(c.records, id)
		}
	}
	c.mu.Unlock()

	c.InvalidateList(listID)
}

// InvalidateSearch drops every cached search result.
func (c *Catalogue) InvalidateSearch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.searches)
}

// Clear drops everything.
func (c *Catalogue) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.lists)
	clear(c.searches)
	clear(c.contexts)
	clear(c.records)
}

func hasRecord(records []TaskRecord, id string) bool {
	return slices.ContainsFunc(records, func(r TaskRecord) bool { return r.ID == id })
}

// ─── Stats ───────────────────────────────────────────────────────────────────

// Stats counts live entries per map.
type Stats struct {
	ListPages int `json:"listPages"`
	Searches  int `json:"searches"`
	Contexts  int `json:"contexts"`
	Records   int `json:"records"`
}

// Stats purges expired entries and returns the remaining counts.
func (c *Catalogue) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for k, p := range c.lists {
		if p.Entry.Expired(now, c.ttl) {
			delete(c.lists, k)
		}
	}
	for k, e := range c.searches {
		if e.Entry.Expired(now, c.ttl) {
			delete(c.searches, k)
		}
	}
	for k, e := range c.contexts {
		if c.expired(e.fetchedAt, now) {
			delete(c.contexts, k)
		}
	}
	for k, e := range c.records {
		if c.expired(e.fetchedAt, now) {
			delete(c.records, k)
		}
	}
	return Stats{
		ListPages: len(c.lists),
		Searches:  len(c.searches),
		Contexts:  len(c.contexts),
		Records:   len(c.records),
	}
}
