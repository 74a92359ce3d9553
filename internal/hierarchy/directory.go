// Package hierarchy caches the workspace → space → folder → list tree of
// one session, with cascading invalidation and an optional durable store.
package hierarchy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/HendryAvila/clickup-mcp/internal/cache"
	"github.com/HendryAvila/clickup-mcp/internal/clickup"
)

const workspacesKey = "workspaces"

// ErrMissingListScope is returned by EnsureLists when neither a space nor a
// folder is given.
var ErrMissingListScope = errors.New("spaceId or folderId is required")

// Fetch loads one level of the hierarchy from the remote API.
type Fetch[T any] func(ctx context.Context) ([]T, error)

// EnsureOptions tunes a single Ensure call.
type EnsureOptions struct {
	ForceRefresh bool
}

// Result is what every Ensure call returns.
type Result[T any] struct {
	Items    []T            `json:"items"`
	Metadata cache.Metadata `json:"cacheMetadata"`
}

// ListScope selects the lists of a folder, or the folderless lists of a space.
// FolderID wins when both are set.
type ListScope struct {
	SpaceID  string
	FolderID string
}

// Key is the lists map key for the scope.
func (s ListScope) Key() string {
	if s.FolderID != "" {
		return "folder:" + s.FolderID
	}
	return "space:" + s.SpaceID
}

// Config configures a Directory.
type Config struct {
	// TeamID keys the persisted snapshot in Store.
	TeamID string
	// TTL bounds every entry. TTL <= 0 disables caching and persistence.
	TTL time.Duration
	// Store is optional; nil keeps state in memory only.
	Store  cache.Store
	Clock  cache.Clock
	Logger *slog.Logger
}

type node[T any] struct {
	entry *cache.Entry[T]
	ctx   Context
}

// Directory is the hierarchy cache of one session.
//
// The mutex is never held across a fetch or a store call, so concurrent
// requests of one session interleave only at those points.
type Directory struct {
	teamID string
	ttl    time.Duration
	store  cache.Store
	now    cache.Clock
	log    *slog.Logger

	mu         sync.Mutex
	loaded     bool
	workspaces *node[clickup.Workspace]
	spaces     map[string]*node[clickup.Space]
	folders    map[string]*node[clickup.Folder]
	lists      map[string]*node[clickup.List]
}

// New creates an empty Directory.
func New(cfg Config) *Directory {
	now := cfg.Clock
	if now == nil {
		now = cache.SystemClock
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Directory{
		teamID:  cfg.TeamID,
		ttl:     cfg.TTL,
		store:   cfg.Store,
		now:     now,
		log:     logger.With(slog.String("component", "hierarchy")),
		spaces:  make(map[string]*node[clickup.Space]),
		folders: make(map[string]*node[clickup.Folder]),
		lists:   make(map[string]*node[clickup.List]),
	}
}

// TTL returns the configured time-to-live.
func (d *Directory) TTL() time.Duration { return d.ttl }

// persistent reports whether state is written to the backing store.
func (d *Directory) persistent() bool {
	return d.store != nil && d.ttl > 0
}

// storeKey is the backing store key of this team's snapshot.
func (d *Directory) storeKey() string {
	return "hierarchy:" + d.teamID
}

// ─── Ensure ──────────────────────────────────────────────────────────────────

// EnsureWorkspaces returns the cached workspaces, fetching them when absent,
// expired or forced.
func (d *Directory) EnsureWorkspaces(ctx context.Context, fetch Fetch[clickup.Workspace], opts EnsureOptions) (Result[clickup.Workspace], error) {
	return ensure(ctx, d, cache.ScopeWorkspaces, workspacesKey, WorkspaceContext{},
		func() *node[clickup.Workspace] { return d.workspaces },
		func(n *node[clickup.Workspace]) { d.workspaces = n },
		fetch, opts)
}

// EnsureSpaces returns the cached spaces of a workspace.
func (d *Directory) EnsureSpaces(ctx context.Context, workspaceID string, fetch Fetch[clickup.Space], opts EnsureOptions) (Result[clickup.Space], error) {
	return ensure(ctx, d, cache.ScopeSpaces, workspaceID, SpaceContext{WorkspaceID: workspaceID},
		func() *node[clickup.Space] { return d.spaces[workspaceID] },
		func(n *node[clickup.Space]) { d.spaces[workspaceID] = n },
		fetch, opts)
}

// EnsureFolders returns the cached folders of a space.
func (d *Directory) EnsureFolders(ctx context.Context, spaceID string, fetch Fetch[clickup.Folder], opts EnsureOptions) (Result[clickup.Folder], error) {
	return ensure(ctx, d, cache.ScopeFolders, spaceID, FolderContext{SpaceID: spaceID},
		func() *node[clickup.Folder] { return d.folders[spaceID] },
		func(n *node[clickup.Folder]) { d.folders[spaceID] = n },
		fetch, opts)
}

// EnsureLists returns the cached lists of a folder or the folderless lists
// of a space.
func (d *Directory) EnsureLists(ctx context.Context, scope ListScope, fetch Fetch[clickup.List], opts EnsureOptions) (Result[clickup.List], error) {
	if scope.SpaceID == "" && scope.FolderID == "" {
		return Result[clickup.List]{}, ErrMissingListScope
	}
	key := scope.Key()
	return ensure(ctx, d, cache.ScopeLists, key, ListContext{SpaceID: scope.SpaceID, FolderID: scope.FolderID},
		func() *node[clickup.List] { return d.lists[key] },
		func(n *node[clickup.List]) { d.lists[key] = n },
		fetch, opts)
}

func ensure[T any](
	ctx context.Context,
	d *Directory,
	scope cache.Scope,
	key string,
	entryCtx Context,
	lookup func() *node[T],
	put func(*node[T]),
	fetch Fetch[T],
	opts EnsureOptions,
) (Result[T], error) {
	if err := d.load(ctx); err != nil {
		return Result[T]{}, err
	}

	d.mu.Lock()
	now := d.now()
	d.purgeLocked(now)
	if n := lookup(); n != nil && !opts.ForceRefresh && !n.entry.Expired(now, d.ttl) {
		res := Result[T]{Items: n.entry.Items, Metadata: n.entry.Metadata(now, d.ttl)}
		d.mu.Unlock()
		return res, nil
	}
	d.mu.Unlock()

	items, err := fetch(ctx)
	if err != nil {
		return Result[T]{}, err
	}

	d.mu.Lock()
	fetchedAt := d.now()
	n := &node[T]{entry: cache.NewEntry(scope, key, items, fetchedAt, d.ttl), ctx: entryCtx}
	res := Result[T]{Items: n.entry.Items, Metadata: n.entry.Metadata(fetchedAt, d.ttl)}
	if d.ttl <= 0 {
		d.mu.Unlock()
		return res, nil
	}
	put(n)
	snap := d.snapshotLocked()
	d.mu.Unlock()

	d.log.Debug("refreshed", slog.String("scope", string(scope)), slog.String("key", key), slog.Int("items", len(items)))
	if err := d.persist(ctx, snap); err != nil {
		return res, err
	}
	return res, nil
}

// purgeLocked drops every expired entry at every scope.
func (d *Directory) purgeLocked(now time.Time) {
	if d.workspaces != nil && d.workspaces.entry.Expired(now, d.ttl) {
		d.workspaces = nil
	}
	purgeMap(d.spaces, now, d.ttl)
	purgeMap(d.folders, now, d.ttl)
	purgeMap(d.lists, now, d.ttl)
}

func purgeMap[T any](m map[string]*node[T], now time.Time, ttl time.Duration) {
	for k, n := range m {
		if n.entry.Expired(now, ttl) {
			delete(m, k)
		}
	}
}

// ─── Invalidation ────────────────────────────────────────────────────────────

// InvalidateWorkspaces drops the workspaces entry and everything below it.
func (d *Directory) InvalidateWorkspaces(ctx context.Context) error {
	return d.invalidate(ctx, func() bool {
		changed := d.workspaces != nil
		d.workspaces = nil
		if d.invalidateSpacesLocked("") {
			changed = true
		}
		return changed
	})
}

// InvalidateSpaces drops the spaces of one workspace, or of every workspace
// when workspaceID is empty, together with their folders and lists.
func (d *Directory) InvalidateSpaces(ctx context.Context, workspaceID string) error {
	return d.invalidate(ctx, func() bool { return d.invalidateSpacesLocked(workspaceID) })
}

// InvalidateFolders drops the folders of one space, or of every space when
// spaceID is empty.
//
// When folderIDs are named, only the lists of those folders are dropped
// with it: sibling folders keep their cached lists. Otherwise every list
// recorded under the space goes too.
func (d *Directory) InvalidateFolders(ctx context.Context, spaceID string, folderIDs ...string) error {
	return d.invalidate(ctx, func() bool { return d.invalidateFoldersLocked(spaceID, folderIDs) })
}

// InvalidateFolderListing drops only the folders entry of a space. Cached
// lists stay, since adding a folder changes none of them.
func (d *Directory) InvalidateFolderListing(ctx context.Context, spaceID string) error {
	return d.invalidate(ctx, func() bool {
		_, changed := d.dropFoldersLocked(spaceID)
		return changed
	})
}

// InvalidateListsForSpace drops the folderless lists of a space.
func (d *Directory) InvalidateListsForSpace(ctx context.Context, spaceID string) error {
	return d.invalidate(ctx, func() bool { return d.invalidateSpaceListsLocked(spaceID) })
}

// InvalidateListsForFolder drops the lists of a folder.
func (d *Directory) InvalidateListsForFolder(ctx context.Context, folderID string) error {
	return d.invalidate(ctx, func() bool { return d.invalidateFolderListsLocked(folderID) })
}

// InvalidateLists drops every cached list.
func (d *Directory) InvalidateLists(ctx context.Context) error {
	return d.invalidate(ctx, func() bool {
		changed := len(d.lists) > 0
		clear(d.lists)
		return changed
	})
}

// invalidate runs evict under the lock and persists only if it changed state.
func (d *Directory) invalidate(ctx context.Context, evict func() bool) error {
	d.mu.Lock()
	changed := evict()
	var snap *snapshot
	if changed {
		snap = d.snapshotLocked()
	}
	d.mu.Unlock()

	if !changed {
		return nil
	}
	return d.persist(ctx, snap)
}

func (d *Directory) invalidateSpacesLocked(workspaceID string) bool {
	if workspaceID == "" {
		changed := len(d.spaces) > 0
		clear(d.spaces)
		if d.invalidateFoldersLocked("", nil) {
			changed = true
		}
		return changed
	}

	n, ok := d.spaces[workspaceID]
	if !ok {
		return false
	}
	delete(d.spaces, workspaceID)
	for _, space := range n.entry.Items {
		d.invalidateFoldersLocked(space.ID, nil)
	}
	return true
}

func (d *Directory) invalidateFoldersLocked(spaceID string, folderIDs []string) bool {
	if spaceID == "" {
		changed := len(d.folders) > 0 || len(d.lists) > 0
		clear(d.folders)
		clear(d.lists)
		return changed
	}

	known, changed := d.dropFoldersLocked(spaceID)

	if len(folderIDs) > 0 {
		for _, id := range folderIDs {
			if d.invalidateFolderListsLocked(id) {
				changed = true
			}
		}
		return changed
	}

	for key, n := range d.lists {
		if lc, ok := n.ctx.(ListContext); (ok && lc.SpaceID == spaceID) || key == "space:"+spaceID {
			delete(d.lists, key)
			changed = true
		}
	}
	for _, id := range known {
		if d.invalidateFolderListsLocked(id) {
			changed = true
		}
	}
	return changed
}

// dropFoldersLocked removes the folders entries of spaceID and returns the
// folder ids they held.
func (d *Directory) dropFoldersLocked(spaceID string) ([]string, bool) {
	changed := false
	var known []string
	for key, n := range d.folders {
		fc, ok := n.ctx.(FolderContext)
		if key != spaceID && (!ok || fc.SpaceID != spaceID) {
			continue
		}
		for _, f := range n.entry.Items {
			known = append(known, f.ID)
		}
		delete(d.folders, key)
		changed = true
	}
	return known, changed
}

func (d *Directory) invalidateSpaceListsLocked(spaceID string) bool {
	changed := false
	for key, n := range d.lists {
		lc, ok := n.ctx.(ListContext)
		if key == "space:"+spaceID || (ok && lc.FolderID == "" && lc.SpaceID == spaceID) {
			delete(d.lists, key)
			changed = true
		}
	}
	return changed
}

func (d *Directory) invalidateFolderListsLocked(folderID string) bool {
	changed := false
	for key, n := range d.lists {
		lc, ok := n.ctx.(ListContext)
		if key == "folder:"+folderID || (ok && lc.FolderID == folderID) {
			delete(d.lists, key)
			changed = true
		}
	}
	return changed
}

// ─── Stats ───────────────────────────────────────────────────────────────────

// Stats counts the cached entries per scope.
type Stats struct {
	Workspaces int `json:"workspaces"`
	Spaces     int `json:"spaces"`
	Folders    int `json:"folders"`
	Lists      int `json:"lists"`
}

// Stats returns the number of live entries per scope.
func (d *Directory) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.purgeLocked(d.now())
	s := Stats{Spaces: len(d.spaces), Folders: len(d.folders), Lists: len(d.lists)}
	if d.workspaces != nil {
		s.Workspaces = 1
	}
	return s
}

// String is used in log lines.
func (s Stats) String() string {
	return fmt.Sprintf("workspaces=%d spaces=%d folders=%d lists=%d", s.Workspaces, s.Spaces, s.Folders, s.Lists)
}
