package hierarchy

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/HendryAvila/clickup-mcp/internal/cache"
	"github.com/HendryAvila/clickup-mcp/internal/clickup"
)

type persisted[T any] struct {
	Entry   *cache.Entry[T] `json:"entry"`
	Context contextWire     `json:"context"`
}

// snapshot is the whole directory as written to the backing store.
type snapshot struct {
	Workspaces *persisted[clickup.Workspace]        `json:"workspaces,omitempty"`
	Spaces     map[string]persisted[clickup.Space]  `json:"spaces,omitempty"`
	Folders    map[string]persisted[clickup.Folder] `json:"folders,omitempty"`
	Lists      map[string]persisted[clickup.List]   `json:"lists,omitempty"`
}

func (s *snapshot) empty() bool {
	return s.Workspaces == nil && len(s.Spaces) == 0 && len(s.Folders) == 0 && len(s.Lists) == 0
}

func (d *Directory) snapshotLocked() *snapshot {
	if !d.persistent() {
		return nil
	}
	s := &snapshot{
		Spaces:  toPersisted(d.spaces),
		Folders: toPersisted(d.folders),
		Lists:   toPersisted(d.lists),
	}
	if d.workspaces != nil {
		s.Workspaces = &persisted[clickup.Workspace]{Entry: d.workspaces.entry, Context: toWire(d.workspaces.ctx)}
	}
	return s
}

func toPersisted[T any](m map[string]*node[T]) map[string]persisted[T] {
	out := make(map[string]persisted[T], len(m))
	for k, n := range m {
		out[k] = persisted[T]{Entry: n.entry, Context: toWire(n.ctx)}
	}
	return out
}

// persist writes snap, or deletes the key when nothing is cached any more.
// Store errors are returned as-is.
func (d *Directory) persist(ctx context.Context, snap *snapshot) error {
	if snap == nil || !d.persistent() {
		return nil
	}
	if snap.empty() {
		return d.store.Delete(ctx, d.storeKey())
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding hierarchy snapshot: %w", err)
	}
	return d.store.Set(ctx, d.storeKey(), data, d.ttl)
}

// load merges the persisted snapshot into memory once per Directory.
// Entries already in memory are newer and win; expired entries are skipped.
// A failed read is returned and retried on the next call.
func (d *Directory) load(ctx context.Context) error {
	d.mu.Lock()
	if d.loaded || !d.persistent() {
		d.loaded = true
		d.mu.Unlock()
		return nil
	}
	d.mu.Unlock()

	rec, err := d.store.Get(ctx, d.storeKey())
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.loaded {
		return nil
	}
	d.loaded = true
	if rec == nil {
		return nil
	}

	var snap snapshot
	if err := json.Unmarshal(rec.Value, &snap); err != nil {
		d.log.Warn("ignoring unreadable hierarchy snapshot", slog.String("key", d.storeKey()), slog.Any("error", err))
		return nil
	}

	now := d.now()
	if snap.Workspaces != nil && d.workspaces == nil && !snap.Workspaces.Entry.Expired(now, d.ttl) {
		d.workspaces = &node[clickup.Workspace]{entry: snap.Workspaces.Entry, ctx: fromWire(snap.Workspaces.Context)}
	}
	restore(d.spaces, snap.Spaces, now, d.ttl)
	restore(d.folders, snap.Folders, now, d.ttl)
	restore(d.lists, snap.Lists, now, d.ttl)
	return nil
}

func restore[T any](dst map[string]*node[T], src map[string]persisted[T], now time.Time, ttl time.Duration) {
	for k, p := range src {
		if p.Entry == nil || p.Entry.Expired(now, ttl) {
			continue
		}
		if _, ok := dst[k]; ok {
			continue
		}
		dst[k] = &node[T]{entry: p.Entry, ctx: fromWire(p.Context)}
	}
}
