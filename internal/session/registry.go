// Package session keeps one cache triple per MCP client session.
package session

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/server"

	"github.com/HendryAvila/clickup-mcp/internal/cache"
	"github.com/HendryAvila/clickup-mcp/internal/hierarchy"
	"github.com/HendryAvila/clickup-mcp/internal/members"
	"github.com/HendryAvila/clickup-mcp/internal/taskcache"
)

// Caches is the state owned by one session.
type Caches struct {
	ID        string
	Hierarchy *hierarchy.Directory
	Tasks     *taskcache.Catalogue
	Members   *members.Directory
}

// Config holds what every new session's caches are built from.
type Config struct {
	// TeamID keys the persisted hierarchy snapshot.
	TeamID string
	// Credential scopes member rosters.
	Credential string
	// Store backs the hierarchy snapshot; nil keeps it in memory.
	Store cache.Store
	Tasks taskcache.Config
	Clock cache.Clock
	// Logger defaults to a discarding logger.
	Logger *slog.Logger
}

// Registry creates caches lazily and drops them when a session ends.
type Registry struct {
	cfg      Config
	fallback string
	log      *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Caches
}

// NewRegistry returns an empty registry. Requests without an MCP session,
// such as stdio before initialization, share one process-wide session.
func NewRegistry(cfg Config) *Registry {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	cfg.Logger = logger
	return &Registry{
		cfg:      cfg,
		fallback: "process-" + uuid.NewString(),
		log:      logger.With(slog.String("component", "session")),
		sessions: make(map[string]*Caches),
	}
}

// IDFromContext returns the MCP session id in ctx, or the process
// fallback id.
func (r *Registry) IDFromContext(ctx context.Context) string {
	if s := server.ClientSessionFromContext(ctx); s != nil && s.SessionID() != "" {
		return s.SessionID()
	}
	return r.fallback
}

// For returns the caches of the session in ctx, creating them on first use.
func (r *Registry) For(ctx context.Context) *Caches {
	return r.Get(r.IDFromContext(ctx))
}

// Get returns the caches of session id, creating them on first use.
func (r *Registry) Get(id string) *Caches {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.sessions[id]; ok {
		return c
	}
	c := r.newCaches(id)
	r.sessions[id] = c
	r.log.Debug("session caches created", slog.String("session", id))
	return c
}

func (r *Registry) newCaches(id string) *Caches {
	logger := r.cfg.Logger.With(slog.String("session", id))
	tasksCfg := r.cfg.Tasks
	tasksCfg.Clock = r.cfg.Clock
	tasksCfg.Logger = logger
	return &Caches{
		ID: id,
		Hierarchy: hierarchy.New(hierarchy.Config{
			TeamID: r.cfg.TeamID,
			TTL:    tasksCfg.TTL,
			Store:  r.cfg.Store,
			Clock:  r.cfg.Clock,
			Logger: logger,
		}),
		Tasks: taskcache.New(tasksCfg),
		Members: members.NewDirectory(members.Config{
			Credential: r.cfg.Credential,
			TTL:        tasksCfg.TTL,
			Clock:      r.cfg.Clock,
			Logger:     logger,
		}),
	}
}

// Drop forgets a session's caches. The persisted hierarchy snapshot is
// shared and stays in the store.
func (r *Registry) Drop(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; ok {
		delete(r.sessions, id)
		r.log.Debug("session caches dropped", slog.String("session", id))
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Hooks returns server hooks that drop a session's caches when the
// client disconnects.
func (r *Registry) Hooks() *server.Hooks {
	h := &server.Hooks{}
	h.AddOnUnregisterSession(func(_ context.Context, s server.ClientSession) {
		r.Drop(s.SessionID())
	})
	return h
}
