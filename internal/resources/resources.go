// Package resources implements MCP resource handlers for the ClickUp server.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (clickup://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/clickup-mcp/internal/hierarchy"
	"github.com/HendryAvila/clickup-mcp/internal/session"
	"github.com/HendryAvila/clickup-mcp/internal/taskcache"
)

// CacheStatusURI addresses the calling session's cache status.
const CacheStatusURI = "clickup://cache/status"

// Handler manages ClickUp resource endpoints.
type Handler struct {
	sessions *session.Registry
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(sessions *session.Registry) *Handler {
	return &Handler{sessions: sessions}
}

// CacheStatusResource returns the MCP resource definition for cache status.
func (h *Handler) CacheStatusResource() mcp.Resource {
	return mcp.NewResource(
		CacheStatusURI,
		"ClickUp Cache Status",
		mcp.WithResourceDescription("Entry counts and TTLs of this session's hierarchy, task and member caches"),
		mcp.WithMIMEType("application/json"),
	)
}

type cacheStatus struct {
	Session   string          `json:"session"`
	TTLMs     int64           `json:"ttlMs"`
	Hierarchy hierarchy.Stats `json:"hierarchy"`
	Tasks     taskcache.Stats `json:"tasks"`
	Rosters   int             `json:"memberRosters"`
	Sessions  int             `json:"activeSessions"`
}

// HandleCacheStatus returns the calling session's cache counts as JSON.
func (h *Handler) HandleCacheStatus(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	caches := h.sessions.For(ctx)
	status := cacheStatus{
		Session:   caches.ID,
		TTLMs:     caches.Hierarchy.TTL().Milliseconds(),
		Hierarchy: caches.Hierarchy.Stats(),
		Tasks:     caches.Tasks.Stats(),
		Rosters:   caches.Members.Len(),
		Sessions:  h.sessions.Len(),
	}

	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling cache status: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
