package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// Invalidation scopes accepted by clickup_cache_invalidate.
const (
	scopeAll        = "all"
	scopeWorkspaces = "workspaces"
	scopeSpaces     = "spaces"
	scopeFolders    = "folders"
	scopeLists      = "lists"
	scopeFolder     = "folder_lists"
	scopeListTasks  = "list_tasks"
	scopeTask       = "task"
	scopeSearches   = "searches"
	scopeMembers    = "members"
)

var invalidateScopes = []string{
	scopeAll, scopeWorkspaces, scopeSpaces, scopeFolders, scopeLists,
	scopeFolder, scopeListTasks, scopeTask, scopeSearches, scopeMembers,
}

// ─── clickup_cache_invalidate ────────────────────────────────────────────────

// CacheInvalidateTool drops part of the calling session's cache so the next
// read refetches it. It changes nothing in ClickUp.
type CacheInvalidateTool struct{ deps *Deps }

// NewCacheInvalidateTool creates a CacheInvalidateTool.
func NewCacheInvalidateTool(deps *Deps) *CacheInvalidateTool {
	return &CacheInvalidateTool{deps: deps}
}

// Definition returns the MCP tool definition for registration.
func (t *CacheInvalidateTool) Definition() mcp.Tool {
	return mcp.NewTool("clickup_cache_invalidate",
		mcp.WithDescription(
			"Drop cached data for this session, e.g. after changes made outside this server. "+
				"Scopes: all; workspaces; spaces (id = workspace, optional); folders (id = space, optional); "+
				"lists (id = space: its folderless lists, or all lists without id); folder_lists (id = folder); "+
				"list_tasks (id = list); task (id = task); searches; members (id = workspace, optional).",
		),
		mcp.WithString("scope",
			mcp.Required(),
			mcp.Enum(invalidateScopes...),
			mcp.Description("What to invalidate"),
		),
		mcp.WithString("id", mcp.Description("Id the scope applies to")),
	)
}

// Handle processes the clickup_cache_invalidate tool call.
func (t *CacheInvalidateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	scope := strings.ToLower(strings.TrimSpace(req.GetString("scope", "")))
	id := ""
	if v := optionalString(req, "id"); v != nil {
		id = *v
	}

	if err := t.invalidate(ctx, scope, id); err != nil {
		return errorResult("%v", err)
	}
	t.deps.logger().Debug("cache invalidated", slog.String("scope", scope), slog.String("id", id))

	caches := t.deps.Sessions.For(ctx)
	return jsonResult(map[string]any{
		"scope":     scope,
		"id":        id,
		"hierarchy": caches.Hierarchy.Stats(),
		"tasks":     caches.Tasks.Stats(),
	})
}

func (t *CacheInvalidateTool) invalidate(ctx context.Context, scope, id string) error {
	caches := t.deps.Sessions.For(ctx)
	h, tasks := caches.Hierarchy, caches.Tasks

	needID := func() error {
		if id == "" {
			return fmt.Errorf("scope %q needs an 'id'", scope)
		}
		return nil
	}

	switch scope {
	case scopeAll:
		tasks.Clear()
		caches.Members.Clear("")
		return h.InvalidateWorkspaces(ctx)
	case scopeWorkspaces:
		return h.InvalidateWorkspaces(ctx)
	case scopeSpaces:
		return h.InvalidateSpaces(ctx, id)
	case scopeFolders:
		return h.InvalidateFolders(ctx, id)
	case scopeLists:
		if id == "" {
			return h.InvalidateLists(ctx)
		}
		return h.InvalidateListsForSpace(ctx, id)
	case scopeFolder:
		if err := needID(); err != nil {
			return err
		}
		return h.InvalidateListsForFolder(ctx, id)
	case scopeListTasks:
		if err := needID(); err != nil {
			return err
		}
		tasks.InvalidateList(id)
	case scopeTask:
		if err := needID(); err != nil {
			return err
		}
		tasks.InvalidateTask(id)
	case scopeSearches:
		tasks.InvalidateSearch()
	case scopeMembers:
		caches.Members.Clear(id)
	default:
		return fmt.Errorf("unknown scope %q (want one of %s)", scope, strings.Join(invalidateScopes, ", "))
	}
	return nil
}
