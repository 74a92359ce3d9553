package tools

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/clickup-mcp/internal/cache"
	"github.com/HendryAvila/clickup-mcp/internal/clickup"
	"github.com/HendryAvila/clickup-mcp/internal/hierarchy"
)

// listing is the output shape of every hierarchy read tool.
type listing[T any] struct {
	Items    []T            `json:"items"`
	Metadata cache.Metadata `json:"cacheMetadata"`
}

func listingOf[T any](r hierarchy.Result[T]) listing[T] {
	items := r.Items
	if items == nil {
		items = []T{}
	}
	return listing[T]{Items: items, Metadata: r.Metadata}
}

// ─── clickup_list_workspaces ─────────────────────────────────────────────────

// ListWorkspacesTool lists the workspaces the token can access.
type ListWorkspacesTool struct{ deps *Deps }

// NewListWorkspacesTool creates a ListWorkspacesTool.
func NewListWorkspacesTool(deps *Deps) *ListWorkspacesTool {
	return &ListWorkspacesTool{deps: deps}
}

// Definition returns the MCP tool definition for registration.
func (t *ListWorkspacesTool) Definition() mcp.Tool {
	return mcp.NewTool("clickup_list_workspaces",
		mcp.WithDescription("List the ClickUp workspaces (teams) available to the configured token."),
		withForceRefresh(),
	)
}

// Handle processes the clickup_list_workspaces tool call.
func (t *ListWorkspacesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir := t.deps.Sessions.For(ctx).Hierarchy
	res, err := dir.EnsureWorkspaces(ctx, t.deps.API.GetWorkspaces, forceRefresh(req))
	if err != nil {
		return errorResult("failed to list workspaces: %v", err)
	}
	return jsonResult(listingOf(res))
}

// ─── clickup_list_spaces ─────────────────────────────────────────────────────

// ListSpacesTool lists the spaces of a workspace.
type ListSpacesTool struct{ deps *Deps }

// NewListSpacesTool creates a ListSpacesTool.
func NewListSpacesTool(deps *Deps) *ListSpacesTool {
	return &ListSpacesTool{deps: deps}
}

// Definition returns the MCP tool definition for registration.
func (t *ListSpacesTool) Definition() mcp.Tool {
	return mcp.NewTool("clickup_list_spaces",
		mcp.WithDescription("List the spaces of a workspace."),
		withWorkspaceID(),
		withForceRefresh(),
	)
}

// Handle processes the clickup_list_spaces tool call.
func (t *ListSpacesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	teamID, err := t.deps.teamID(req)
	if err != nil {
		return errorResult("%v", err)
	}
	fetch := func(ctx context.Context) ([]clickup.Space, error) {
		return t.deps.API.GetSpaces(ctx, teamID)
	}
	res, err := t.deps.Sessions.For(ctx).Hierarchy.EnsureSpaces(ctx, teamID, fetch, forceRefresh(req))
	if err != nil {
		return errorResult("failed to list spaces: %v", err)
	}
	return jsonResult(listingOf(res))
}

// ─── clickup_list_folders ────────────────────────────────────────────────────

// ListFoldersTool lists the folders of a space.
type ListFoldersTool struct{ deps *Deps }

// NewListFoldersTool creates a ListFoldersTool.
func NewListFoldersTool(deps *Deps) *ListFoldersTool {
	return &ListFoldersTool{deps: deps}
}

// Definition returns the MCP tool definition for registration.
func (t *ListFoldersTool) Definition() mcp.Tool {
	return mcp.NewTool("clickup_list_folders",
		mcp.WithDescription("List the folders of a space, each with its lists."),
		mcp.WithString("space_id", mcp.Required(), mcp.Description("Space id")),
		withForceRefresh(),
	)
}

// Handle processes the clickup_list_folders tool call.
func (t *ListFoldersTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	spaceID := strings.TrimSpace(req.GetString("space_id", ""))
	if spaceID == "" {
		return errorResult("'space_id' is required")
	}
	fetch := func(ctx context.Context) ([]clickup.Folder, error) {
		return t.deps.API.GetFolders(ctx, spaceID)
	}
	res, err := t.deps.Sessions.For(ctx).Hierarchy.EnsureFolders(ctx, spaceID, fetch, forceRefresh(req))
	if err != nil {
		return errorResult("failed to list folders: %v", err)
	}
	return jsonResult(listingOf(res))
}

// ─── clickup_list_lists ──────────────────────────────────────────────────────

// ListListsTool lists the lists of a folder, or the folderless lists of a
// space when no folder is named.
type ListListsTool struct{ deps *Deps }

// NewListListsTool creates a ListListsTool.
func NewListListsTool(deps *Deps) *ListListsTool {
	return &ListListsTool{deps: deps}
}

// Definition returns the MCP tool definition for registration.
func (t *ListListsTool) Definition() mcp.Tool {
	return mcp.NewTool("clickup_list_lists",
		mcp.WithDescription(
			"List the lists of a folder. Without folder_id, lists the folderless lists of the space.",
		),
		mcp.WithString("space_id", mcp.Description("Space id; required unless folder_id is given")),
		mcp.WithString("folder_id", mcp.Description("Folder id; omit for folderless lists")),
		withForceRefresh(),
	)
}

// Handle processes the clickup_list_lists tool call.
func (t *ListListsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	scope := hierarchy.ListScope{
		SpaceID:  strings.TrimSpace(req.GetString("space_id", "")),
		FolderID: strings.TrimSpace(req.GetString("folder_id", "")),
	}
	if scope.SpaceID == "" && scope.FolderID == "" {
		return errorResult("'space_id' or 'folder_id' is required")
	}
	fetch := func(ctx context.Context) ([]clickup.List, error) {
		if scope.FolderID != "" {
			return t.deps.API.GetFolderLists(ctx, scope.FolderID)
		}
		return t.deps.API.GetFolderlessLists(ctx, scope.SpaceID)
	}
	res, err := t.deps.Sessions.For(ctx).Hierarchy.EnsureLists(ctx, scope, fetch, forceRefresh(req))
	if err != nil {
		return errorResult("failed to list lists: %v", err)
	}
	return jsonResult(listingOf(res))
}
