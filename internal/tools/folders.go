package tools

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/clickup-mcp/internal/clickup"
	"github.com/HendryAvila/clickup-mcp/internal/config"
	"github.com/HendryAvila/clickup-mcp/internal/hierarchy"
)

// ─── clickup_create_folder ───────────────────────────────────────────────────

// CreateFolderTool creates a folder in a space.
type CreateFolderTool struct{ deps *Deps }

// NewCreateFolderTool creates a CreateFolderTool.
func NewCreateFolderTool(deps *Deps) *CreateFolderTool {
	return &CreateFolderTool{deps: deps}
}

// Definition returns the MCP tool definition for registration.
func (t *CreateFolderTool) Definition() mcp.Tool {
	return mcp.NewTool("clickup_create_folder",
		mcp.WithDescription("Create a folder in a space."),
		mcp.WithString("space_id", mcp.Required(), mcp.Description("Space to create the folder in")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Folder name")),
	)
}

// Handle processes the clickup_create_folder tool call.
func (t *CreateFolderTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	spaceID := strings.TrimSpace(req.GetString("space_id", ""))
	name := strings.TrimSpace(req.GetString("name", ""))
	if spaceID == "" || name == "" {
		return errorResult("'space_id' and 'name' are required")
	}
	if err := t.deps.Policy.Check(config.Target{SpaceID: spaceID}); err != nil {
		return errorResult("%v", err)
	}

	folder, err := t.deps.API.CreateFolder(ctx, spaceID, name)
	if err != nil {
		return errorResult("failed to create folder: %v", err)
	}

	// A new folder is empty, so only the space's folder listing changes.
	if err := t.deps.Sessions.For(ctx).Hierarchy.InvalidateFolderListing(ctx, spaceID); err != nil {
		t.deps.logger().Warn("folder cache invalidation failed", "space", spaceID, "error", err)
	}
	return jsonResult(map[string]any{"action": "created", "folder": folder})
}

// ─── clickup_delete_folder ───────────────────────────────────────────────────

// DeleteFolderTool deletes a folder and the lists inside it.
type DeleteFolderTool struct{ deps *Deps }

// NewDeleteFolderTool creates a DeleteFolderTool.
func NewDeleteFolderTool(deps *Deps) *DeleteFolderTool {
	return &DeleteFolderTool{deps: deps}
}

// Definition returns the MCP tool definition for registration.
func (t *DeleteFolderTool) Definition() mcp.Tool {
	return mcp.NewTool("clickup_delete_folder",
		mcp.WithDescription("Delete a folder together with its lists and tasks."),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithString("folder_id", mcp.Required(), mcp.Description("Folder to delete")),
		mcp.WithString("space_id", mcp.Required(), mcp.Description("Space the folder belongs to")),
	)
}

// Handle processes the clickup_delete_folder tool call.
func (t *DeleteFolderTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folderID := strings.TrimSpace(req.GetString("folder_id", ""))
	spaceID := strings.TrimSpace(req.GetString("space_id", ""))
	if folderID == "" || spaceID == "" {
		return errorResult("'folder_id' and 'space_id' are required")
	}
	if err := t.deps.Policy.Check(config.Target{SpaceID: spaceID}); err != nil {
		return errorResult("%v", err)
	}

	// The folder's lists go with it; find them while they still exist.
	caches := t.deps.Sessions.For(ctx)
	lists, listErr := caches.Hierarchy.EnsureLists(ctx,
		hierarchy.ListScope{SpaceID: spaceID, FolderID: folderID},
		func(ctx context.Context) ([]clickup.List, error) {
			return t.deps.API.GetFolderLists(ctx, folderID)
		},
		hierarchy.EnsureOptions{},
	)

	if err := t.deps.API.DeleteFolder(ctx, folderID); err != nil {
		return errorResult("failed to delete folder: %v", err)
	}

	if err := caches.Hierarchy.InvalidateFolders(ctx, spaceID, folderID); err != nil {
		t.deps.logger().Warn("folder cache invalidation failed", "space", spaceID, "error", err)
	}
	if listErr != nil {
		t.deps.logger().Warn("folder lists unknown, dropping task cache", "folder", folderID, "error", listErr)
		caches.Tasks.Clear()
	} else {
		for _, l := range lists.Items {
			caches.Tasks.ForgetList(l.ID)
		}
		caches.Tasks.InvalidateSearch()
	}
	return jsonResult(map[string]any{"action": "deleted", "folderId": folderID})
}
