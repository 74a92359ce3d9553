package tools

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/clickup-mcp/internal/clickup"
	"github.com/HendryAvila/clickup-mcp/internal/config"
)

// listsChanged drops the cached lists of the parent a list lives under.
func (d *Deps) listsChanged(ctx context.Context, folderID, spaceID string) {
	h := d.Sessions.For(ctx).Hierarchy
	var err error
	if folderID != "" {
		err = h.InvalidateListsForFolder(ctx, folderID)
	} else {
		err = h.InvalidateListsForSpace(ctx, spaceID)
	}
	if err != nil {
		d.logger().Warn("list cache invalidation failed", "folder", folderID, "space", spaceID, "error", err)
	}
}

// ─── clickup_create_list ─────────────────────────────────────────────────────

// CreateListTool creates a list in a folder or directly in a space.
type CreateListTool struct{ deps *Deps }

// NewCreateListTool creates a CreateListTool.
func NewCreateListTool(deps *Deps) *CreateListTool {
	return &CreateListTool{deps: deps}
}

// Definition returns the MCP tool definition for registration.
func (t *CreateListTool) Definition() mcp.Tool {
	return mcp.NewTool("clickup_create_list",
		mcp.WithDescription(
			"Create a list. Give folder_id to create it in a folder, or only space_id for a folderless list.",
		),
		mcp.WithString("name", mcp.Required(), mcp.Description("List name")),
		mcp.WithString("folder_id", mcp.Description("Parent folder")),
		mcp.WithString("space_id", mcp.Description("Parent space; required for folderless lists and for selective write mode")),
		mcp.WithString("content", mcp.Description("List description")),
	)
}

// Handle processes the clickup_create_list tool call.
func (t *CreateListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := strings.TrimSpace(req.GetString("name", ""))
	if name == "" {
		return errorResult("'name' is required")
	}
	in := clickup.ListInput{
		FolderID: strings.TrimSpace(req.GetString("folder_id", "")),
		SpaceID:  strings.TrimSpace(req.GetString("space_id", "")),
		Name:     name,
		Content:  req.GetString("content", ""),
	}
	if in.FolderID == "" && in.SpaceID == "" {
		return errorResult("one of 'folder_id' or 'space_id' is required")
	}
	if err := t.deps.Policy.Check(config.Target{SpaceID: in.SpaceID}); err != nil {
		return errorResult("%v", err)
	}

	list, err := t.deps.API.CreateList(ctx, in)
	if err != nil {
		return errorResult("failed to create list: %v", err)
	}

	t.deps.listsChanged(ctx, in.FolderID, in.SpaceID)
	return jsonResult(map[string]any{"action": "created", "list": list})
}

// ─── clickup_delete_list ─────────────────────────────────────────────────────

// DeleteListTool deletes a list and its tasks.
type DeleteListTool struct{ deps *Deps }

// NewDeleteListTool creates a DeleteListTool.
func NewDeleteListTool(deps *Deps) *DeleteListTool {
	return &DeleteListTool{deps: deps}
}

// Definition returns the MCP tool definition for registration.
func (t *DeleteListTool) Definition() mcp.Tool {
	return mcp.NewTool("clickup_delete_list",
		mcp.WithDescription("Delete a list together with its tasks."),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithString("list_id", mcp.Required(), mcp.Description("List to delete")),
	)
}

// Handle processes the clickup_delete_list tool call.
func (t *DeleteListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	listID := strings.TrimSpace(req.GetString("list_id", ""))
	if listID == "" {
		return errorResult("'list_id' is required")
	}

	// The parent decides which cached listing goes stale.
	list, err := t.deps.API.GetList(ctx, listID)
	if err != nil {
		if clickup.NotFound(err) {
			return errorResult("list %q not found", listID)
		}
		return errorResult("failed to look up list: %v", err)
	}
	target := config.Target{ListID: listID}
	folderID, spaceID := "", ""
	if list.Space != nil {
		spaceID = list.Space.ID
		target.SpaceID = spaceID
	}
	if list.Folder != nil && !list.Folder.Hidden {
		folderID = list.Folder.ID
	}
	if err := t.deps.Policy.Check(target); err != nil {
		return errorResult("%v", err)
	}

	if err := t.deps.API.DeleteList(ctx, listID); err != nil {
		return errorResult("failed to delete list: %v", err)
	}

	t.deps.listsChanged(ctx, folderID, spaceID)
	tasks := t.deps.Sessions.For(ctx).Tasks
	tasks.ForgetList(listID)
	tasks.InvalidateSearch()
	return jsonResult(map[string]any{"action": "deleted", "listId": listID})
}
