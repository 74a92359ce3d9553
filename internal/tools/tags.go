package tools

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// ─── clickup_add_tag / clickup_remove_tag ────────────────────────────────────

// TagTool attaches or detaches a tag. One type serves both tools.
type TagTool struct {
	deps   *Deps
	remove bool
}

// NewAddTagTool creates the clickup_add_tag tool.
func NewAddTagTool(deps *Deps) *TagTool {
	return &TagTool{deps: deps}
}

// NewRemoveTagTool creates the clickup_remove_tag tool.
func NewRemoveTagTool(deps *Deps) *TagTool {
	return &TagTool{deps: deps, remove: true}
}

// Definition returns the MCP tool definition for registration.
func (t *TagTool) Definition() mcp.Tool {
	name, desc := "clickup_add_tag", "Attach an existing space tag to a task."
	if t.remove {
		name, desc = "clickup_remove_tag", "Remove a tag from a task."
	}
	opts := append([]mcp.ToolOption{
		mcp.WithDescription(desc),
		mcp.WithString("tag", mcp.Required(), mcp.Description("Tag name")),
	}, withTaskReference()...)
	return mcp.NewTool(name, opts...)
}

// Handle processes the tag tool call.
func (t *TagTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tag := strings.TrimSpace(req.GetString("tag", ""))
	if tag == "" {
		return errorResult("'tag' is required")
	}
	ref, err := t.deps.resolveTask(ctx, req)
	if err != nil {
		return errorResult("%v", err)
	}
	listID, err := t.deps.checkTask(ctx, ref.TaskID)
	if err != nil {
		return errorResult("%v", err)
	}

	action := "tagged"
	if t.remove {
		action = "untagged"
		err = t.deps.API.RemoveTag(ctx, ref.TaskID, tag)
	} else {
		err = t.deps.API.AddTag(ctx, ref.TaskID, tag)
	}
	if err != nil {
		return errorResult("tag %q: %v", tag, err)
	}

	t.deps.taskChanged(ctx, ref.TaskID, listID, refListID(ref))
	return jsonResult(map[string]any{"action": action, "taskId": ref.TaskID, "tag": tag, "resolution": ref})
}

// ─── clickup_set_custom_field ────────────────────────────────────────────────

// SetCustomFieldTool sets one custom field value on a task.
type SetCustomFieldTool struct{ deps *Deps }

// NewSetCustomFieldTool creates a SetCustomFieldTool.
func NewSetCustomFieldTool(deps *Deps) *SetCustomFieldTool {
	return &SetCustomFieldTool{deps: deps}
}

// Definition returns the MCP tool definition for registration.
func (t *SetCustomFieldTool) Definition() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription(
			"Set a custom field on a task. The value's JSON type must match the field " +
				"(text, number, option id, user ids...).",
		),
		mcp.WithString("field_id", mcp.Required(), mcp.Description("Custom field id (a UUID)")),
		mcp.WithAny("value", mcp.Required(), mcp.Description("Field value")),
	}, withTaskReference()...)
	return mcp.NewTool("clickup_set_custom_field", opts...)
}

// Handle processes the clickup_set_custom_field tool call.
func (t *SetCustomFieldTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fieldID := strings.TrimSpace(req.GetString("field_id", ""))
	if fieldID == "" {
		return errorResult("'field_id' is required")
	}
	value, ok := req.GetArguments()["value"]
	if !ok {
		return errorResult("'value' is required")
	}
	ref, err := t.deps.resolveTask(ctx, req)
	if err != nil {
		return errorResult("%v", err)
	}
	listID, err := t.deps.checkTask(ctx, ref.TaskID)
	if err != nil {
		return errorResult("%v", err)
	}

	if err := t.deps.API.SetCustomField(ctx, ref.TaskID, fieldID, value); err != nil {
		return errorResult("failed to set custom field: %v", err)
	}

	t.deps.taskChanged(ctx, ref.TaskID, listID, refListID(ref))
	return jsonResult(map[string]any{"action": "field set", "taskId": ref.TaskID, "fieldId": fieldID})
}
