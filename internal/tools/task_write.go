package tools

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/clickup-mcp/internal/clickup"
	"github.com/HendryAvila/clickup-mcp/internal/resolve"
	"github.com/HendryAvila/clickup-mcp/internal/taskcache"
)

func withTaskFields() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("description", mcp.Description("Plain text description")),
		mcp.WithString("status", mcp.Description("Status name, as configured on the list")),
		mcp.WithNumber("priority", mcp.Description("1 urgent, 2 high, 3 normal, 4 low")),
		mcp.WithNumber("due_date", mcp.Description("Due date as Unix milliseconds")),
		mcp.WithString("parent", mcp.Description("Parent task id, to make this a subtask")),
	}
}

type mutationResult struct {
	Action     string                `json:"action"`
	TaskID     string                `json:"taskId"`
	Task       *taskcache.TaskRecord `json:"task,omitempty"`
	Resolution *resolve.Result       `json:"resolution,omitempty"`
}

// ─── clickup_create_task ─────────────────────────────────────────────────────

// CreateTaskTool creates a task in a list.
type CreateTaskTool struct{ deps *Deps }

// NewCreateTaskTool creates a CreateTaskTool.
func NewCreateTaskTool(deps *Deps) *CreateTaskTool {
	return &CreateTaskTool{deps: deps}
}

// Definition returns the MCP tool definition for registration.
func (t *CreateTaskTool) Definition() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(
			"Create a task in a list. Assignees may be user ids or member names; " +
				"a name must match exactly one member best.",
		),
		mcp.WithString("list_id", mcp.Required(), mcp.Description("List to create the task in")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Task name")),
		stringArray("tags", "Tag names to attach"),
		stringArray("assignees", "User ids or member names"),
		withWorkspaceID(),
	}
	return mcp.NewTool("clickup_create_task", append(opts, withTaskFields()...)...)
}

// Handle processes the clickup_create_task tool call.
func (t *CreateTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	listID := strings.TrimSpace(req.GetString("list_id", ""))
	name := strings.TrimSpace(req.GetString("name", ""))
	if listID == "" || name == "" {
		return errorResult("'list_id' and 'name' are required")
	}
	if err := t.deps.checkList(ctx, listID); err != nil {
		return errorResult("%v", err)
	}

	args := req.GetArguments()
	teamID, _ := t.deps.teamID(req)
	fields, err := t.deps.updateFromArgs(ctx, teamID, args)
	if err != nil {
		return errorResult("%v", err)
	}
	assignees, err := t.deps.resolveAssignees(ctx, teamID, stringsArg(args, "assignees"))
	if err != nil {
		return errorResult("%v", err)
	}

	in := clickup.TaskInput{
		Name:        &name,
		Description: fields.Description,
		Status:      fields.Status,
		Priority:    fields.Priority,
		DueDate:     fields.DueDate,
		Parent:      fields.Parent,
		Tags:        stringsArg(args, "tags"),
		Assignees:   assignees,
	}
	task, err := t.deps.API.CreateTask(ctx, listID, in)
	if err != nil {
		return errorResult("failed to create task: %v", err)
	}

	t.deps.taskChanged(ctx, task.ID, listID)
	return jsonResult(mutationResult{Action: "created", TaskID: task.ID, Task: t.deps.changedRecord(ctx, task)})
}

// ─── clickup_update_task ─────────────────────────────────────────────────────

// UpdateTaskTool changes fields of one task.
type UpdateTaskTool struct{ deps *Deps }

// NewUpdateTaskTool creates an UpdateTaskTool.
func NewUpdateTaskTool(deps *Deps) *UpdateTaskTool {
	return &UpdateTaskTool{deps: deps}
}

// Definition returns the MCP tool definition for registration.
func (t *UpdateTaskTool) Definition() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(
			"Update a task. Only the fields given change. Refer to the task by task_id, " +
				"or by task_name with the context of tasks you listed.",
		),
		mcp.WithString("name", mcp.Description("New task name")),
		stringArray("add_assignees", "User ids or member names to assign"),
		stringArray("remove_assignees", "User ids or member names to unassign"),
		withWorkspaceID(),
	}
	opts = append(opts, withTaskReference()...)
	return mcp.NewTool("clickup_update_task", append(opts, withTaskFields()...)...)
}

// Handle processes the clickup_update_task tool call.
func (t *UpdateTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := t.deps.resolveTask(ctx, req)
	if err != nil {
		return errorResult("%v", err)
	}
	listID, err := t.deps.checkTask(ctx, ref.TaskID)
	if err != nil {
		return errorResult("%v", err)
	}

	teamID, _ := t.deps.teamID(req)
	update, err := t.deps.updateFromArgs(ctx, teamID, req.GetArguments())
	if err != nil {
		return errorResult("%v", err)
	}
	if update.Empty() {
		return errorResult("nothing to update: give at least one field to change")
	}

	task, err := t.deps.API.UpdateTask(ctx, ref.TaskID, update)
	if err != nil {
		return errorResult("failed to update task: %v", err)
	}

	t.deps.taskChanged(ctx, ref.TaskID, listID, task.List.ID, refListID(ref))
	return jsonResult(mutationResult{
		Action:     "updated",
		TaskID:     ref.TaskID,
		Task:       t.deps.changedRecord(ctx, task),
		Resolution: &ref,
	})
}

// ─── clickup_delete_task ─────────────────────────────────────────────────────

// DeleteTaskTool deletes one task.
type DeleteTaskTool struct{ deps *Deps }

// NewDeleteTaskTool creates a DeleteTaskTool.
func NewDeleteTaskTool(deps *Deps) *DeleteTaskTool {
	return &DeleteTaskTool{deps: deps}
}

// Definition returns the MCP tool definition for registration.
func (t *DeleteTaskTool) Definition() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Delete a task permanently."),
		mcp.WithDestructiveHintAnnotation(true),
	}, withTaskReference()...)
	return mcp.NewTool("clickup_delete_task", opts...)
}

// Handle processes the clickup_delete_task tool call.
func (t *DeleteTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := t.deps.resolveTask(ctx, req)
	if err != nil {
		return errorResult("%v", err)
	}
	listID, err := t.deps.checkTask(ctx, ref.TaskID)
	if err != nil {
		return errorResult("%v", err)
	}
	if err := t.deps.API.DeleteTask(ctx, ref.TaskID); err != nil {
		return errorResult("failed to delete task: %v", err)
	}

	t.deps.taskChanged(ctx, ref.TaskID, listID, refListID(ref))
	return jsonResult(mutationResult{Action: "deleted", TaskID: ref.TaskID, Resolution: &ref})
}

// refListID is the list the resolved record was seen in, if any.
func refListID(ref resolve.Result) string {
	if ref.Record == nil {
		return ""
	}
	return ref.Record.ListID
}
