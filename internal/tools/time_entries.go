package tools

import (
	"context"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/clickup-mcp/internal/clickup"
	"github.com/HendryAvila/clickup-mcp/internal/config"
)

// ─── clickup_list_time_entries ───────────────────────────────────────────────

// ListTimeEntriesTool lists tracked time in a workspace.
type ListTimeEntriesTool struct{ deps *Deps }

// NewListTimeEntriesTool creates a ListTimeEntriesTool.
func NewListTimeEntriesTool(deps *Deps) *ListTimeEntriesTool {
	return &ListTimeEntriesTool{deps: deps}
}

// Definition returns the MCP tool definition for registration.
func (t *ListTimeEntriesTool) Definition() mcp.Tool {
	return mcp.NewTool("clickup_list_time_entries",
		mcp.WithDescription(
			"List time entries in a workspace. Without dates ClickUp returns the last 30 days "+
				"of the token owner's entries.",
		),
		withWorkspaceID(),
		mcp.WithNumber("start_date", mcp.Description("Range start as Unix milliseconds")),
		mcp.WithNumber("end_date", mcp.Description("Range end as Unix milliseconds")),
		mcp.WithString("assignee", mcp.Description("User id or member name whose entries to list")),
		mcp.WithString("task_id", mcp.Description("Only entries tracked on this task")),
	)
}

// Handle processes the clickup_list_time_entries tool call.
func (t *ListTimeEntriesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	teamID, err := t.deps.teamID(req)
	if err != nil {
		return errorResult("%v", err)
	}
	args := req.GetArguments()
	var q clickup.TimeEntryQuery
	for name, dst := range map[string]*int64{"start_date": &q.StartDate, "end_date": &q.EndDate} {
		v, err := optionalInt(args, name)
		if err != nil {
			return errorResult("%v", err)
		}
		if v != nil {
			*dst = *v
		}
	}
	if q.StartDate != 0 && q.EndDate != 0 && q.EndDate < q.StartDate {
		return errorResult("'end_date' is before 'start_date'")
	}
	if tid := optionalString(req, "task_id"); tid != nil {
		q.TaskID = *tid
	}
	if a := optionalString(req, "assignee"); a != nil && *a != "" {
		ids, err := t.deps.resolveAssignees(ctx, teamID, []string{*a})
		if err != nil {
			return errorResult("%v", err)
		}
		q.Assignee = strconv.FormatInt(ids[0], 10)
	}

	entries, err := t.deps.API.GetTimeEntries(ctx, teamID, q)
	if err != nil {
		return errorResult("failed to list time entries: %v", err)
	}
	return jsonResult(map[string]any{"entries": nonNil(entries), "total": len(entries)})
}

// ─── clickup_create_time_entry ───────────────────────────────────────────────

// CreateTimeEntryTool records tracked time, optionally against a task.
type CreateTimeEntryTool struct{ deps *Deps }

// NewCreateTimeEntryTool creates a CreateTimeEntryTool.
func NewCreateTimeEntryTool(deps *Deps) *CreateTimeEntryTool {
	return &CreateTimeEntryTool{deps: deps}
}

// Definition returns the MCP tool definition for registration.
func (t *CreateTimeEntryTool) Definition() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription(
			"Record a time entry. Attach it to a task by task_id or task_name with context, " +
				"or leave both out for an entry without a task.",
		),
		withWorkspaceID(),
		mcp.WithNumber("start", mcp.Required(), mcp.Description("Start as Unix milliseconds")),
		mcp.WithNumber("duration", mcp.Required(), mcp.Description("Duration in milliseconds")),
		mcp.WithString("description", mcp.Description("What the time was spent on")),
		mcp.WithBoolean("billable", mcp.Description("Mark the entry billable")),
		mcp.WithString("assignee", mcp.Description("User id or member name to record for (workspace owners only)")),
	}, withTaskReference()...)
	return mcp.NewTool("clickup_create_time_entry", opts...)
}

// Handle processes the clickup_create_time_entry tool call.
func (t *CreateTimeEntryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	teamID, err := t.deps.teamID(req)
	if err != nil {
		return errorResult("%v", err)
	}
	args := req.GetArguments()
	start, err := optionalInt(args, "start")
	if err != nil {
		return errorResult("%v", err)
	}
	duration, err := optionalInt(args, "duration")
	if err != nil {
		return errorResult("%v", err)
	}
	if start == nil || duration == nil {
		return errorResult("'start' and 'duration' are required")
	}
	if *duration <= 0 {
		return errorResult("'duration' must be positive, got %d", *duration)
	}

	in := clickup.TimeEntryInput{
		Description: strings.TrimSpace(req.GetString("description", "")),
		Start:       *start,
		Duration:    *duration,
		Billable:    boolArg(req, "billable", false),
	}

	// Time entries are not cached; only the policy cares about the task.
	if optionalString(req, "task_id") != nil || optionalString(req, "task_name") != nil {
		ref, err := t.deps.resolveTask(ctx, req)
		if err != nil {
			return errorResult("%v", err)
		}
		if _, err := t.deps.checkTask(ctx, ref.TaskID); err != nil {
			return errorResult("%v", err)
		}
		in.TaskID = ref.TaskID
	} else if err := t.deps.Policy.Check(config.Target{}); err != nil {
		return errorResult("%v", err)
	}

	if a := optionalString(req, "assignee"); a != nil && *a != "" {
		ids, err := t.deps.resolveAssignees(ctx, teamID, []string{*a})
		if err != nil {
			return errorResult("%v", err)
		}
		in.Assignee = ids[0]
	}

	entry, err := t.deps.API.CreateTimeEntry(ctx, teamID, in)
	if err != nil {
		return errorResult("failed to create time entry: %v", err)
	}
	return jsonResult(map[string]any{"action": "created", "entry": entry})
}
