package tools

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/clickup-mcp/internal/cache"
	"github.com/HendryAvila/clickup-mcp/internal/clickup"
	"github.com/HendryAvila/clickup-mcp/internal/resolve"
	"github.com/HendryAvila/clickup-mcp/internal/taskcache"
)

const defaultSearchLimit = 20

// withTaskReference adds the task_id / task_name / context trio shared by
// every tool that acts on one task.
func withTaskReference() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("task_id", mcp.Description("Task id. Takes precedence over task_name")),
		mcp.WithString("task_name",
			mcp.Description("Task name, resolved against context. A numeric name is treated as an id"),
		),
		mcp.WithArray("context",
			mcp.Description("Tasks previously returned by list or search tools; required to resolve task_name"),
			mcp.Items(map[string]any{"type": "object"}),
		),
	}
}

// resolveTask turns the task reference arguments into one task id.
func (d *Deps) resolveTask(ctx context.Context, req mcp.CallToolRequest) (resolve.Result, error) {
	in := resolve.Input{Context: contextArg(req.GetArguments())}
	if id := optionalString(req, "task_id"); id != nil {
		in.TaskID = *id
	}
	if name := optionalString(req, "task_name"); name != nil {
		in.TaskName = *name
	}
	return resolve.Resolve(in, d.Sessions.For(ctx).Tasks)
}

// ─── clickup_list_tasks ──────────────────────────────────────────────────────

// ListTasksTool returns one page of a list's tasks.
type ListTasksTool struct{ deps *Deps }

// NewListTasksTool creates a ListTasksTool.
func NewListTasksTool(deps *Deps) *ListTasksTool {
	return &ListTasksTool{deps: deps}
}

// Definition returns the MCP tool definition for registration.
func (t *ListTasksTool) Definition() mcp.Tool {
	return mcp.NewTool("clickup_list_tasks",
		mcp.WithDescription(
			"List one page (up to 100) of the tasks in a list. "+
				"Pass the returned tasks as 'context' to other tools to refer to tasks by name.",
		),
		mcp.WithString("list_id", mcp.Required(), mcp.Description("List id")),
		mcp.WithNumber("page", mcp.Description("Zero-based page number (default: 0)")),
		mcp.WithBoolean("include_closed", mcp.Description("Include closed tasks")),
		mcp.WithBoolean("subtasks", mcp.Description("Include subtasks")),
		mcp.WithBoolean("include_timl", mcp.Description("Include tasks that live in several lists")),
		withForceRefresh(),
	)
}

type taskPageResult struct {
	ListID   string                 `json:"listId"`
	Page     int                    `json:"page"`
	LastPage bool                   `json:"lastPage"`
	Tasks    []taskcache.TaskRecord `json:"tasks"`
	Metadata cache.Metadata         `json:"cacheMetadata"`
}

// Handle processes the clickup_list_tasks tool call.
func (t *ListTasksTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	listID := strings.TrimSpace(req.GetString("list_id", ""))
	if listID == "" {
		return errorResult("'list_id' is required")
	}
	page := max(intArg(req, "page", 0), 0)
	filters := taskcache.FiltersFromArgs(req.GetArguments())

	fetch := func(ctx context.Context) ([]clickup.Task, bool, error) {
		return t.deps.API.GetTasks(ctx, listID, clickup.TaskQuery{
			Page:                        page,
			IncludeClosed:               filters.IncludeClosed,
			IncludeSubtasks:             filters.IncludeSubtasks,
			IncludeTasksInMultipleLists: filters.IncludeTasksInMultipleLists,
		})
	}
	cat := t.deps.Sessions.For(ctx).Tasks
	lp, meta, err := cat.EnsureListPage(ctx, listID, filters, page, fetch, boolArg(req, "force_refresh", false))
	if err != nil {
		return errorResult("failed to list tasks: %v", err)
	}

	return jsonResult(taskPageResult{
		ListID:   listID,
		Page:     page,
		LastPage: lp.LastPage,
		Tasks:    nonNil(lp.Entry.Items),
		Metadata: meta,
	})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// ─── clickup_search_tasks ────────────────────────────────────────────────────

// SearchTasksTool filters tasks across a workspace and optionally ranks
// them against a free-text query.
type SearchTasksTool struct{ deps *Deps }

// NewSearchTasksTool creates a SearchTasksTool.
func NewSearchTasksTool(deps *Deps) *SearchTasksTool {
	return &SearchTasksTool{deps: deps}
}

// Definition returns the MCP tool definition for registration.
func (t *SearchTasksTool) Definition() mcp.Tool {
	return mcp.NewTool("clickup_search_tasks",
		mcp.WithDescription(
			"Search tasks across a workspace. Filters narrow the set fetched from ClickUp; "+
				"'query' then ranks it by approximate match on name, description and status "+
				"(typos are tolerated). Lower scores are better.",
		),
		withWorkspaceID(),
		mcp.WithString("query", mcp.Description("Free text to rank tasks by")),
		stringArray("statuses", "Only tasks in these statuses"),
		stringArray("list_ids", "Only tasks in these lists"),
		stringArray("space_ids", "Only tasks in these spaces"),
		stringArray("assignees", "Only tasks assigned to these user ids"),
		stringArray("tags", "Only tasks with these tags"),
		mcp.WithBoolean("include_closed", mcp.Description("Include closed tasks")),
		mcp.WithNumber("page", mcp.Description("Zero-based page of the filtered listing (default: 0)")),
		mcp.WithNumber("limit", mcp.Description("Maximum ranked results (default: 20)")),
		withForceRefresh(),
	)
}

type searchResult struct {
	Query    string              `json:"query,omitempty"`
	Total    int                 `json:"total"`
	Hits     []taskcache.TaskHit `json:"hits"`
	Metadata cache.Metadata      `json:"cacheMetadata"`
}

// Handle processes the clickup_search_tasks tool call.
func (t *SearchTasksTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	teamID, err := t.deps.teamID(req)
	if err != nil {
		return errorResult("%v", err)
	}
	args := req.GetArguments()
	search := clickup.TaskSearch{
		Page:          max(intArg(req, "page", 0), 0),
		Statuses:      stringsArg(args, "statuses"),
		ListIDs:       stringsArg(args, "list_ids"),
		SpaceIDs:      stringsArg(args, "space_ids"),
		Assignees:     stringsArg(args, "assignees"),
		Tags:          stringsArg(args, "tags"),
		IncludeClosed: boolArg(req, "include_closed", false),
	}
	fetch := func(ctx context.Context) ([]clickup.Task, error) {
		tasks, _, err := t.deps.API.SearchTasks(ctx, teamID, search)
		return tasks, err
	}

	cat := t.deps.Sessions.For(ctx).Tasks
	entry, meta, err := cat.EnsureSearch(ctx, teamID, search.Params(), fetch, boolArg(req, "force_refresh", false))
	if err != nil {
		return errorResult("failed to search tasks: %v", err)
	}

	query := strings.TrimSpace(req.GetString("query", ""))
	limit := intArg(req, "limit", defaultSearchLimit)
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	var hits []taskcache.TaskHit
	if query != "" {
		hits = entry.Index.Search(query, limit)
	} else {
		for _, r := range entry.Entry.Items {
			if len(hits) == limit {
				break
			}
			hits = append(hits, taskcache.TaskHit{Record: r})
		}
	}

	return jsonResult(searchResult{
		Query:    query,
		Total:    len(entry.Entry.Items),
		Hits:     nonNil(hits),
		Metadata: meta,
	})
}

// ─── clickup_get_task ────────────────────────────────────────────────────────

// GetTaskTool fetches one task by id or by name.
type GetTaskTool struct{ deps *Deps }

// NewGetTaskTool creates a GetTaskTool.
func NewGetTaskTool(deps *Deps) *GetTaskTool {
	return &GetTaskTool{deps: deps}
}

// Definition returns the MCP tool definition for registration.
func (t *GetTaskTool) Definition() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription(
			"Get a task's details. Refer to it by task_id, or by task_name together with the " +
				"context of tasks you already listed.",
		),
	}, withTaskReference()...)
	return mcp.NewTool("clickup_get_task", opts...)
}

type taskResult struct {
	Task       *clickup.Task  `json:"task,omitempty"`
	Resolution resolve.Result `json:"resolution"`
}

// Handle processes the clickup_get_task tool call.
func (t *GetTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := t.deps.resolveTask(ctx, req)
	if err != nil {
		return errorResult("%v", err)
	}

	task, err := t.deps.API.GetTask(ctx, ref.TaskID)
	if err != nil {
		if clickup.NotFound(err) {
			return errorResult("task %q not found", ref.TaskID)
		}
		return errorResult("failed to get task: %v", err)
	}
	t.deps.Sessions.For(ctx).Tasks.Remember(taskcache.RecordFromTask(*task))

	return jsonResult(taskResult{Task: task, Resolution: ref})
}
