package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/clickup-mcp/internal/bulk"
	"github.com/HendryAvila/clickup-mcp/internal/taskcache"
)

const maxBulkItems = 100

// ─── clickup_bulk_update_tasks ───────────────────────────────────────────────

// BulkUpdateTasksTool applies many task updates with bounded concurrency.
// One failing item does not stop the others.
type BulkUpdateTasksTool struct{ deps *Deps }

// NewBulkUpdateTasksTool creates a BulkUpdateTasksTool.
func NewBulkUpdateTasksTool(deps *Deps) *BulkUpdateTasksTool {
	return &BulkUpdateTasksTool{deps: deps}
}

// Definition returns the MCP tool definition for registration.
func (t *BulkUpdateTasksTool) Definition() mcp.Tool {
	return mcp.NewTool("clickup_bulk_update_tasks",
		mcp.WithDescription(
			"Update up to 100 tasks in one call. Each update names a task_id and the fields to change "+
				"(name, description, status, priority, due_date, add_assignees, remove_assignees). "+
				"Results come back in the order given, each with its own success or error.",
		),
		mcp.WithArray("updates",
			mcp.Required(),
			mcp.Description("Task updates, each an object with task_id and the fields to change"),
			mcp.Items(map[string]any{
				"type":     "object",
				"required": []string{"task_id"},
				"properties": map[string]any{
					"task_id":          map[string]any{"type": "string"},
					"name":             map[string]any{"type": "string"},
					"description":      map[string]any{"type": "string"},
					"status":           map[string]any{"type": "string"},
					"priority":         map[string]any{"type": "number"},
					"due_date":         map[string]any{"type": "number"},
					"add_assignees":    map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					"remove_assignees": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				},
			}),
		),
		withWorkspaceID(),
	)
}

type bulkItemResult struct {
	Index  int                   `json:"index"`
	TaskID string                `json:"taskId,omitempty"`
	OK     bool                  `json:"ok"`
	Error  string                `json:"error,omitempty"`
	Task   *taskcache.TaskRecord `json:"task,omitempty"`
}

type bulkResult struct {
	Total     int              `json:"total"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Results   []bulkItemResult `json:"results"`
}

// Handle processes the clickup_bulk_update_tasks tool call.
func (t *BulkUpdateTasksTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, _ := req.GetArguments()["updates"].([]any)
	if len(raw) == 0 {
		return errorResult("'updates' must be a non-empty array")
	}
	if len(raw) > maxBulkItems {
		return errorResult("at most %d updates per call, got %d", maxBulkItems, len(raw))
	}
	items := make([]map[string]any, len(raw))
	for i, r := range raw {
		m, ok := r.(map[string]any)
		if !ok {
			return errorResult("updates[%d] must be an object", i)
		}
		items[i] = m
	}
	teamID, _ := t.deps.teamID(req)

	worker := func(ctx context.Context, item map[string]any) (*taskcache.TaskRecord, error) {
		return t.updateOne(ctx, teamID, item)
	}
	outcomes := bulk.Collect(ctx, t.deps.Bulk, items, worker)

	res := bulkResult{Total: len(items), Results: make([]bulkItemResult, len(outcomes))}
	for i, o := range outcomes {
		r := bulkItemResult{Index: o.Index, TaskID: itemTaskID(o.Input)}
		if o.Err != nil {
			r.Error = o.Err.Error()
			res.Failed++
		} else {
			r.OK = true
			r.Task = o.Value
			res.Succeeded++
		}
		res.Results[i] = r
	}
	t.deps.logger().Info("bulk update finished",
		slog.Int("total", res.Total), slog.Int("failed", res.Failed), slog.Int("concurrency", t.deps.Bulk.Limit()))
	return jsonResult(res)
}

func (t *BulkUpdateTasksTool) updateOne(ctx context.Context, teamID string, item map[string]any) (*taskcache.TaskRecord, error) {
	taskID := itemTaskID(item)
	if taskID == "" {
		return nil, fmt.Errorf("task_id is required")
	}

	listID, err := t.deps.checkTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	update, err := t.deps.updateFromArgs(ctx, teamID, item)
	if err != nil {
		return nil, err
	}
	if update.Empty() {
		return nil, fmt.Errorf("nothing to update")
	}

	task, err := t.deps.API.UpdateTask(ctx, taskID, update)
	if err != nil {
		return nil, err
	}
	t.deps.taskChanged(ctx, taskID, listID, task.List.ID)
	return t.deps.changedRecord(ctx, task), nil
}

func itemTaskID(item map[string]any) string {
	v, ok := item["task_id"]
	if !ok || v == nil {
		return ""
	}
	return strings.TrimSpace(argString(v))
}
