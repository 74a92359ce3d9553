// Package tools implements the MCP tool handlers of the ClickUp server.
//
// Each tool is a struct holding its dependencies with a Definition and a
// Handle method, registered by the server package. Read tools go through
// the session caches; write tools check the write policy, call the API and
// invalidate what they changed before returning.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/clickup-mcp/internal/bulk"
	"github.com/HendryAvila/clickup-mcp/internal/clickup"
	"github.com/HendryAvila/clickup-mcp/internal/config"
	"github.com/HendryAvila/clickup-mcp/internal/hierarchy"
	"github.com/HendryAvila/clickup-mcp/internal/session"
)

// API is the part of the ClickUp client the tools call.
type API interface {
	GetWorkspaces(ctx context.Context) ([]clickup.Workspace, error)
	GetSpaces(ctx context.Context, workspaceID string) ([]clickup.Space, error)
	GetFolders(ctx context.Context, spaceID string) ([]clickup.Folder, error)
	GetFolderLists(ctx context.Context, folderID string) ([]clickup.List, error)
	GetFolderlessLists(ctx context.Context, spaceID string) ([]clickup.List, error)
	GetList(ctx context.Context, listID string) (*clickup.List, error)
	CreateFolder(ctx context.Context, spaceID, name string) (*clickup.Folder, error)
	DeleteFolder(ctx context.Context, folderID string) error
	CreateList(ctx context.Context, in clickup.ListInput) (*clickup.List, error)
	DeleteList(ctx context.Context, listID string) error

	GetTasks(ctx context.Context, listID string, q clickup.TaskQuery) ([]clickup.Task, bool, error)
	SearchTasks(ctx context.Context, teamID string, s clickup.TaskSearch) ([]clickup.Task, bool, error)
	GetTask(ctx context.Context, taskID string) (*clickup.Task, error)
	CreateTask(ctx context.Context, listID string, in clickup.TaskInput) (*clickup.Task, error)
	UpdateTask(ctx context.Context, taskID string, in clickup.TaskUpdate) (*clickup.Task, error)
	DeleteTask(ctx context.Context, taskID string) error
	AddTag(ctx context.Context, taskID, tag string) error
	RemoveTag(ctx context.Context, taskID, tag string) error
	SetCustomField(ctx context.Context, taskID, fieldID string, value any) error

	GetMembers(ctx context.Context, teamID string) ([]map[string]any, error)
	GetDocs(ctx context.Context, workspaceID string) ([]clickup.Doc, error)
	GetTimeEntries(ctx context.Context, teamID string, q clickup.TimeEntryQuery) ([]clickup.TimeEntry, error)
	CreateTimeEntry(ctx context.Context, teamID string, in clickup.TimeEntryInput) (*clickup.TimeEntry, error)
}

// Deps is shared by every tool.
type Deps struct {
	API      API
	Sessions *session.Registry
	// TeamID is the default workspace when a call names none.
	TeamID string
	Policy config.Policy
	Bulk   *bulk.Processor
	Logger *slog.Logger
}

func (d *Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return d.Logger
}

// teamID returns the workspace_id argument or the configured default.
func (d *Deps) teamID(req mcp.CallToolRequest) (string, error) {
	if id := optionalString(req, "workspace_id"); id != nil && *id != "" {
		return *id, nil
	}
	if d.TeamID != "" {
		return d.TeamID, nil
	}
	return "", fmt.Errorf("'workspace_id' is required (no default workspace configured)")
}

// ─── Results ─────────────────────────────────────────────────────────────────

// jsonResult renders v as indented JSON text.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func errorResult(format string, args ...any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(fmt.Sprintf(format, args...)), nil
}

// ─── Arguments ───────────────────────────────────────────────────────────────

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

func forceRefresh(req mcp.CallToolRequest) hierarchy.EnsureOptions {
	return hierarchy.EnsureOptions{ForceRefresh: boolArg(req, "force_refresh", false)}
}

func withForceRefresh() mcp.ToolOption {
	return mcp.WithBoolean("force_refresh",
		mcp.Description("Bypass the session cache and refetch"),
	)
}

func withWorkspaceID() mcp.ToolOption {
	return mcp.WithString("workspace_id",
		mcp.Description("Workspace (team) id. Defaults to the configured workspace"),
	)
}

func stringArray(name, desc string) mcp.ToolOption {
	return mcp.WithArray(name,
		mcp.Description(desc),
		mcp.Items(map[string]any{"type": "string"}),
	)
}

// optionalString returns a pointer to the trimmed argument, or nil when
// it was not given.
func optionalString(req mcp.CallToolRequest, name string) *string {
	v, ok := req.GetArguments()[name]
	if !ok || v == nil {
		return nil
	}
	s := strings.TrimSpace(argString(v))
	return &s
}

// argString renders a JSON-decoded scalar. Numbers print without an
// exponent so large ids survive.
func argString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// optionalInt reads a numeric argument that may arrive as a number or a
// numeric string.
func optionalInt(args map[string]any, name string) (*int64, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return nil, nil
	}
	switch n := v.(type) {
	case float64:
		i := int64(n)
		return &i, nil
	case int:
		i := int64(n)
		return &i, nil
	case int64:
		return &n, nil
	case string:
		if strings.TrimSpace(n) == "" {
			return nil, nil
		}
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("'%s' must be a number, got %q", name, n)
		}
		return &i, nil
	default:
		return nil, fmt.Errorf("'%s' must be a number", name)
	}
}

// stringsArg reads a string array argument, accepting a single string or
// a comma-separated string too.
func stringsArg(args map[string]any, name string) []string {
	var out []string
	switch v := args[name].(type) {
	case []any:
		for _, item := range v {
			if item == nil {
				continue
			}
			if s := strings.TrimSpace(argString(item)); s != "" {
				out = append(out, s)
			}
		}
	case []string:
		for _, s := range v {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	case string:
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// contextArg reads the "context" argument: an array of task-like objects
// the caller has already seen.
func contextArg(args map[string]any) []map[string]any {
	raw, _ := args["context"].([]any)
	out := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
