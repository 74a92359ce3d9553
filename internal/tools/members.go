package tools

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/clickup-mcp/internal/members"
)

// ─── clickup_find_member ─────────────────────────────────────────────────────

// FindMemberTool ranks workspace members against a name, email or handle.
type FindMemberTool struct{ deps *Deps }

// NewFindMemberTool creates a FindMemberTool.
func NewFindMemberTool(deps *Deps) *FindMemberTool {
	return &FindMemberTool{deps: deps}
}

// Definition returns the MCP tool definition for registration.
func (t *FindMemberTool) Definition() mcp.Tool {
	return mcp.NewTool("clickup_find_member",
		mcp.WithDescription(
			"Find workspace members by name, email, email local part or username. "+
				"Results are ranked best first with the reasons each member matched.",
		),
		mcp.WithString("query", mcp.Required(), mcp.Description("Name, email or username to look for")),
		mcp.WithNumber("limit", mcp.Description("Maximum matches (default: 5)")),
		withWorkspaceID(),
		withForceRefresh(),
	)
}

// Handle processes the clickup_find_member tool call.
func (t *FindMemberTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := strings.TrimSpace(req.GetString("query", ""))
	if query == "" {
		return errorResult("'query' is required")
	}
	teamID, err := t.deps.teamID(req)
	if err != nil {
		return errorResult("%v", err)
	}

	res, err := t.deps.searchMembers(ctx, teamID, query, members.SearchOptions{
		Limit:        intArg(req, "limit", members.DefaultLimit),
		ForceRefresh: boolArg(req, "force_refresh", false),
	})
	if err != nil {
		return errorResult("failed to search members: %v", err)
	}
	return jsonResult(res)
}

func (d *Deps) searchMembers(ctx context.Context, teamID, query string, opts members.SearchOptions) (members.SearchResult, error) {
	fetch := func(ctx context.Context) ([]map[string]any, error) {
		return d.API.GetMembers(ctx, teamID)
	}
	return d.Sessions.For(ctx).Members.Search(ctx, teamID, query, fetch, opts)
}
