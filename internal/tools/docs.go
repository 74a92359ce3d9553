package tools

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/clickup-mcp/internal/clickup"
	"github.com/HendryAvila/clickup-mcp/internal/fuzzy"
)

var docKeys = []fuzzy.Key[clickup.Doc]{
	{Name: "name", Weight: 1, Values: func(d clickup.Doc) []string { return []string{d.Name} }},
}

// ─── clickup_search_docs ─────────────────────────────────────────────────────

// SearchDocsTool finds docs in a workspace by approximate name.
type SearchDocsTool struct{ deps *Deps }

// NewSearchDocsTool creates a SearchDocsTool.
func NewSearchDocsTool(deps *Deps) *SearchDocsTool {
	return &SearchDocsTool{deps: deps}
}

// Definition returns the MCP tool definition for registration.
func (t *SearchDocsTool) Definition() mcp.Tool {
	return mcp.NewTool("clickup_search_docs",
		mcp.WithDescription("Search the docs of a workspace by name. Without a query, lists them."),
		mcp.WithString("query", mcp.Description("Doc name or part of it; typos are tolerated")),
		mcp.WithNumber("limit", mcp.Description("Maximum results (default: 20)")),
		withWorkspaceID(),
	)
}

type docHit struct {
	clickup.Doc
	Score *float64 `json:"score,omitempty"`
}

// Handle processes the clickup_search_docs tool call.
func (t *SearchDocsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	teamID, err := t.deps.teamID(req)
	if err != nil {
		return errorResult("%v", err)
	}
	limit := intArg(req, "limit", defaultSearchLimit)
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	docs, err := t.deps.API.GetDocs(ctx, teamID)
	if err != nil {
		return errorResult("failed to list docs: %v", err)
	}

	out := []docHit{}
	query := strings.TrimSpace(req.GetString("query", ""))
	if query == "" {
		for _, d := range docs[:min(limit, len(docs))] {
			out = append(out, docHit{Doc: d})
		}
		return jsonResult(map[string]any{"docs": out, "total": len(docs)})
	}

	for _, h := range fuzzy.NewIndex(docs, docKeys, 0).Search(query, limit) {
		out = append(out, docHit{Doc: h.Item, Score: &h.Score})
	}
	return jsonResult(map[string]any{"query": query, "docs": out, "total": len(docs)})
}
