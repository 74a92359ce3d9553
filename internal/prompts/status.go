package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// CacheStatusPrompt handles the clickup-cache-status MCP prompt.
// It instructs the AI to read and explain the session cache state.
type CacheStatusPrompt struct{}

// NewCacheStatusPrompt creates a CacheStatusPrompt.
func NewCacheStatusPrompt() *CacheStatusPrompt {
	return &CacheStatusPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *CacheStatusPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("clickup-cache-status",
		mcp.WithPromptDescription(
			"Check what this session has cached from ClickUp and refresh what looks stale.",
		),
	)
}

// Handle processes the clickup-cache-status prompt request.
func (p *CacheStatusPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "ClickUp Cache Status",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Please read the `clickup://cache/status` resource.\n\n" +
						"Then:\n" +
						"1. Tell me how many workspaces, spaces, folders, lists, task pages and searches are cached\n" +
						"2. Tell me how long entries live before they are refetched\n" +
						"3. If I say something changed in ClickUp outside this chat, run `clickup_cache_invalidate` " +
						"with the narrowest scope that covers it",
				),
			},
		},
	}, nil
}
