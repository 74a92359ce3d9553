// Package prompts implements MCP prompt handlers for the ClickUp server.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// TriagePrompt handles the clickup-triage MCP prompt.
// It walks the AI through browsing, searching and updating tasks.
type TriagePrompt struct {
	readOnly bool
}

// NewTriagePrompt creates a TriagePrompt. A read-only server gets a
// prompt that stops at reporting.
func NewTriagePrompt(readOnly bool) *TriagePrompt {
	return &TriagePrompt{readOnly: readOnly}
}

// Definition returns the MCP prompt definition for registration.
func (p *TriagePrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("clickup-triage",
		mcp.WithPromptDescription(
			"Triage the open tasks of a ClickUp list: review them, find stale or unassigned work, "+
				"and propose (or apply) status, priority and assignee changes.",
		),
		mcp.WithArgument("list_id",
			mcp.ArgumentDescription("List to triage. If omitted, I'll help you pick one from the hierarchy"),
		),
	)
}

// Handle processes the clickup-triage prompt request.
func (p *TriagePrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	listID := ""
	if args := req.Params.Arguments; args != nil {
		listID = strings.TrimSpace(args["list_id"])
	}

	var b strings.Builder
	if listID == "" {
		b.WriteString("I want to triage a ClickUp list, but I haven't picked one yet.\n\n")
		b.WriteString("1. Run `clickup_list_workspaces`, then `clickup_list_spaces`, `clickup_list_folders` and " +
			"`clickup_list_lists` to show me where my lists are, and ask me which one to triage\n")
	} else {
		fmt.Fprintf(&b, "I want to triage the ClickUp list `%s`.\n\n", listID)
		b.WriteString("1. We start from this list\n")
	}
	b.WriteString("2. Run `clickup_list_tasks` for the list, following `lastPage` until you have every page\n")
	b.WriteString("3. Group the tasks by status and point out the ones without assignees, without a due date, " +
		"or not updated for a long time. Use `clickup_search_tasks` with a query when I ask about a topic\n")
	b.WriteString("4. For assignees, use `clickup_find_member` so you can show me names instead of ids\n")
	if p.readOnly {
		b.WriteString("5. This server is read-only: write up the changes you would make as a checklist I can apply myself\n")
	} else {
		b.WriteString("5. Propose the changes (status, priority, assignees) and wait for my confirmation\n")
		b.WriteString("6. Apply them with `clickup_update_task`, or `clickup_bulk_update_tasks` for more than a few. " +
			"Pass the tasks you listed as `context` when you refer to a task by name\n")
	}
	b.WriteString("\nResults come from a session cache; each one carries `cacheMetadata`. " +
		"Pass `force_refresh` when something looks out of date.")

	desc := "Triage a ClickUp list"
	if listID != "" {
		desc = fmt.Sprintf("Triage ClickUp list %s", listID)
	}
	return &mcp.GetPromptResult{
		Description: desc,
		Messages: []mcp.PromptMessage{
			{
				Role:    mcp.RoleUser,
				Content: mcp.NewTextContent(b.String()),
			},
		},
	}, nil
}
