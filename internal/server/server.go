// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates the concrete store, client and
// session registry and injects them into the tools, prompts and resources.
// No business logic lives here, only wiring.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/HendryAvila/clickup-mcp/internal/bulk"
	"github.com/HendryAvila/clickup-mcp/internal/clickup"
	"github.com/HendryAvila/clickup-mcp/internal/config"
	"github.com/HendryAvila/clickup-mcp/internal/prompts"
	"github.com/HendryAvila/clickup-mcp/internal/resources"
	"github.com/HendryAvila/clickup-mcp/internal/session"
	"github.com/HendryAvila/clickup-mcp/internal/store"
	"github.com/HendryAvila/clickup-mcp/internal/taskcache"
	"github.com/HendryAvila/clickup-mcp/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Name is the MCP server name reported to clients.
const Name = "clickup-mcp"

// tool is what every tools.*Tool implements.
type tool interface {
	Definition() mcp.Tool
	Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// New creates and configures the MCP server with all tools, prompts and
// resources registered. cfg.Token must already be resolved.
//
// The returned cleanup function closes the durable store and must be
// called on shutdown (typically via defer). It is always non-nil.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*server.MCPServer, func(), error) {
	// --- Create shared dependencies ---

	backend, err := store.Open(ctx, store.Config{
		Driver: cfg.Store.Driver,
		URL:    cfg.Store.URL,
		Path:   cfg.Store.Path,
	})
	if err != nil {
		return nil, noop, fmt.Errorf("opening %s store: %w", cfg.Store.Driver, err)
	}
	cleanup := noop
	if backend != nil {
		cleanup = func() {
			if err := backend.Close(); err != nil {
				logger.Warn("closing store", "error", err)
			}
		}
	}

	client, err := clickup.New(clickup.Config{
		Token:      cfg.Token,
		BaseURL:    cfg.BaseURL,
		MaxRetries: cfg.Retry.MaxRetries,
		BaseDelay:  time.Duration(cfg.Retry.BaseDelayMs) * time.Millisecond,
		MaxDelay:   time.Duration(cfg.Retry.MaxDelayMs) * time.Millisecond,
		Jitter:     cfg.Retry.Jitter,
		UserAgent:  Name + "/" + Version,
		Logger:     logger,
	})
	if err != nil {
		cleanup()
		return nil, noop, fmt.Errorf("creating ClickUp client: %w", err)
	}

	sc := session.Config{
		TeamID:     cfg.TeamID,
		Credential: cfg.Token,
		Tasks: taskcache.Config{
			TTL:          cfg.Cache.TTL(),
			MaxListPages: cfg.Cache.MaxListPages,
			MaxSearches:  cfg.Cache.MaxSearches,
			MaxContexts:  cfg.Cache.MaxContexts,
			MaxRecords:   cfg.Cache.MaxRecords,
		},
		Logger: logger,
	}
	// A nil Backend stored in the interface field would look non-nil.
	if backend != nil {
		sc.Store = backend
	}
	sessions := session.NewRegistry(sc)

	policy := cfg.Write.Policy()
	deps := &tools.Deps{
		API:      client,
		Sessions: sessions,
		TeamID:   cfg.TeamID,
		Policy:   policy,
		Bulk:     bulk.NewProcessor(cfg.Cache.BulkConcurrency),
		Logger:   logger.With(slog.String("component", "tools")),
	}

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		Name,
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithHooks(sessions.Hooks()),
		server.WithInstructions(serverInstructions(policy)),
	)

	// --- Register read tools ---

	register(s,
		tools.NewListWorkspacesTool(deps),
		tools.NewListSpacesTool(deps),
		tools.NewListFoldersTool(deps),
		tools.NewListListsTool(deps),
		tools.NewListTasksTool(deps),
		tools.NewSearchTasksTool(deps),
		tools.NewGetTaskTool(deps),
		tools.NewFindMemberTool(deps),
		tools.NewSearchDocsTool(deps),
		tools.NewListTimeEntriesTool(deps),
		tools.NewCacheInvalidateTool(deps),
	)

	// --- Register write tools ---
	//
	// Read-only mode leaves them out of the tool list.

	if !policy.ReadOnly() {
		register(s,
			tools.NewCreateTaskTool(deps),
			tools.NewUpdateTaskTool(deps),
			tools.NewDeleteTaskTool(deps),
			tools.NewBulkUpdateTasksTool(deps),
			tools.NewAddTagTool(deps),
			tools.NewRemoveTagTool(deps),
			tools.NewSetCustomFieldTool(deps),
			tools.NewCreateFolderTool(deps),
			tools.NewDeleteFolderTool(deps),
			tools.NewCreateListTool(deps),
			tools.NewDeleteListTool(deps),
			tools.NewCreateTimeEntryTool(deps),
		)
	}

	// --- Register prompts ---

	triagePrompt := prompts.NewTriagePrompt(policy.ReadOnly())
	s.AddPrompt(triagePrompt.Definition(), triagePrompt.Handle)

	statusPrompt := prompts.NewCacheStatusPrompt()
	s.AddPrompt(statusPrompt.Definition(), statusPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(sessions)
	s.AddResource(resourceHandler.CacheStatusResource(), resourceHandler.HandleCacheStatus)

	logger.Info("server ready",
		slog.String("mode", string(policy.Mode)),
		slog.String("store", cfg.Store.Driver),
		slog.Duration("ttl", cfg.Cache.TTL()),
	)
	return s, cleanup, nil
}

func register(s *server.MCPServer, ts ...tool) {
	for _, t := range ts {
		s.AddTool(t.Definition(), t.Handle)
	}
}

// noop is the cleanup function when nothing needs closing.
func noop() {}

// serverInstructions tells the AI how to use the tools effectively.
func serverInstructions(policy config.Policy) string {
	text := `You have access to a ClickUp workspace through this server.

## Navigating
ClickUp is organised as workspace > space > folder > list > task. Use
clickup_list_workspaces, clickup_list_spaces, clickup_list_folders and
clickup_list_lists to find a list, then clickup_list_tasks to read it.
Lists can live directly in a space (folderless): call clickup_list_lists
with only space_id to see those.

## Finding things
- clickup_search_tasks filters across a workspace and ranks by a free-text
  query. Typos are tolerated; lower scores are better.
- clickup_find_member finds people by name, username or email.
- clickup_search_docs finds docs by name.

## Referring to tasks
Every tool acting on one task takes task_id, or task_name together with
context: the task objects a list or search tool returned earlier. Pass
context whenever you use a name; names are not looked up server-side.

## Caching
Reads are cached per session and every result carries cacheMetadata
(lastFetched, ageMs, expiresAt, stale). Writes made through this server
refresh what they touch. If the user changed something in ClickUp directly,
pass force_refresh or call clickup_cache_invalidate.
`
	switch policy.Mode {
	case config.WriteModeRead:
		text += `
## Writes
This server is read-only. Do not offer to change anything in ClickUp.
`
	case config.WriteModeSelective:
		text += `
## Writes
Writes are limited to allow-listed spaces and lists. A refused write says
so in its error; tell the user rather than retrying elsewhere.
`
	default:
		text += `
## Writes
Confirm destructive actions (delete task, folder or list) with the user
first. For more than a few task updates use clickup_bulk_update_tasks.
Assignees can be given as names; an ambiguous name fails with the
candidates so you can ask the user.
`
	}
	return text
}
