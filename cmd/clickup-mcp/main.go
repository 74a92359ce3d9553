// clickup-mcp: ClickUp MCP Server
//
// An MCP server that gives AI tools (Claude Code, OpenCode, Gemini CLI,
// Codex, Cursor, VS Code Copilot) cached, session-scoped access to a
// ClickUp workspace.
//
// Usage:
//
//	clickup-mcp serve          # Start MCP server (stdio transport)
//	clickup-mcp token set      # Store the API token in the OS keyring
//	clickup-mcp cache purge    # Empty the durable cache store
//	clickup-mcp update         # Update to the latest version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/HendryAvila/clickup-mcp/internal/server"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
	profile    string
}

func main() {
	var gf globalFlags

	rootCmd := &cobra.Command{
		Use:           "clickup-mcp",
		Short:         "ClickUp MCP server with session-scoped caching",
		Version:       mcpserver.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&gf.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/clickup-mcp/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&gf.logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&gf.profile, "profile", "", "keyring profile the API token is stored under")

	rootCmd.AddCommand(serveCmd(&gf))
	rootCmd.AddCommand(tokenCmd(&gf))
	rootCmd.AddCommand(cacheCmd(&gf))
	rootCmd.AddCommand(updateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
