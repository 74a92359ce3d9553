package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	mcpserver "github.com/HendryAvila/clickup-mcp/internal/server"
	"github.com/HendryAvila/clickup-mcp/internal/updater"
)

func updateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Update to the latest release",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.ErrOrStderr()
			fmt.Fprintln(out, "Checking for updates...")

			version, err := updater.New(updater.Config{}).SelfUpdate(cmd.Context(), mcpserver.Version)
			if errors.Is(err, updater.ErrUpToDate) {
				fmt.Fprintf(out, "Already at the latest version (%s).\n", mcpserver.Version)
				return nil
			}
			if err != nil {
				return fmt.Errorf("update failed: %w\n\nYou can download manually from https://github.com/%s/releases", err, updater.DefaultRepo)
			}
			fmt.Fprintf(out, "Updated to v%s. Restart clickup-mcp to use it.\n", version)
			return nil
		},
	}
}
