package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/clickup-mcp/internal/store"
)

func cacheCmd(gf *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the durable cache store",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Delete every cached entry from the configured store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(gf)
			if err != nil {
				return err
			}
			backend, err := store.Open(cmd.Context(), store.Config{
				Driver: cfg.Store.Driver,
				URL:    cfg.Store.URL,
				Path:   cfg.Store.Path,
			})
			if err != nil {
				return fmt.Errorf("opening %s store: %w", cfg.Store.Driver, err)
			}
			if backend == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No durable store configured; nothing to purge.")
				return nil
			}
			defer func() { _ = backend.Close() }()

			if err := backend.Purge(cmd.Context()); err != nil {
				return fmt.Errorf("purging %s store: %w", cfg.Store.Driver, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Purged the %s store.\n", cfg.Store.Driver)
			return nil
		},
	})
	return cmd
}
