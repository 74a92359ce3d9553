package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/clickup-mcp/internal/credentials"
)

func tokenCmd(gf *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the ClickUp API token in the OS keyring",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set [token]",
		Short: "Store the API token (reads stdin when no argument is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(gf)
			if err != nil {
				return err
			}
			token := ""
			if len(args) == 1 {
				token = args[0]
			} else {
				fmt.Fprint(os.Stderr, "ClickUp API token: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("reading token: %w", err)
				}
				token = strings.TrimSpace(line)
			}
			if err := credentialManager(cfg).Set(token); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Token %s stored in the keyring.\n", credentials.Mask(token))
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete",
		Short: "Remove the stored API token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(gf)
			if err != nil {
				return err
			}
			if err := credentialManager(cfg).Delete(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Token removed.")
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show where the API token comes from",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(gf)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if cfg.Token != "" {
				fmt.Fprintf(out, "Token %s from the config file or %s\n", credentials.Mask(cfg.Token), credentials.EnvToken)
				return nil
			}
			token, source, err := credentialManager(cfg).Token()
			if errors.Is(err, credentials.ErrNotFound) {
				fmt.Fprintln(out, "No token configured.")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Token %s from %s\n", credentials.Mask(token), source)
			return nil
		},
	})
	return cmd
}
