package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/HendryAvila/clickup-mcp/internal/config"
	mcpserver "github.com/HendryAvila/clickup-mcp/internal/server"
	"github.com/HendryAvila/clickup-mcp/internal/updater"
)

type serveFlags struct {
	transport string
	addr      string
	teamID    string
	writeMode string
	store     string
	noUpdate  bool
}

func serveCmd(gf *globalFlags) *cobra.Command {
	var sf serveFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the MCP server.

Examples:
  clickup-mcp serve
  clickup-mcp serve --transport http --addr 127.0.0.1:8787
  clickup-mcp serve --write-mode read`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), gf, &sf)
		},
	}
	cmd.Flags().StringVar(&sf.transport, "transport", "", "transport: stdio or http")
	cmd.Flags().StringVar(&sf.addr, "addr", "", "listen address of the http transport")
	cmd.Flags().StringVar(&sf.teamID, "team", "", "default workspace (team) id")
	cmd.Flags().StringVar(&sf.writeMode, "write-mode", "", "write policy: read, write or selective")
	cmd.Flags().StringVar(&sf.store, "store", "", "durable cache store: none, memory, file, sqlite, redis, postgres")
	cmd.Flags().BoolVar(&sf.noUpdate, "no-update-check", false, "skip the background version check")
	return cmd
}

func (sf *serveFlags) apply(cfg *config.Config) {
	if sf.transport != "" {
		cfg.Transport = sf.transport
	}
	if sf.addr != "" {
		cfg.HTTPAddr = sf.addr
	}
	if sf.teamID != "" {
		cfg.TeamID = sf.teamID
	}
	if sf.writeMode != "" {
		cfg.Write.Mode = config.WriteMode(sf.writeMode)
	}
	if sf.store != "" {
		cfg.Store.Driver = sf.store
	}
}

func runServe(ctx context.Context, gf *globalFlags, sf *serveFlags) error {
	cfg, err := loadConfig(gf)
	if err != nil {
		return err
	}
	sf.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := resolveToken(cfg); err != nil {
		return err
	}
	logger := cfg.Logger()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, cleanup, err := mcpserver.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	// Notices go to stderr; stdout belongs to the stdio transport.
	if !sf.noUpdate {
		go checkForUpdates(ctx, logger)
	}

	if cfg.Transport == "http" {
		return serveHTTP(ctx, s, cfg.HTTPAddr, logger)
	}
	logger.Info("serving MCP over stdio")
	return server.ServeStdio(s)
}

func serveHTTP(ctx context.Context, s *server.MCPServer, addr string, logger *slog.Logger) error {
	httpServer := server.NewStreamableHTTPServer(s)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving MCP over streamable HTTP", slog.String("addr", addr))
		errCh <- httpServer.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return httpServer.Shutdown(shutdownCtx)
	}
}

// checkForUpdates prints a notice to stderr when a newer release exists.
// Failures are ignored.
func checkForUpdates(ctx context.Context, logger *slog.Logger) {
	result := updater.New(updater.Config{}).Check(ctx, mcpserver.Version)
	if result.UpdateAvailable {
		logger.Info("update available",
			slog.String("current", result.CurrentVersion),
			slog.String("latest", result.LatestVersion),
			slog.String("release", result.ReleaseURL),
			slog.String("run", "clickup-mcp update"),
		)
	}
}
