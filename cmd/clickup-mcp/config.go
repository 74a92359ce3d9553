package main

import (
	"errors"
	"fmt"

	"github.com/HendryAvila/clickup-mcp/internal/config"
	"github.com/HendryAvila/clickup-mcp/internal/credentials"
)

// loadConfig reads the config file and environment, then applies the
// global flags.
func loadConfig(gf *globalFlags) (*config.Config, error) {
	path := gf.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if gf.logLevel != "" {
		cfg.LogLevel = gf.logLevel
	}
	if gf.profile != "" {
		cfg.Profile = gf.profile
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func credentialManager(cfg *config.Config) *credentials.Manager {
	return credentials.NewManager(credentials.WithAccount(cfg.Profile))
}

// resolveToken fills cfg.Token from the keyring when neither the config
// file nor the environment set it.
func resolveToken(cfg *config.Config) error {
	if cfg.Token != "" {
		return nil
	}
	token, _, err := credentialManager(cfg).Token()
	if errors.Is(err, credentials.ErrNotFound) {
		return fmt.Errorf("%w: set %s or run 'clickup-mcp token set'", err, credentials.EnvToken)
	}
	if err != nil {
		return err
	}
	cfg.Token = token
	return nil
}
