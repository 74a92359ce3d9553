// Package config loads the server configuration from a YAML file and the
// environment. Environment variables override the file; CLI flags are
// applied last by the caller.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const appName = "clickup-mcp"

// Config is the full server configuration.
type Config struct {
	Token     string      `yaml:"token,omitempty"`
	Profile   string      `yaml:"profile,omitempty"`
	TeamID    string      `yaml:"team_id,omitempty"`
	BaseURL   string      `yaml:"base_url,omitempty"`
	LogLevel  string      `yaml:"log_level,omitempty"`
	Transport string      `yaml:"transport,omitempty"`
	HTTPAddr  string      `yaml:"http_addr,omitempty"`
	Cache     CacheConfig `yaml:"cache"`
	Store     StoreConfig `yaml:"store"`
	Write     WriteConfig `yaml:"write"`
	Retry     RetryConfig `yaml:"retry"`
}

// CacheConfig sizes the session caches.
type CacheConfig struct {
	TTLSeconds      int `yaml:"ttl_seconds"`
	BulkConcurrency int `yaml:"bulk_concurrency"`
	MaxListPages    int `yaml:"max_list_pages"`
	MaxSearches     int `yaml:"max_searches"`
	MaxContexts     int `yaml:"max_contexts"`
	MaxRecords      int `yaml:"max_records"`
}

// TTL is the cache lifetime; zero or less disables caching.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// StoreConfig selects the durable backing store for the hierarchy snapshot.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	URL    string `yaml:"url,omitempty"`
	Path   string `yaml:"path,omitempty"`
}

// RetryConfig tunes the REST client's rate-limit handling.
type RetryConfig struct {
	MaxRetries  int  `yaml:"max_retries"`
	BaseDelayMs int  `yaml:"base_delay_ms"`
	MaxDelayMs  int  `yaml:"max_delay_ms"`
	Jitter      bool `yaml:"jitter"`
}

// WriteConfig controls which write tools may mutate what.
type WriteConfig struct {
	Mode          WriteMode `yaml:"mode,omitempty"`
	AllowedSpaces []string  `yaml:"allowed_spaces,omitempty"`
	AllowedLists  []string  `yaml:"allowed_lists,omitempty"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		BaseURL:   "https://api.clickup.com/api",
		LogLevel:  "info",
		Transport: "stdio",
		HTTPAddr:  "127.0.0.1:8787",
		Cache: CacheConfig{
			TTLSeconds:      300,
			BulkConcurrency: 5,
			MaxListPages:    200,
			MaxSearches:     100,
			MaxContexts:     100,
			MaxRecords:      5000,
		},
		Store: StoreConfig{
			Driver: "memory",
			Path:   filepath.Join(DataDir(), "cache"),
		},
		Retry: RetryConfig{
			MaxRetries:  4,
			BaseDelayMs: 1000,
			MaxDelayMs:  30000,
			Jitter:      true,
		},
	}
}

// DefaultPath is $XDG_CONFIG_HOME/clickup-mcp/config.yaml.
func DefaultPath() string {
	return filepath.Join(xdgDir("XDG_CONFIG_HOME", ".config"), "config.yaml")
}

// DataDir is $XDG_DATA_HOME/clickup-mcp.
func DataDir() string {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func xdgDir(envVar, fallback string) string {
	if dir := os.Getenv(envVar); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", fallback, appName)
	}
	return filepath.Join(home, fallback, appName)
}

// Load reads path (DefaultPath when empty) over the defaults and then
// applies environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	return load(path, os.Getenv)
}

func load(path string, getenv func(string) string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath()
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}
	cfg.Store.Path = expandPath(cfg.Store.Path)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	str := func(name string, dst *string) {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			*dst = v
		}
	}
	str("CLICKUP_API_TOKEN", &c.Token)
	str("CLICKUP_PROFILE", &c.Profile)
	str("CLICKUP_TEAM_ID", &c.TeamID)
	str("CLICKUP_BASE_URL", &c.BaseURL)
	str("CLICKUP_LOG_LEVEL", &c.LogLevel)
	str("CLICKUP_TRANSPORT", &c.Transport)
	str("CLICKUP_HTTP_ADDR", &c.HTTPAddr)
	str("CLICKUP_STORE_DRIVER", &c.Store.Driver)
	str("CLICKUP_STORE_URL", &c.Store.URL)
	str("CLICKUP_STORE_PATH", &c.Store.Path)

	if v := strings.TrimSpace(getenv("CLICKUP_WRITE_MODE")); v != "" {
		c.Write.Mode = WriteMode(strings.ToLower(v))
	}
	if v := getenv("CLICKUP_ALLOWED_SPACES"); v != "" {
		c.Write.AllowedSpaces = splitList(v)
	}
	if v := getenv("CLICKUP_ALLOWED_LISTS"); v != "" {
		c.Write.AllowedLists = splitList(v)
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"CLICKUP_CACHE_TTL_SECONDS", &c.Cache.TTLSeconds},
		{"CLICKUP_BULK_CONCURRENCY", &c.Cache.BulkConcurrency},
		{"CLICKUP_MAX_RETRIES", &c.Retry.MaxRetries},
	}
	for _, i := range ints {
		v := strings.TrimSpace(getenv(i.name))
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %q is not an integer", i.name, v)
		}
		*i.dst = n
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func expandPath(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	switch c.Write.Mode {
	case "", WriteModeRead, WriteModeWrite, WriteModeSelective:
	default:
		return fmt.Errorf("write.mode must be read, write or selective, got %q", c.Write.Mode)
	}
	switch c.Transport {
	case "stdio", "http":
	default:
		return fmt.Errorf("transport must be stdio or http, got %q", c.Transport)
	}
	if c.Cache.BulkConcurrency < 1 {
		return fmt.Errorf("cache.bulk_concurrency must be at least 1, got %d", c.Cache.BulkConcurrency)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a log_level string to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}

// Logger builds the process logger. It always writes to stderr because
// stdout carries the stdio transport.
func (c *Config) Logger() *slog.Logger {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// Save writes c to path as YAML, creating the directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	out := *c
	out.Token = ""
	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
