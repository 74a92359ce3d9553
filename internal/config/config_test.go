package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// ─── Load ────────────────────────────────────────────────────────────────────

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := load(filepath.Join(t.TempDir(), "absent.yaml"), envOf(nil))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Cache.TTL() != 5*time.Minute {
		t.Errorf("TTL = %v, want 5m", cfg.Cache.TTL())
	}
	if cfg.Cache.BulkConcurrency != 5 || cfg.Store.Driver != "memory" || cfg.Transport != "stdio" {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
team_id: "9001"
cache:
  ttl_seconds: 60
store:
  driver: sqlite
  path: /tmp/x.db
write:
  allowed_lists: ["L1"]
`)
	cfg, err := load(path, envOf(nil))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TeamID != "9001" || cfg.Cache.TTLSeconds != 60 || cfg.Store.Driver != "sqlite" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Cache.MaxRecords != 5000 {
		t.Errorf("unset nested field lost its default: %d", cfg.Cache.MaxRecords)
	}
	if cfg.Write.Policy().Mode != WriteModeSelective {
		t.Errorf("mode = %s, want selective", cfg.Write.Policy().Mode)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "team_id: file\ncache:\n  ttl_seconds: 60\n")
	cfg, err := load(path, envOf(map[string]string{
		"CLICKUP_TEAM_ID":           "env",
		"CLICKUP_CACHE_TTL_SECONDS": "0",
		"CLICKUP_WRITE_MODE":        "READ",
		"CLICKUP_ALLOWED_SPACES":    "s1, s2,,",
		"CLICKUP_STORE_DRIVER":      "redis",
		"CLICKUP_STORE_URL":         "redis://localhost:6379/0",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TeamID != "env" || cfg.Cache.TTLSeconds != 0 || cfg.Store.Driver != "redis" {
		t.Errorf("cfg = %+v", cfg)
	}
	if diff := cmp.Diff([]string{"s1", "s2"}, cfg.Write.AllowedSpaces); diff != "" {
		t.Errorf("allowed spaces (-want +got):\n%s", diff)
	}
	if !cfg.Write.Policy().ReadOnly() {
		t.Error("explicit read mode should win over allow-lists")
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
		want string
	}{
		{"bad yaml", "cache: [", nil, "invalid YAML"},
		{"bad int", "", map[string]string{"CLICKUP_CACHE_TTL_SECONDS": "soon"}, "not an integer"},
		{"bad mode", "write:\n  mode: sometimes\n", nil, "write.mode"},
		{"bad transport", "transport: carrier-pigeon\n", nil, "transport"},
		{"bad level", "log_level: chatty\n", nil, "log_level"},
		{"bad concurrency", "cache:\n  bulk_concurrency: 0\n", nil, "bulk_concurrency"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(writeFile(t, tt.body), envOf(tt.env))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestSave_OmitsToken(t *testing.T) {
	cfg := Default()
	cfg.Token = "pk_secret"
	cfg.TeamID = "42"
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "pk_secret") {
		t.Error("token written to disk")
	}
	back, err := load(path, envOf(nil))
	if err != nil || back.TeamID != "42" {
		t.Errorf("reload = %+v, %v", back, err)
	}
}

// ─── Write policy ────────────────────────────────────────────────────────────

func TestPolicy_ModePrecedence(t *testing.T) {
	tests := []struct {
		cfg  WriteConfig
		want WriteMode
	}{
		{WriteConfig{}, WriteModeWrite},
		{WriteConfig{AllowedSpaces: []string{"s"}}, WriteModeSelective},
		{WriteConfig{AllowedLists: []string{"l"}}, WriteModeSelective},
		{WriteConfig{Mode: WriteModeWrite, AllowedLists: []string{"l"}}, WriteModeWrite},
		{WriteConfig{Mode: WriteModeRead}, WriteModeRead},
	}
	for _, tt := range tests {
		if got := tt.cfg.Policy().Mode; got != tt.want {
			t.Errorf("%+v: mode = %s, want %s", tt.cfg, got, tt.want)
		}
	}
}

func TestPolicy_Check(t *testing.T) {
	sel := WriteConfig{AllowedSpaces: []string{"S1"}, AllowedLists: []string{"L9"}}.Policy()

	if err := sel.Check(Target{SpaceID: "S1", ListID: "L1"}); err != nil {
		t.Errorf("allowed space rejected: %v", err)
	}
	if err := sel.Check(Target{SpaceID: "S2", ListID: "L9"}); err != nil {
		t.Errorf("allowed list rejected: %v", err)
	}
	if err := sel.Check(Target{SpaceID: "S2", ListID: "L2"}); err == nil {
		t.Error("unlisted target allowed")
	}
	if err := sel.Check(Target{}); err == nil {
		t.Error("unknown target allowed in selective mode")
	}

	if err := (Policy{Mode: WriteModeRead}).Check(Target{SpaceID: "S1"}); err == nil {
		t.Error("read mode allowed a write")
	}
	if err := (Policy{Mode: WriteModeWrite}).Check(Target{}); err != nil {
		t.Errorf("write mode rejected: %v", err)
	}
}
