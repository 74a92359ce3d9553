package updater

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// --- Version helpers ---

func TestNormalizeVersion_StripsV(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"v0.2.0", "0.2.0"},
		{"0.2.0", "0.2.0"},
		{"dev", "dev"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := normalizeVersion(tt.input); got != tt.want {
			t.Errorf("normalizeVersion(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestIsNewer(t *testing.T) {
	tests := []struct {
		current, latest string
		want            bool
	}{
		{"0.2.0", "0.3.0", true},
		{"0.2.0", "0.2.1", true},
		{"0.2.0", "1.0.0", true},
		{"0.3.0", "0.2.0", false},
		{"0.2.0", "0.2.0", false},
		{"0.9.0", "0.10.0", true},
		{"1.2", "1.2.1", true},
		{"1.2.3-rc1", "1.2.3", false},
		{"dev", "9.9.9", false},
		{"", "1.0.0", false},
		{"1.0.0", "", false},
	}
	for _, tt := range tests {
		if got := isNewer(tt.current, tt.latest); got != tt.want {
			t.Errorf("isNewer(%q, %q) = %v, want %v", tt.current, tt.latest, got, tt.want)
		}
	}
}

func TestAssetName(t *testing.T) {
	tests := []struct {
		goos, goarch string
		want         string
	}{
		{"linux", "amd64", "clickup-mcp_0.3.0_linux_amd64.tar.gz"},
		{"darwin", "arm64", "clickup-mcp_0.3.0_darwin_arm64.tar.gz"},
		{"windows", "amd64", "clickup-mcp_0.3.0_windows_amd64.zip"},
	}
	for _, tt := range tests {
		u := New(Config{GOOS: tt.goos, GOARCH: tt.goarch})
		if got := u.assetName("0.3.0"); got != tt.want {
			t.Errorf("assetName on %s/%s = %q, want %q", tt.goos, tt.goarch, got, tt.want)
		}
	}
}

// --- Check ---

// newTestServer serves a fake GitHub release payload.
func newTestServer(t *testing.T, release ReleaseInfo, statusCode int) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(statusCode)
		if statusCode == http.StatusOK {
			_ = json.NewEncoder(w).Encode(release)
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func testUpdater(ts *httptest.Server, executable string) *Updater {
	return New(Config{
		Endpoint:   ts.URL,
		HTTPClient: ts.Client(),
		Executable: executable,
		GOOS:       "linux",
		GOARCH:     "amd64",
	})
}

func TestCheck_UpdateAvailable(t *testing.T) {
	release := ReleaseInfo{
		TagName: "v0.3.0",
		HTMLURL: "https://github.com/HendryAvila/clickup-mcp/releases/tag/v0.3.0",
	}
	ts := newTestServer(t, release, http.StatusOK)

	result := testUpdater(ts, "").Check(context.Background(), "v0.2.0")

	if !result.UpdateAvailable {
		t.Error("expected UpdateAvailable to be true")
	}
	if result.LatestVersion != "0.3.0" || result.CurrentVersion != "0.2.0" {
		t.Errorf("versions = %q -> %q", result.CurrentVersion, result.LatestVersion)
	}
	if result.ReleaseURL != release.HTMLURL {
		t.Errorf("ReleaseURL = %q, want %q", result.ReleaseURL, release.HTMLURL)
	}
}

func TestCheck_NoUpdate(t *testing.T) {
	closed := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	closed.Close()

	tests := []struct {
		name    string
		ts      *httptest.Server
		current string
	}{
		{"already latest", newTestServer(t, ReleaseInfo{TagName: "v0.2.0"}, http.StatusOK), "v0.2.0"},
		{"dev build", newTestServer(t, ReleaseInfo{TagName: "v0.3.0"}, http.StatusOK), "dev"},
		{"API error", newTestServer(t, ReleaseInfo{}, http.StatusForbidden), "v0.2.0"},
		{"network error", closed, "v0.2.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := testUpdater(tt.ts, "").Check(context.Background(), tt.current)
			if result.UpdateAvailable {
				t.Error("expected UpdateAvailable to be false")
			}
		})
	}
}

// --- SelfUpdate ---

func createTestTarGz(t *testing.T, name string, content []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)

	if err := tw.WriteHeader(&tar.Header{Name: name, Mode: 0o755, Size: int64(len(content))}); err != nil {
		t.Fatalf("writing tar header: %v", err)
	}
	if _, err := tw.Write(content); err != nil {
		t.Fatalf("writing tar body: %v", err)
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("closing tar writer: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("closing gzip writer: %v", err)
	}
	return buf.Bytes()
}

func createTestZip(t *testing.T, name string, content []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(name)
	if err != nil {
		t.Fatalf("creating zip entry: %v", err)
	}
	if _, err := w.Write(content); err != nil {
		t.Fatalf("writing zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip writer: %v", err)
	}
	return buf.Bytes()
}

// releaseServer serves release metadata at / and the archive under /download/.
func releaseServer(t *testing.T, version, assetName string, archive []byte) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/download/"+assetName, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(archive)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(ReleaseInfo{
			TagName: "v" + version,
			Assets: []Asset{{
				Name:               assetName,
				BrowserDownloadURL: "http://" + r.Host + "/download/" + assetName,
			}},
		})
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func TestSelfUpdate_ReplacesExecutable(t *testing.T) {
	fakeBinary := []byte("#!/bin/sh\necho updated\n")
	assetName := "clickup-mcp_0.3.0_linux_amd64.tar.gz"
	ts := releaseServer(t, "0.3.0", assetName, createTestTarGz(t, "clickup-mcp", fakeBinary))

	exe := filepath.Join(t.TempDir(), "clickup-mcp")
	if err := os.WriteFile(exe, []byte("old binary"), 0o755); err != nil {
		t.Fatalf("creating fake binary: %v", err)
	}

	got, err := testUpdater(ts, exe).SelfUpdate(context.Background(), "v0.2.0")
	if err != nil {
		t.Fatalf("SelfUpdate: %v", err)
	}
	if got != "0.3.0" {
		t.Errorf("version = %q, want 0.3.0", got)
	}
	data, err := os.ReadFile(exe)
	if err != nil {
		t.Fatalf("reading replaced binary: %v", err)
	}
	if !bytes.Equal(data, fakeBinary) {
		t.Errorf("binary = %q, want %q", data, fakeBinary)
	}
}

func TestSelfUpdate_AlreadyLatest(t *testing.T) {
	ts := newTestServer(t, ReleaseInfo{TagName: "v0.2.0"}, http.StatusOK)
	_, err := testUpdater(ts, filepath.Join(t.TempDir(), "x")).SelfUpdate(context.Background(), "v0.2.0")
	if !errors.Is(err, ErrUpToDate) {
		t.Errorf("err = %v, want ErrUpToDate", err)
	}
}

func TestSelfUpdate_APIError(t *testing.T) {
	ts := newTestServer(t, ReleaseInfo{}, http.StatusInternalServerError)
	_, err := testUpdater(ts, "").SelfUpdate(context.Background(), "v0.2.0")
	if err == nil || !strings.Contains(err.Error(), "500") {
		t.Errorf("err = %v, want the status code", err)
	}
}

func TestSelfUpdate_NoMatchingAsset(t *testing.T) {
	ts := newTestServer(t, ReleaseInfo{
		TagName: "v0.3.0",
		Assets:  []Asset{{Name: "clickup-mcp_0.3.0_plan9_mips.tar.gz"}},
	}, http.StatusOK)
	_, err := testUpdater(ts, "").SelfUpdate(context.Background(), "v0.2.0")
	if err == nil || !strings.Contains(err.Error(), "no release asset") {
		t.Errorf("err = %v", err)
	}
}

// --- Archive extraction ---

func TestExtractBinary(t *testing.T) {
	content := []byte("binary")
	tests := []struct {
		name    string
		asset   string
		archive []byte
		wantErr string
	}{
		{"tar.gz", "a.tar.gz", createTestTarGz(t, "dist/clickup-mcp", content), ""},
		{"zip", "a.zip", createTestZip(t, "clickup-mcp.exe", content), ""},
		{"tar.gz without binary", "a.tar.gz", createTestTarGz(t, "README.md", content), "not found"},
		{"zip without binary", "a.zip", createTestZip(t, "README.md", content), "not found"},
		{"invalid gzip", "a.tar.gz", []byte("not gzip"), "opening gzip"},
		{"invalid zip", "a.zip", []byte("not zip"), "opening zip"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractBinary(tt.archive, tt.asset)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("extractBinary: %v", err)
			}
			if !bytes.Equal(got, content) {
				t.Errorf("got %q, want %q", got, content)
			}
		})
	}
}
