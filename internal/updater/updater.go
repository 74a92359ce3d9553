// Package updater checks GitHub releases for a newer clickup-mcp and can
// replace the running binary with it.
//
// The check is best-effort and never fails the caller; SelfUpdate reports
// every failure. No restart happens: the MCP host has to relaunch the
// server after an update.
package updater

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/natefinch/atomic"
)

const (
	// DefaultRepo is the GitHub repository releases are published to.
	DefaultRepo = "HendryAvila/clickup-mcp"

	// Binary is the executable name inside release archives.
	Binary = "clickup-mcp"

	checkTimeout = 10 * time.Second

	// maxArchiveSize bounds how much of a release asset is read.
	maxArchiveSize = 100 << 20
)

// ErrUpToDate is returned by SelfUpdate when no newer release exists.
var ErrUpToDate = errors.New("already at the latest version")

// ReleaseInfo holds the relevant fields from a GitHub release.
type ReleaseInfo struct {
	TagName string  `json:"tag_name"`
	HTMLURL string  `json:"html_url"`
	Assets  []Asset `json:"assets"`
}

// Asset represents a downloadable file in a GitHub release.
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// UpdateResult is returned by Check to communicate the outcome.
type UpdateResult struct {
	CurrentVersion  string
	LatestVersion   string
	UpdateAvailable bool
	ReleaseURL      string
}

// Config configures an Updater. Zero values select the public GitHub API.
type Config struct {
	Repo       string
	Endpoint   string
	HTTPClient *http.Client
	// Executable is the file SelfUpdate replaces; defaults to the running binary.
	Executable string
	GOOS       string
	GOARCH     string
}

// Updater talks to the GitHub releases API for one repository.
type Updater struct {
	endpoint   string
	client     *http.Client
	executable string
	goos       string
	goarch     string
}

// New creates an Updater.
func New(cfg Config) *Updater {
	u := &Updater{
		endpoint:   cfg.Endpoint,
		client:     cfg.HTTPClient,
		executable: cfg.Executable,
		goos:       cfg.GOOS,
		goarch:     cfg.GOARCH,
	}
	if u.endpoint == "" {
		repo := cfg.Repo
		if repo == "" {
			repo = DefaultRepo
		}
		u.endpoint = "https://api.github.com/repos/" + repo + "/releases/latest"
	}
	if u.client == nil {
		u.client = &http.Client{Timeout: checkTimeout}
	}
	if u.goos == "" {
		u.goos = runtime.GOOS
	}
	if u.goarch == "" {
		u.goarch = runtime.GOARCH
	}
	return u
}

func (u *Updater) latest(ctx context.Context, currentVersion string) (*ReleaseInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", Binary+"/"+currentVersion)

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("checking latest release: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API returned %d", resp.StatusCode)
	}
	var release ReleaseInfo
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("parsing release info: %w", err)
	}
	return &release, nil
}

// Check compares currentVersion with the latest release. Network and API
// failures leave UpdateAvailable false.
func (u *Updater) Check(ctx context.Context, currentVersion string) *UpdateResult {
	result := &UpdateResult{CurrentVersion: normalizeVersion(currentVersion)}
	release, err := u.latest(ctx, currentVersion)
	if err != nil {
		return result
	}
	result.LatestVersion = normalizeVersion(release.TagName)
	result.ReleaseURL = release.HTMLURL
	result.UpdateAvailable = isNewer(result.CurrentVersion, result.LatestVersion)
	return result
}

// SelfUpdate downloads the release archive for this platform and swaps
// the executable for the binary inside it. It returns the new version.
func (u *Updater) SelfUpdate(ctx context.Context, currentVersion string) (string, error) {
	release, err := u.latest(ctx, currentVersion)
	if err != nil {
		return "", err
	}
	latest := normalizeVersion(release.TagName)
	if !isNewer(normalizeVersion(currentVersion), latest) {
		return "", fmt.Errorf("%w (%s)", ErrUpToDate, currentVersion)
	}

	assetName := u.assetName(latest)
	var downloadURL string
	for _, asset := range release.Assets {
		if asset.Name == assetName {
			downloadURL = asset.BrowserDownloadURL
			break
		}
	}
	if downloadURL == "" {
		return "", fmt.Errorf("no release asset for %s/%s (looking for %s)", u.goos, u.goarch, assetName)
	}

	archive, err := u.download(ctx, downloadURL)
	if err != nil {
		return "", err
	}
	binary, err := extractBinary(archive, assetName)
	if err != nil {
		return "", fmt.Errorf("extracting binary: %w", err)
	}

	execPath, err := u.target()
	if err != nil {
		return "", err
	}
	// A running executable cannot be overwritten on Windows; move it aside.
	if u.goos == "windows" {
		oldPath := execPath + ".old"
		_ = os.Remove(oldPath)
		if err := os.Rename(execPath, oldPath); err != nil {
			return "", fmt.Errorf("backing up current binary: %w", err)
		}
	}
	if err := atomic.WriteFile(execPath, bytes.NewReader(binary)); err != nil {
		return "", fmt.Errorf("replacing binary: %w", err)
	}
	if err := os.Chmod(execPath, 0o755); err != nil {
		return "", fmt.Errorf("making binary executable: %w", err)
	}
	return latest, nil
}

func (u *Updater) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating download request: %w", err)
	}
	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading release: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download returned %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxArchiveSize))
	if err != nil {
		return nil, fmt.Errorf("reading release archive: %w", err)
	}
	return data, nil
}

func (u *Updater) target() (string, error) {
	if u.executable != "" {
		return u.executable, nil
	}
	execPath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("finding current executable: %w", err)
	}
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return "", fmt.Errorf("resolving symlinks: %w", err)
	}
	return execPath, nil
}

// assetName matches GoReleaser's name_template for this platform.
func (u *Updater) assetName(version string) string {
	ext := "tar.gz"
	if u.goos == "windows" {
		ext = "zip"
	}
	return fmt.Sprintf("%s_%s_%s_%s.%s", Binary, version, u.goos, u.goarch, ext)
}

func isBinary(name string) bool {
	base := filepath.Base(name)
	return base == Binary || base == Binary+".exe"
}

func extractBinary(archive []byte, assetName string) ([]byte, error) {
	if strings.HasSuffix(assetName, ".zip") {
		return extractFromZip(archive)
	}
	return extractFromTarGz(archive)
}

func extractFromTarGz(archive []byte) ([]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(archive))
	if err != nil {
		return nil, fmt.Errorf("opening gzip: %w", err)
	}
	defer func() { _ = gz.Close() }()

	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading tar: %w", err)
		}
		if isBinary(header.Name) {
			data, err := io.ReadAll(tr)
			if err != nil {
				return nil, fmt.Errorf("reading binary from tar: %w", err)
			}
			return data, nil
		}
	}
	return nil, fmt.Errorf("%s binary not found in archive", Binary)
}

func extractFromZip(archive []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("opening zip: %w", err)
	}
	for _, f := range zr.File {
		if !isBinary(f.Name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s in zip: %w", f.Name, err)
		}
		defer func() { _ = rc.Close() }()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("reading binary from zip: %w", err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%s binary not found in archive", Binary)
}

func normalizeVersion(v string) string {
	return strings.TrimPrefix(v, "v")
}

// isNewer compares major.minor.patch numerically. A "dev" build never
// updates.
func isNewer(current, latest string) bool {
	if current == "" || latest == "" || current == "dev" {
		return false
	}
	c, l := versionParts(current), versionParts(latest)
	for i := range c {
		if l[i] != c[i] {
			return l[i] > c[i]
		}
	}
	return false
}

func versionParts(v string) [3]int {
	var out [3]int
	for i, part := range strings.SplitN(v, ".", 3) {
		out[i] = leadingInt(part)
	}
	return out
}

// leadingInt parses the leading digits of s, so "3-rc1" is 3.
func leadingInt(s string) int {
	n := 0
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			break
		}
		n = n*10 + int(ch-'0')
	}
	return n
}
