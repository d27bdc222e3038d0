// Package buildinfo loads the version string and build metadata that label
// the health gauges. It is read once at startup and never reloaded.
package buildinfo

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/Masterminds/semver"
)

// Defaults used when the build artifacts are absent (local development).
const (
	DefaultVersion = "0.0.0-dev"
	Unknown        = "unknown"
)

// Info is the immutable build identity of the running process. Version is
// the VERSION file content as deployed; Semver is its canonical semantic
// version, empty when the version does not parse.
type Info struct {
	Version    string
	Semver     string
	CommitHash string
	Branch     string
}

// Labels returns the Prometheus label set for the health gauges.
func (i Info) Labels() map[string]string {
	return map[string]string{
		"version":     i.Version,
		"commit_hash": i.CommitHash,
		"branch":      i.Branch,
	}
}

// Load reads the version file and the two-line build info file (commit hash,
// then branch). Missing files fall back to defaults and are reported through
// the returned warnings; any other read failure is an error.
func Load(versionFile, buildInfoFile string) (Info, []string, error) {
	info := Info{Version: DefaultVersion, CommitHash: Unknown, Branch: Unknown}
	var warnings []string

	version, err := readVersion(versionFile)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		warnings = append(warnings, fmt.Sprintf("version file %q not found, using %s", versionFile, DefaultVersion))
	case err != nil:
		return Info{}, nil, err
	case version != "":
		info.Version = version
		info.Semver = canonicalSemver(version)
	}

	lines, err := readLines(buildInfoFile, 2)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		warnings = append(warnings, fmt.Sprintf("build info file %q not found, labels set to %s", buildInfoFile, Unknown))
	case err != nil:
		return Info{}, nil, err
	default:
		if len(lines) > 0 && lines[0] != "" {
			info.CommitHash = lines[0]
		}
		if len(lines) > 1 && lines[1] != "" {
			info.Branch = lines[1]
		}
	}
	return info, warnings, nil
}

func readVersion(path string) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return "", fmt.Errorf("read version file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func readLines(path string, limit int) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return nil, fmt.Errorf("open build info: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() && len(lines) < limit {
		lines = append(lines, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read build info: %w", err)
	}
	return lines, nil
}

// canonicalSemver renders semver strings canonically ("v1.2" -> "1.2.0").
func canonicalSemver(raw string) string {
	v, err := semver.NewVersion(raw)
	if err != nil {
		return ""
	}
	return v.String()
}
