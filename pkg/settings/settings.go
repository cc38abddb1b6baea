// Package settings provides build metadata, per-run options, and context
// helpers shared by the kvedit CLI and library packages.
package settings

import (
	"fmt"
	"os"
	"path/filepath"
)

// CliBinaryName is the canonical binary name for this tool.
const CliBinaryName = "kvedit"

// EnvPrefix prefixes every environment variable the tool reads.
const EnvPrefix = "KVEDIT"

// VersionInformation is populated at build time via ldflags and holds the
// commit hash, semantic version, and build timestamp of the running binary.
var VersionInformation = VersionInfo{
	Commit:       "unknown",
	BuildVersion: "v0.0.0-nightly",
	BuildTime:    "unknown",
}

// VersionInfo holds metadata about the build, including the commit hash,
// build version, and build timestamp.
type VersionInfo struct {
	Commit       string `json:"commit" yaml:"commit"`
	BuildVersion string `json:"version" yaml:"version"`
	BuildTime    string `json:"buildTime" yaml:"buildTime"`
}

// String renders the version line printed by "kvedit version".
func (v VersionInfo) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", CliBinaryName, v.BuildVersion, v.Commit, v.BuildTime)
}

// Run holds the settings of a single CLI invocation, filled from global
// flags before any subcommand runs.
type Run struct {
	MinLogLevel int8
	ConfigFile  string
	NoColor     bool
	// Width overrides the detected terminal width (0 = detect).
	Width       int
	IsQuiet     bool
	ExitOnError bool
}

// NewCliParams returns the defaults for a CLI run: info logging, color on,
// exit on error.
func NewCliParams() *Run {
	return &Run{
		MinLogLevel: 0,
		ExitOnError: true,
	}
}

// ConfigDir is the per-user directory holding config.yaml and recent.json:
// $XDG_CONFIG_HOME/kvedit on Linux, the platform equivalent elsewhere.
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config directory: %w", err)
	}
	return filepath.Join(base, CliBinaryName), nil
}
