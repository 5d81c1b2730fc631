// Package config handles global projmv configuration and per-tree settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/aidanlsb/projmv/internal/fsutil"
)

// Config represents the global projmv configuration.
type Config struct {
	// UseGit moves version-controlled content with "git mv" (default true).
	UseGit *bool `toml:"use_git"`

	// History records every run in a SQLite journal (default true).
	History *bool `toml:"history"`

	// HistoryFile overrides the journal location. Relative paths are resolved
	// against the tree root.
	HistoryFile string `toml:"history_file"`

	// UI controls optional CLI theming preferences.
	UI UIConfig `toml:"ui"`

	// Scan controls which files are considered descriptors and manifests.
	Scan ScanConfig `toml:"scan"`
}

// UIConfig represents optional CLI theming preferences.
type UIConfig struct {
	// Accent is an optional accent color for CLI output and markdown rendering.
	// Supported values are ANSI color codes ("0" to "255") or hex colors ("#RRGGBB").
	Accent string `toml:"accent"`

	// CodeTheme sets the Glamour/Chroma theme used for rendered markdown code blocks.
	CodeTheme string `toml:"code_theme"`
}

// ScanConfig lists file extensions and excluded directory names.
type ScanConfig struct {
	DescriptorExtensions []string `toml:"descriptor_extensions" yaml:"descriptor_extensions,omitempty"`
	ManifestExtensions   []string `toml:"manifest_extensions" yaml:"manifest_extensions,omitempty"`
	ExcludeDirs          []string `toml:"exclude_dirs" yaml:"exclude_dirs,omitempty"`
}

// GitEnabled reports whether git should be used for moves.
func (c *Config) GitEnabled() bool {
	return c == nil || c.UseGit == nil || *c.UseGit
}

// HistoryEnabled reports whether runs should be journaled.
func (c *Config) HistoryEnabled() bool {
	return c == nil || c.History == nil || *c.History
}

// Load loads the configuration from the default location.
// Returns a default config if the file doesn't exist.
func Load() (*Config, error) {
	return LoadFrom(DefaultPath())
}

// LoadFrom loads the configuration from a specific path.
// Returns a default config if the file doesn't exist.
func LoadFrom(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Config{}, nil
	}
	var config Config
	meta, err := toml.DecodeFile(path, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys in config %s: %s", path, strings.Join(keys, ", "))
	}
	return &config, nil
}

// ResolveConfigPath resolves the effective config path from an optional override.
func ResolveConfigPath(explicitConfigPath string) string {
	if strings.TrimSpace(explicitConfigPath) != "" {
		return explicitConfigPath
	}
	return DefaultPath()
}

// DefaultPath returns the default config file path.
// Checks ~/.config/projmv/config.toml first (XDG style),
// then falls back to OS-specific location.
func DefaultPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		xdgPath := filepath.Join(home, ".config", "projmv", "config.toml")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath
		}
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, "projmv", "config.toml")
	}

	return filepath.Join(".", "config.toml")
}

const defaultConfig = `# projmv configuration

# Move version-controlled files with "git mv" (default: true)
# use_git = true

# Record every run in a SQLite journal (default: true)
# history = true
# Journal location. Defaults to a per-tree file under $XDG_STATE_HOME/projmv
# (~/.local/state/projmv). A relative path is resolved against the tree root.
# history_file = "/var/tmp/projmv-history.db"

# [scan]
# descriptor_extensions = [".csproj", ".fsproj", ".vbproj"]
# manifest_extensions = [".sln"]
# exclude_dirs = ["packages"]

# Optional UI accent color for headers in terminal output.
# Supports ANSI color codes (0-255) or hex (#RRGGBB).
# [ui]
# accent = "39"
# code_theme = "monokai"
`

// CreateDefault creates a default config file at path if it doesn't exist.
// Returns true if a new file was created.
func CreateDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := fsutil.WriteFile(path, []byte(defaultConfig), 0o644); err != nil {
		return false, fmt.Errorf("failed to write config file: %w", err)
	}
	return true, nil
}
