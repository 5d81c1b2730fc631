package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/aidanlsb/projmv/internal/fsutil"
)

// TreeConfigFile is the per-tree settings file, at the tree root.
const TreeConfigFile = ".projmv.yaml"

// TreeConfig holds settings checked in alongside a source tree.
type TreeConfig struct {
	// UseGit overrides the global use_git setting for this tree.
	UseGit *bool `yaml:"use_git,omitempty"`

	ScanConfig `yaml:",inline"`
}

// LoadTreeConfig loads the tree configuration from root.
// Returns an empty config if the file doesn't exist.
func LoadTreeConfig(root string) (*TreeConfig, error) {
	configPath := filepath.Join(root, TreeConfigFile)

	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return &TreeConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read tree config %s: %w", configPath, err)
	}

	var cfg TreeConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse tree config %s: %w", configPath, err)
	}
	return &cfg, nil
}

// SaveTreeConfig writes cfg to root's tree config file.
func SaveTreeConfig(root string, cfg *TreeConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := fsutil.WriteFile(filepath.Join(root, TreeConfigFile), data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", TreeConfigFile, err)
	}
	return nil
}
