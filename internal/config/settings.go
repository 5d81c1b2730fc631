package config

import (
	"path/filepath"
	"strings"

	"github.com/aidanlsb/projmv/internal/history"
	"github.com/aidanlsb/projmv/internal/scan"
)

// Settings is the effective configuration for one tree.
type Settings struct {
	UseGit      bool
	History     bool
	HistoryFile string
	Scan        scan.Options
	UI          UIConfig
}

// Resolve merges built-in defaults, the global config and the tree config.
// Extension lists are replaced by the most specific layer that sets them;
// excluded directories accumulate across layers.
func Resolve(root string, global *Config, tree *TreeConfig) Settings {
	if global == nil {
		global = &Config{}
	}
	if tree == nil {
		tree = &TreeConfig{}
	}

	s := Settings{
		UseGit:  global.GitEnabled(),
		History: global.HistoryEnabled(),
		Scan:    scan.DefaultOptions(),
		UI:      global.UI,
	}
	if tree.UseGit != nil {
		s.UseGit = *tree.UseGit
	}

	for _, layer := range []ScanConfig{global.Scan, tree.ScanConfig} {
		if len(layer.DescriptorExtensions) > 0 {
			s.Scan.DescriptorExtensions = layer.DescriptorExtensions
		}
		if len(layer.ManifestExtensions) > 0 {
			s.Scan.ManifestExtensions = layer.ManifestExtensions
		}
		s.Scan.ExcludeDirs = appendUnique(s.Scan.ExcludeDirs, layer.ExcludeDirs...)
	}

	s.HistoryFile = history.PathFor(root)
	if f := strings.TrimSpace(global.HistoryFile); f != "" {
		if filepath.IsAbs(f) {
			s.HistoryFile = filepath.Clean(f)
		} else {
			s.HistoryFile = filepath.Join(root, filepath.FromSlash(f))
		}
	}
	return s
}

func appendUnique(list []string, items ...string) []string {
	seen := make(map[string]bool, len(list))
	for _, v := range list {
		seen[strings.ToLower(v)] = true
	}
	for _, v := range items {
		v = strings.TrimSpace(v)
		if v == "" || seen[strings.ToLower(v)] {
			continue
		}
		seen[strings.ToLower(v)] = true
		list = append(list, v)
	}
	return list
}
