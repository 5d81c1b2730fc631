package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/projmv/internal/config"
	"github.com/aidanlsb/projmv/internal/fsutil"
	"github.com/aidanlsb/projmv/internal/ui"
)

var (
	configTreeExclude []string
	configTreeNoGit   bool
)

func configData() map[string]interface{} {
	treePath := filepath.Join(resolvedRoot, config.TreeConfigFile)
	return map[string]interface{}{
		"config_path":   resolvedConfigPath,
		"config_exists": fsutil.FileExists(resolvedConfigPath),
		"tree_config":   treePath,
		"tree_exists":   fsutil.FileExists(treePath),
		"root":          resolvedRoot,
		"use_git":       settings.UseGit,
		"history":       settings.History,
		"history_file":  settings.HistoryFile,
		"scan": map[string]interface{}{
			"descriptor_extensions": settings.Scan.DescriptorExtensions,
			"manifest_extensions":   settings.Scan.ManifestExtensions,
			"exclude_dirs":          settings.Scan.ExcludeDirs,
		},
		"ui": map[string]interface{}{
			"accent":     strings.TrimSpace(settings.UI.Accent),
			"code_theme": strings.TrimSpace(settings.UI.CodeTheme),
		},
	}
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	if isJSONOutput() {
		outputSuccess(configData(), nil)
		return nil
	}

	status := "(not created)"
	if fsutil.FileExists(resolvedConfigPath) {
		status = ""
	}
	fmt.Printf("config:       %s %s\n", ui.FilePath(resolvedConfigPath), ui.Hint(status))
	fmt.Printf("root:         %s\n", ui.FilePath(resolvedRoot))
	fmt.Printf("use_git:      %t\n", settings.UseGit)
	fmt.Printf("history:      %t\n", settings.History)
	fmt.Printf("history_file: %s\n", settings.HistoryFile)
	fmt.Printf("descriptors:  %s\n", strings.Join(settings.Scan.DescriptorExtensions, " "))
	fmt.Printf("manifests:    %s\n", strings.Join(settings.Scan.ManifestExtensions, " "))
	fmt.Printf("exclude_dirs: %s\n", strings.Join(settings.Scan.ExcludeDirs, " "))
	if v := strings.TrimSpace(settings.UI.Accent); v != "" {
		fmt.Printf("ui.accent:    %s\n", v)
	}
	if v := strings.TrimSpace(settings.UI.CodeTheme); v != "" {
		fmt.Printf("ui.code_theme: %s\n", v)
	}
	return nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective settings for the tree",
	Long: `Show the effective settings: built-in defaults, overlaid by the global
config.toml, overlaid by the tree's .projmv.yaml.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the default global config.toml if missing",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		created, err := config.CreateDefault(resolvedConfigPath)
		if err != nil {
			return handleError(ErrInternal, err, "")
		}

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{
				"config_path": resolvedConfigPath,
				"created":     created,
			}, nil)
			return nil
		}
		if created {
			fmt.Println(ui.Successf("Created config: %s", ui.FilePath(resolvedConfigPath)))
		} else {
			fmt.Println(ui.Info("Config already exists: " + resolvedConfigPath))
		}
		return nil
	},
}

var configTreeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Write tree settings to .projmv.yaml",
	Long: `Write per-tree settings to .projmv.yaml at the root. Existing settings are
kept; --exclude adds directory names to skip while scanning.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tree, err := config.LoadTreeConfig(resolvedRoot)
		if err != nil {
			return handleError(ErrConfigInvalid, err, "")
		}

		var changed []string
		for _, d := range configTreeExclude {
			d = strings.TrimSpace(d)
			if d == "" || containsFold(tree.ExcludeDirs, d) {
				continue
			}
			tree.ExcludeDirs = append(tree.ExcludeDirs, d)
			changed = append(changed, "exclude_dirs")
		}
		if cmd.Flags().Changed("no-git-moves") {
			useGit := !configTreeNoGit
			tree.UseGit = &useGit
			changed = append(changed, "use_git")
		}

		if err := config.SaveTreeConfig(resolvedRoot, tree); err != nil {
			return handleError(ErrInternal, err, "")
		}

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{
				"path":         filepath.Join(resolvedRoot, config.TreeConfigFile),
				"exclude_dirs": tree.ExcludeDirs,
				"use_git":      tree.UseGit,
				"changed":      len(changed) > 0,
			}, nil)
			return nil
		}
		fmt.Println(ui.Successf("Wrote %s", ui.FilePath(config.TreeConfigFile)))
		return nil
	},
}

func containsFold(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configTreeCmd)

	configTreeCmd.Flags().StringSliceVar(&configTreeExclude, "exclude", nil, "Directory name to skip while scanning (repeatable)")
	configTreeCmd.Flags().BoolVar(&configTreeNoGit, "no-git-moves", false, "Always move this tree with plain renames")

	rootCmd.AddCommand(configCmd)
}
