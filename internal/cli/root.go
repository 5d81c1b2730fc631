// Package cli implements the command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/aidanlsb/projmv/internal/config"
	"github.com/aidanlsb/projmv/internal/fsutil"
	"github.com/aidanlsb/projmv/internal/ui"
)

var (
	// Global flags
	rootFlag   string
	configPath string
	noGit      bool
	noHistory  bool
	verbose    bool

	// Resolved values
	resolvedRoot       string
	resolvedConfigPath string
	cfg                *config.Config
	settings           config.Settings
	logger             *log.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "projmv",
	Short: "Move and rename .NET projects without breaking references",
	Long: `projmv moves a project file (.csproj, .fsproj, .vbproj) and its directory
to a new name and location, then repairs every ProjectReference and
solution entry the move broke.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = newLogger(os.Stderr, verbose)

		switch cmd.Name() {
		case "version", "help", "completion":
			return nil
		}
		if cmd.Parent() != nil && cmd.Parent().Name() == "completion" {
			return nil
		}

		var err error
		cfg, resolvedConfigPath, err = loadGlobalConfigWithPath()
		if err != nil {
			return handleError(ErrConfigInvalid, err, errorSuggestion(ErrConfigInvalid))
		}
		ui.ConfigureTheme(cfg.UI.Accent)
		ui.ConfigureMarkdownCodeTheme(cfg.UI.CodeTheme)

		resolvedRoot, err = resolveRoot(rootFlag)
		if err != nil {
			return handleError(ErrFileNotFound, err, "Pass --root with the directory holding your solution")
		}

		treeCfg, err := config.LoadTreeConfig(resolvedRoot)
		if err != nil {
			return handleError(ErrConfigInvalid, err, "")
		}
		settings = config.Resolve(resolvedRoot, cfg, treeCfg)
		if noGit {
			settings.UseGit = false
		}
		if noHistory {
			settings.History = false
		}
		logger.Debug("settings resolved", "root", resolvedRoot, "git", settings.UseGit, "history", settings.History)
		return nil
	},
}

// Execute runs the CLI.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err == nil || errors.Is(err, errReported) {
		return err
	}
	if jsonOutput {
		outputError(ErrInternal, err.Error(), nil, "")
		return err
	}
	fmt.Fprintln(os.Stderr, ui.Error(err.Error()))
	var suggested *suggestedError
	if errors.As(err, &suggested) {
		fmt.Fprintln(os.Stderr, ui.Hint("  "+suggested.suggestion))
	}
	return err
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rootFlag, "root", ".", "Root of the source tree")
	flags.StringVar(&configPath, "config", "", "Path to config file")
	flags.BoolVar(&jsonOutput, "json", false, "Output in JSON format (for scripts)")
	flags.BoolVar(&noGit, "no-git", false, "Move with plain renames even inside a git work tree")
	flags.BoolVar(&noHistory, "no-history", false, "Do not record the run in the history journal")
	flags.BoolVarP(&verbose, "verbose", "V", false, "Log every step to stderr")
}

func resolveRoot(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		raw = "."
	}
	abs, err := filepath.Abs(raw)
	if err != nil {
		return "", err
	}
	if !fsutil.DirExists(abs) {
		return "", fmt.Errorf("root not found: %s: %w", abs, os.ErrNotExist)
	}
	return abs, nil
}

func loadGlobalConfigWithPath() (*config.Config, string, error) {
	resolvedPath := config.ResolveConfigPath(configPath)
	loadedCfg, err := config.LoadFrom(resolvedPath)
	if err != nil {
		return nil, "", err
	}
	if loadedCfg == nil {
		loadedCfg = &config.Config{}
	}
	return loadedCfg, resolvedPath, nil
}
