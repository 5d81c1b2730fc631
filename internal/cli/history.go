package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/projmv/internal/fsutil"
	"github.com/aidanlsb/projmv/internal/history"
	"github.com/aidanlsb/projmv/internal/ui"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded relocations",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	if !fsutil.FileExists(settings.HistoryFile) {
		if isJSONOutput() {
			outputSuccess(map[string]interface{}{"runs": []history.Run{}, "path": settings.HistoryFile}, &Meta{})
			return nil
		}
		fmt.Println(ui.Info("No relocations recorded yet"))
		return nil
	}

	store, err := history.Open(settings.HistoryFile)
	if err != nil {
		return handleError(ErrDatabaseError, err, "")
	}
	defer store.Close()

	runs, err := store.List(historyLimit)
	if err != nil {
		return handleError(ErrDatabaseError, err, "")
	}

	if isJSONOutput() {
		if runs == nil {
			runs = []history.Run{}
		}
		outputSuccess(map[string]interface{}{"runs": runs, "path": settings.HistoryFile}, &Meta{Count: len(runs)})
		return nil
	}

	for _, r := range runs {
		status := ui.Success
		if r.State != "done" {
			status = ui.Error
		}
		fmt.Println(status(fmt.Sprintf("#%d %s  %s %s %s  %s",
			r.ID,
			r.StartedAt.Format("2006-01-02 15:04:05"),
			ui.FilePath(r.Project), ui.SymbolArrow, r.Target,
			ui.Hint(r.State))))
		if r.Message != "" {
			fmt.Printf("    %s\n", ui.Hint(r.Message))
		}
		for _, c := range r.Changes {
			fmt.Printf("    %s  %s\n", ui.FilePath(c.File), ui.Rewrite(c.OldValue, c.NewValue))
		}
	}
	return nil
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum runs to list (0 for all)")
	rootCmd.AddCommand(historyCmd)
}
