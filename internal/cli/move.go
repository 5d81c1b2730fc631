package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/projmv/internal/relocate"
	"github.com/aidanlsb/projmv/internal/ui"
)

var moveSubfolder string

var moveCmd = &cobra.Command{
	Use:   "move <project> <target>",
	Short: "Move and rename a project, then repair references",
	Long: `Move a project file and its directory to a new name, then repair every
relative ProjectReference and solution entry the move broke.

<project> is the project file, relative to the working directory or to --root.
<target> is the new project name, never a path. The project extension is kept:
"Sample.Core" becomes Sample.Core/Sample.Core.csproj next to the old directory.

Examples:
  projmv move SampleLib/SampleLib.csproj Sample.Core
  projmv move SampleLib/SampleLib.csproj Sample.Core --subfolder src
  projmv move src/App/App.fsproj App.Web --json`,
	Args: cobra.ExactArgs(2),
	RunE: runMove,
}

func runMove(cmd *cobra.Command, args []string) error {
	start := time.Now()

	runner, closeHistory, warnings := newRunner()
	defer closeHistory()

	res, err := runner.Run(cmd.Context(), request(args[0], args[1], moveSubfolder))
	if err != nil {
		return handleRunError(err)
	}
	warnings = append(warnings, toWarnings(res.Warnings)...)

	if isJSONOutput() {
		outputSuccessWithWarnings(map[string]interface{}{
			"project":       res.Plan.SourcePath,
			"target":        res.Plan.TargetPath,
			"state":         res.State.String(),
			"moves":         res.Moves,
			"changes":       res.Changes,
			"files_written": res.FilesWritten,
		}, warnings, &Meta{Count: len(res.Changes), DurationMs: time.Since(start).Milliseconds()})
		return nil
	}

	printMoveResult(res, warnings)
	return nil
}

func printMoveResult(res *relocate.Result, warnings []Warning) {
	fmt.Println(ui.Successf("Moved %s %s %s", ui.FilePath(res.Plan.SourcePath), ui.SymbolArrow, ui.FilePath(res.Plan.TargetPath)))
	for _, m := range res.Moves {
		fmt.Printf("  %s %s\n", ui.Hint(m.Kind+" via "+m.Via+":"), ui.Rewrite(m.From, m.To))
	}
	if len(res.Changes) > 0 {
		fmt.Println()
		fmt.Println(ui.Header("Repaired " + ui.Count(len(res.Changes), "entry", "entries")))
		for _, c := range res.Changes {
			fmt.Printf("  %s  %s\n", ui.Location(c.File, c.Line), ui.Rewrite(c.Old, c.New))
		}
	}
	printWarnings(warnings)
}

func printWarnings(warnings []Warning) {
	for _, w := range warnings {
		if w.File == "" {
			fmt.Println(ui.Warning(w.Message))
			continue
		}
		fmt.Println(ui.Warningf("%s: %s", w.File, w.Message))
	}
}

func init() {
	addSubfolderFlag(moveCmd.Flags(), &moveSubfolder)
	rootCmd.AddCommand(moveCmd)
}
