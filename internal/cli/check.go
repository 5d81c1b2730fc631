package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/projmv/internal/repair"
	"github.com/aidanlsb/projmv/internal/scan"
	"github.com/aidanlsb/projmv/internal/ui"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "List project references that do not resolve",
	Long: `Scan the tree and list every relative ProjectReference whose target file
does not exist. References using MSBuild properties or absolute paths are
skipped. Exits with status 1 when anything is broken.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	found, err := scan.Tree(cmd.Context(), resolvedRoot, settings.Scan)
	if err != nil {
		return handleRunError(err)
	}
	broken, err := repair.Broken(resolvedRoot, found.Descriptors)
	if err != nil {
		return handleRunError(err)
	}

	if len(broken) > 0 {
		err := fmt.Errorf("%d broken project %s", len(broken), plural(len(broken), "reference", "references"))
		if !isJSONOutput() {
			for _, b := range broken {
				fmt.Printf("%s  %s\n", ui.Location(b.File, b.Line), b.Old)
			}
		}
		return handleErrorWithDetails(ErrBrokenReferences, err, "", map[string]interface{}{"broken": broken})
	}

	if isJSONOutput() {
		outputSuccess(map[string]interface{}{
			"descriptors": len(found.Descriptors),
			"manifests":   len(found.Manifests),
			"broken":      []repair.Change{},
		}, nil)
		return nil
	}
	fmt.Println(ui.Successf("All references resolve %s", ui.Count(len(found.Descriptors), "project", "projects")))
	return nil
}

func plural(n int, singular, pluralForm string) string {
	if n == 1 {
		return singular
	}
	return pluralForm
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
