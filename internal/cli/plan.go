package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/projmv/internal/paths"
	"github.com/aidanlsb/projmv/internal/relocation"
	"github.com/aidanlsb/projmv/internal/repair"
	"github.com/aidanlsb/projmv/internal/scan"
	"github.com/aidanlsb/projmv/internal/ui"
)

var planSubfolder string

var planCmd = &cobra.Command{
	Use:   "plan <project> <target>",
	Short: "Show what a move would do, without changing anything",
	Long: `Compute the relocation plan for a project and list the project files and
solutions that currently reference it. Nothing is written.`,
	Args: cobra.ExactArgs(2),
	RunE: runPlan,
}

type planReport struct {
	Project     string          `json:"project"`
	Target      string          `json:"target"`
	TargetName  string          `json:"target_name"`
	Move        string          `json:"move"`
	InverseMove string          `json:"inverse_move"`
	Referrers   []repair.Change `json:"referrers"`
	Solutions   []repair.Change `json:"solutions"`
}

func runPlan(cmd *cobra.Command, args []string) error {
	plan, err := planFor(args[0], args[1], planSubfolder)
	if err != nil {
		return handleRunError(err)
	}

	found, err := scan.Tree(cmd.Context(), resolvedRoot, settings.Scan)
	if err != nil {
		return handleRunError(err)
	}
	refs, err := repair.Referrers(resolvedRoot, plan.SourcePath, found.Descriptors)
	if err != nil {
		return handleRunError(err)
	}
	slns, err := repair.ManifestReferrers(resolvedRoot, plan.SourcePath, found.Manifests)
	if err != nil {
		return handleRunError(err)
	}

	predictRewrites(plan, refs)
	predictRewrites(plan, slns)

	report := planReport{
		Project:     plan.SourcePath,
		Target:      plan.TargetPath,
		TargetName:  plan.TargetName,
		Move:        plan.Move,
		InverseMove: plan.InverseMove,
		Referrers:   refs,
		Solutions:   slns,
	}
	if report.Referrers == nil {
		report.Referrers = []repair.Change{}
	}
	if report.Solutions == nil {
		report.Solutions = []repair.Change{}
	}

	if isJSONOutput() {
		outputSuccess(report, &Meta{Count: len(refs) + len(slns)})
		return nil
	}

	md := planMarkdown(plan, refs, slns)
	display := ui.NewDisplayContext()
	if !display.IsTTY {
		fmt.Print(md)
		return nil
	}
	rendered, err := ui.RenderMarkdown(md, display.AvailableWidth(ui.MarkdownRenderMargin))
	if err != nil {
		fmt.Print(md)
		return nil
	}
	fmt.Print(rendered)
	return nil
}

func planMarkdown(plan *relocation.Plan, refs, slns []repair.Change) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Plan: %s\n\n", plan.TargetName)
	fmt.Fprintf(&b, "- **Project**: `%s`\n", plan.SourcePath)
	fmt.Fprintf(&b, "- **Target**: `%s`\n", plan.TargetPath)
	fmt.Fprintf(&b, "- **Move**: `%s`\n", plan.Move)
	fmt.Fprintf(&b, "- **Inverse**: `%s`\n", plan.InverseMove)

	fmt.Fprintf(&b, "\n## Referenced by %s\n\n", ui.Count(len(refs), "project", "projects"))
	if len(refs) == 0 {
		b.WriteString("Nothing references this project.\n")
	}
	for _, r := range refs {
		fmt.Fprintf(&b, "- `%s` line %d: `%s`\n", r.File, r.Line, r.Old)
	}

	fmt.Fprintf(&b, "\n## Solutions %s\n\n", ui.Count(len(slns), "entry", "entries"))
	if len(slns) == 0 {
		b.WriteString("No solution lists this project.\n")
	}
	for _, s := range slns {
		fmt.Fprintf(&b, "- `%s` line %d: `%s`\n", s.File, s.Line, s.Old)
	}

	var diff strings.Builder
	for _, c := range append(append([]repair.Change{}, refs...), slns...) {
		if c.New == "" || c.New == c.Old {
			continue
		}
		fmt.Fprintf(&diff, "--- %s\n- %s\n+ %s\n", c.File, c.Old, c.New)
	}
	if diff.Len() > 0 {
		b.WriteString("\n## Rewrites\n\n```diff\n")
		b.WriteString(diff.String())
		b.WriteString("```\n")
	}
	return b.String()
}

// predictRewrites fills in the value each change will be rewritten to once
// the project has moved.
func predictRewrites(plan *relocation.Plan, changes []repair.Change) {
	for i := range changes {
		next := plan.GetTargetPathFromPreviousPath(changes[i].File, changes[i].Old)
		changes[i].New = paths.Format(changes[i].Old, next)
	}
}

func init() {
	addSubfolderFlag(planCmd.Flags(), &planSubfolder)
	rootCmd.AddCommand(planCmd)
}
