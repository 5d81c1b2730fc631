//go:build integration

package cli_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/aidanlsb/projmv/internal/testutil"
)

func sampleTree(t *testing.T) *testutil.TestTree {
	t.Helper()
	return testutil.NewTestTree(t).WithFiles(testutil.SampleTree()).Build()
}

// TestIntegration_MoveRepairsReferencesAndSolution moves a library under src/
// and checks every referrer follows it.
func TestIntegration_MoveRepairsReferencesAndSolution(t *testing.T) {
	tree := sampleTree(t)

	result := tree.RunCLI("move", "SampleLib/SampleLib.csproj", "Sample.Core", "--subfolder", "src")
	result.MustSucceed(t)

	if got := result.DataString("target"); got != "src/Sample.Core/Sample.Core.csproj" {
		t.Fatalf("target = %q", got)
	}
	if got := result.DataString("state"); got != "done" {
		t.Fatalf("state = %q", got)
	}
	if changes := result.DataList("changes"); len(changes) != 3 {
		t.Fatalf("changes = %d, want 3: %s", len(changes), result.RawJSON)
	}

	tree.AssertFileExists("src/Sample.Core/Sample.Core.csproj")
	tree.AssertFileExists("src/Sample.Core/Class1.cs")
	tree.AssertFileExists("src/Sample.Core/Util/Helpers.cs")
	tree.AssertDirNotExists("SampleLib")

	tree.AssertFileContains("SampleApp/SampleApp.csproj", `Include="..\src\Sample.Core\Sample.Core.csproj"`)
	tree.AssertFileContains("tests/SampleLib.Tests/SampleLib.Tests.csproj", `Include="..\..\src\Sample.Core\Sample.Core.csproj"`)
	tree.AssertFileContains("Sample.sln", `= "Sample.Core", "src\Sample.Core\Sample.Core.csproj"`)
	tree.AssertFileNotContains("Sample.sln", `"SampleLib\SampleLib.csproj"`)

	tree.RunCLI("check").MustSucceed(t)
}

// TestIntegration_MovedProjectKeepsItsOwnReferences moves a project that itself
// references another one.
func TestIntegration_MovedProjectKeepsItsOwnReferences(t *testing.T) {
	tree := sampleTree(t)

	tree.RunCLI("move", "SampleApp/SampleApp.csproj", "Sample.Web", "-s", "src").MustSucceed(t)

	tree.AssertFileContains("src/Sample.Web/Sample.Web.csproj", `Include="..\..\SampleLib\SampleLib.csproj"`)
	tree.AssertFileExists("src/Sample.Web/Program.cs")
	tree.AssertFileContains("Sample.sln", `= "Sample.Web", "src\Sample.Web\Sample.Web.csproj"`)
}

// TestIntegration_SequentialMoves relocates the same project twice.
func TestIntegration_SequentialMoves(t *testing.T) {
	tree := sampleTree(t)

	tree.RunCLI("move", "SampleLib/SampleLib.csproj", "Sample.Core", "-s", "src").MustSucceed(t)
	tree.RunCLI("move", "src/Sample.Core/Sample.Core.csproj", "Sample.Domain").MustSucceed(t)

	tree.AssertFileExists("src/Sample.Domain/Sample.Domain.csproj")
	tree.AssertDirNotExists("src/Sample.Core")
	tree.AssertFileContains("SampleApp/SampleApp.csproj", `Include="..\src\Sample.Domain\Sample.Domain.csproj"`)
	tree.AssertFileContains("Sample.sln", `= "Sample.Domain", "src\Sample.Domain\Sample.Domain.csproj"`)
	tree.RunCLI("check").MustSucceed(t)
}

func TestIntegration_MoveValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
		msg  string
	}{
		{"missing project", []string{"move", "Nope/Nope.csproj", "Other"}, "file not found"},
		{"target is a path", []string{"move", "SampleLib/SampleLib.csproj", "src/Other"}, "just a name"},
		{"target exists", []string{"move", "SampleLib/SampleLib.csproj", "SampleApp", "-s", "."}, "already exists"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := sampleTree(t)
			result := tree.RunCLI(tt.args...)
			result.MustFail(t, "VALIDATION_FAILED")
			result.MustFailWithMessage(t, tt.msg)
			tree.AssertFileExists("SampleLib/SampleLib.csproj")
		})
	}
}

func TestIntegration_PlanWritesNothing(t *testing.T) {
	tree := sampleTree(t)
	before := tree.ReadFile("Sample.sln")

	result := tree.RunCLI("plan", "SampleLib/SampleLib.csproj", "Sample.Core", "-s", "src")
	result.MustSucceed(t)

	if got := result.DataString("move"); got != "../src/Sample.Core" {
		t.Fatalf("move = %q", got)
	}
	if refs := result.DataList("referrers"); len(refs) != 2 {
		t.Fatalf("referrers = %d, want 2: %s", len(refs), result.RawJSON)
	}
	if slns := result.DataList("solutions"); len(slns) != 1 {
		t.Fatalf("solutions = %d, want 1", len(slns))
	}
	tree.AssertFileExists("SampleLib/SampleLib.csproj")
	tree.AssertDirNotExists("src")
	if tree.ReadFile("Sample.sln") != before {
		t.Fatalf("plan rewrote Sample.sln")
	}
}

func TestIntegration_CheckReportsBrokenReferences(t *testing.T) {
	tree := testutil.NewTestTree(t).
		WithFiles(testutil.SampleTree()).
		WithProject("Orphan/Orphan.csproj", `..\Gone\Gone.csproj`, `$(SolutionDir)Shared\Shared.csproj`).
		Build()

	result := tree.RunCLI("check")
	result.MustFail(t, "BROKEN_REFERENCES")
	if !strings.Contains(result.Error.Message, "1 broken project reference") {
		t.Fatalf("message = %q", result.Error.Message)
	}
}

func TestIntegration_HistoryRecordsRuns(t *testing.T) {
	tree := sampleTree(t)
	gitOnly := []string{"--no-git"}

	tree.RunCLIWithFlags(gitOnly, "move", "SampleLib/SampleLib.csproj", "Sample.Core").MustSucceed(t)
	tree.AssertDirNotExists(".projmv")
	journals, _ := filepath.Glob(filepath.Join(tree.Home(), ".local", "state", "projmv", "trees", "*", "history.db"))
	if len(journals) != 1 {
		t.Fatalf("journals = %v, want one under the state dir", journals)
	}

	result := tree.RunCLIWithFlags(gitOnly, "history")
	result.MustSucceed(t)
	runs := result.DataList("runs")
	if len(runs) != 1 {
		t.Fatalf("runs = %d, want 1: %s", len(runs), result.RawJSON)
	}
	run, _ := runs[0].(map[string]interface{})
	if run["state"] != "done" || run["target"] != "Sample.Core" {
		t.Fatalf("run = %v", run)
	}
	if changes, _ := run["changes"].([]interface{}); len(changes) != 3 {
		t.Fatalf("recorded changes = %d, want 3", len(changes))
	}
}

func TestIntegration_ConfigTreeExcludes(t *testing.T) {
	tree := testutil.NewTestTree(t).
		WithFiles(testutil.SampleTree()).
		WithProject("vendor/Broken/Broken.csproj", `..\Missing\Missing.csproj`).
		Build()

	tree.RunCLI("check").MustFail(t, "BROKEN_REFERENCES")
	tree.RunCLI("config", "tree", "--exclude", "vendor").MustSucceed(t)
	tree.AssertFileContains(".projmv.yaml", "vendor")
	tree.RunCLI("check").MustSucceed(t)

	result := tree.RunCLI("config")
	result.MustSucceed(t)
	scan, _ := result.Data["scan"].(map[string]interface{})
	dirs, _ := scan["exclude_dirs"].([]interface{})
	if len(dirs) == 0 || dirs[len(dirs)-1] != "vendor" {
		t.Fatalf("exclude_dirs = %v", dirs)
	}
}

func TestIntegration_Version(t *testing.T) {
	tree := sampleTree(t)
	result := tree.RunCLI("version")
	result.MustSucceed(t)
	if result.DataString("version") == "" {
		t.Fatalf("version missing: %s", result.RawJSON)
	}
}

func TestIntegration_MoveWarnsOnUnrewritableSolutionEntry(t *testing.T) {
	tree := testutil.NewTestTree(t).
		WithFiles(testutil.SampleTree()).
		WithFile("Padded.sln", "\ufeff\r\n"+
			`Project("{FAE04EC0-301F-11D3-BF4B-00C04F79EFBC}") = "SampleLib", " SampleLib\SampleLib.csproj ", "{00000009-0000-0000-0000-000000000000}"`+"\r\n"+
			"EndProject\r\n").
		Build()

	result := tree.RunCLI("move", "SampleLib/SampleLib.csproj", "Sample.Core")
	result.MustSucceed(t)
	if !result.HasWarning("MANIFEST_ENTRY_NOT_FOUND") {
		t.Fatalf("expected MANIFEST_ENTRY_NOT_FOUND warning: %s", result.RawJSON)
	}
	tree.AssertFileContains("Sample.sln", `"Sample.Core", "Sample.Core\Sample.Core.csproj"`)
	tree.AssertFileContains("Padded.sln", `" SampleLib\SampleLib.csproj "`)
}
