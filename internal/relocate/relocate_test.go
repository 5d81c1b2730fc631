package relocate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aidanlsb/projmv/internal/mover"
	"github.com/aidanlsb/projmv/internal/relocation"
	"github.com/aidanlsb/projmv/internal/repair"
	"github.com/aidanlsb/projmv/internal/testutil"
)

type fakeMover struct {
	name    string
	outcome mover.Outcome
	calls   []string
}

func (f *fakeMover) Name() string { return f.name }

func (f *fakeMover) MoveFile(_ context.Context, src, dst string) mover.Result {
	f.calls = append(f.calls, "file")
	return mover.Result{Outcome: f.outcome, Detail: "fake"}
}

func (f *fakeMover) MoveDir(_ context.Context, src, dst string) mover.Result {
	f.calls = append(f.calls, "dir")
	return mover.Result{Outcome: f.outcome, Detail: "fake"}
}

type fakeJournal struct {
	states   []string
	changes  int
	finished string
	message  string
}

func (j *fakeJournal) Start(root, project, target string) (int64, error) { return 7, nil }

func (j *fakeJournal) Transition(id int64, state string) error {
	j.states = append(j.states, state)
	return nil
}

func (j *fakeJournal) RecordChange(id int64, kind, file, oldValue, newValue string) error {
	j.changes++
	return nil
}

func (j *fakeJournal) Finish(id int64, state, message string) error {
	j.finished, j.message = state, message
	return nil
}

func sampleTree(t *testing.T) *testutil.TestTree {
	t.Helper()
	return testutil.NewTestTree(t).WithFiles(testutil.SampleTree()).Build()
}

func TestRunRelocatesSampleLibrary(t *testing.T) {
	tree := sampleTree(t)
	journal := &fakeJournal{}
	r := &Runner{Journal: journal}

	res, err := r.Run(context.Background(), relocation.Request{
		Root:      tree.Path,
		Project:   "SampleLib/SampleLib.csproj",
		Target:    "Sample.Lib",
		Subfolder: "src",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.State != StateDone {
		t.Fatalf("state = %s, want done", res.State)
	}

	tree.AssertFileExists("src/Sample.Lib/Sample.Lib.csproj")
	tree.AssertFileExists("src/Sample.Lib/Class1.cs")
	tree.AssertFileExists("src/Sample.Lib/Util/Helpers.cs")
	tree.AssertDirNotExists("SampleLib")

	tree.AssertFileContains("SampleApp/SampleApp.csproj", `Include="..\src\Sample.Lib\Sample.Lib.csproj"`)
	tree.AssertFileContains("tests/SampleLib.Tests/SampleLib.Tests.csproj", `Include="..\..\src\Sample.Lib\Sample.Lib.csproj"`)
	tree.AssertFileContains("Sample.sln", `= "Sample.Lib", "src\Sample.Lib\Sample.Lib.csproj", "{00000002-`)

	if len(res.Moves) != 2 || res.Moves[0].Via != "filesystem" {
		t.Fatalf("moves = %+v", res.Moves)
	}
	if len(res.Changes) != 3 || len(res.FilesWritten) != 3 {
		t.Fatalf("changes = %+v, files = %v", res.Changes, res.FilesWritten)
	}

	wantStates := "validated,planned,moved,references-repaired,manifests-repaired,done"
	if got := strings.Join(journal.states, ","); got != wantStates {
		t.Fatalf("journal states = %s, want %s", got, wantStates)
	}
	if journal.changes != 3 || journal.finished != "done" {
		t.Fatalf("journal = %+v", journal)
	}
}

func TestRunMultipleChanges(t *testing.T) {
	tree := sampleTree(t)
	r := &Runner{}
	steps := []relocation.Request{
		{Project: "./SampleApp/SampleApp.csproj", Target: "Sample.App", Subfolder: "src"},
		{Project: "./SampleLib/SampleLib.csproj", Target: "SampleLib", Subfolder: "src"},
		{Project: "./src/SampleLib/SampleLib.csproj", Target: "Sample.Lib.csproj"},
		{Project: "./tests/SampleLib.Tests/SampleLib.Tests.csproj", Target: "Sample.Tests"},
		{Project: "./src/Sample.App/Sample.App.csproj", Target: "Sample2.App", Subfolder: "src"},
	}
	for i, req := range steps {
		req.Root = tree.Path
		if _, err := r.Run(context.Background(), req); err != nil {
			t.Fatalf("step %d (%s): %v", i, req.Project, err)
		}
	}

	tree.AssertFileContains("src/Sample2.App/Sample2.App.csproj", `Include="..\Sample.Lib\Sample.Lib.csproj"`)
	tree.AssertFileContains("tests/Sample.Tests/Sample.Tests.csproj", `Include="..\..\src\Sample.Lib\Sample.Lib.csproj"`)
	tree.AssertFileExists("src/Sample2.App/Program.cs")
	tree.AssertFileExists("src/Sample.Lib/Util/Helpers.cs")
	tree.AssertFileExists("tests/Sample.Tests/UnitTest1.cs")
	for _, gone := range []string{"SampleApp", "SampleLib", "src/SampleLib", "src/Sample.App", "tests/SampleLib.Tests"} {
		tree.AssertDirNotExists(gone)
	}

	sln := tree.ReadFile("Sample.sln")
	for _, want := range []string{
		`"Sample2.App", "src\Sample2.App\Sample2.App.csproj"`,
		`"Sample.Lib", "src\Sample.Lib\Sample.Lib.csproj"`,
		`"Sample.Tests", "tests\Sample.Tests\Sample.Tests.csproj"`,
	} {
		if !strings.Contains(sln, want) {
			t.Errorf("Sample.sln missing %s:\n%s", want, sln)
		}
	}
}

func TestRunKeepsNestedDescriptorDependencies(t *testing.T) {
	tree := testutil.NewTestTree(t).
		WithProject("src/lib/lib.csproj").
		WithProject("src/test/test.csproj").
		WithProject("src/test/sub/inner.csproj", "../../lib/lib.csproj").
		Build()

	res, err := (&Runner{}).Run(context.Background(), relocation.Request{
		Root:      tree.Path,
		Project:   "src/test/test.csproj",
		Target:    "test2",
		Subfolder: "src2",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.State != StateDone {
		t.Fatalf("state = %s, want done", res.State)
	}

	tree.AssertFileContains("src2/test2/sub/inner.csproj", `Include="../../../src/lib/lib.csproj"`)
	tree.AssertFileNotContains("src2/test2/sub/inner.csproj", "test2.csproj")
}

func TestRunRenameInPlaceSkipsDirectoryMove(t *testing.T) {
	tree := testutil.NewTestTree(t).
		WithFile("src/Lib/Old.csproj", testutil.Project()).
		WithFile("src/App/App.csproj", testutil.Project(`..\Lib\Old.csproj`)).
		Build()

	res, err := (&Runner{}).Run(context.Background(), relocation.Request{Root: tree.Path, Project: "src/Lib/Old.csproj", Target: "Lib"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Moves) != 1 || res.Moves[0].Kind != "file" {
		t.Fatalf("moves = %+v", res.Moves)
	}
	tree.AssertFileContains("src/App/App.csproj", `Include="..\Lib\Lib.csproj"`)
}

func TestRunValidation(t *testing.T) {
	tests := []struct {
		name  string
		req   relocation.Request
		field string
	}{
		{"missing project", relocation.Request{Project: "Nope/Nope.csproj", Target: "X"}, "project"},
		{"target is a path", relocation.Request{Project: "SampleLib/SampleLib.csproj", Target: "a/b"}, "target"},
		{"target exists", relocation.Request{Project: "SampleLib/SampleLib.csproj", Target: "SampleApp", Subfolder: "."}, "target"},
		{"nested target", relocation.Request{Project: "SampleLib/SampleLib.csproj", Target: "Inner", Subfolder: "SampleLib"}, "target"},
		{"same place", relocation.Request{Project: "SampleLib/SampleLib.csproj", Target: "SampleLib"}, "target"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tree := sampleTree(t)
			tc.req.Root = tree.Path

			res, err := (&Runner{}).Run(context.Background(), tc.req)
			var verr *relocation.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tc.field {
				t.Fatalf("field = %q, want %q (%v)", verr.Field, tc.field, err)
			}
			if res.State != StateFailed {
				t.Fatalf("state = %s, want failed", res.State)
			}
			tree.AssertFileExists("SampleLib/SampleLib.csproj")
		})
	}
}

func TestPrepareLeavesTreeUntouched(t *testing.T) {
	tree := sampleTree(t)

	plan, err := Prepare(relocation.Request{
		Root:      tree.Path,
		Project:   "SampleLib/SampleLib.csproj",
		Target:    "Sample.Core",
		Subfolder: "src",
	})
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if plan.TargetPath != "src/Sample.Core/Sample.Core.csproj" {
		t.Fatalf("TargetPath = %q", plan.TargetPath)
	}
	tree.AssertFileExists("SampleLib/SampleLib.csproj")
	tree.AssertDirNotExists("src")

	if _, err := Prepare(relocation.Request{Root: tree.Path, Project: "SampleLib/SampleLib.csproj", Target: "SampleApp", Subfolder: "."}); err == nil {
		t.Fatalf("Prepare accepted an existing target")
	}
}

func TestRunFallsBackOnRecoverableOutcome(t *testing.T) {
	tree := sampleTree(t)
	primary := &fakeMover{name: "fake-git", outcome: mover.Untracked}
	r := &Runner{Mover: primary}

	res, err := r.Run(context.Background(), relocation.Request{Root: tree.Path, Project: "SampleLib/SampleLib.csproj", Target: "Core"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.Join(primary.calls, ",") != "file,dir" {
		t.Fatalf("primary calls = %v", primary.calls)
	}
	for _, m := range res.Moves {
		if m.Via != "filesystem" {
			t.Fatalf("move %+v did not use the fallback", m)
		}
	}
	tree.AssertFileExists("Core/Core.csproj")
}

func TestRunFailedMoveStopsBeforeRepair(t *testing.T) {
	tree := sampleTree(t)
	journal := &fakeJournal{}
	r := &Runner{Mover: &fakeMover{name: "fake-git", outcome: mover.Failed}, Journal: journal}

	res, err := r.Run(context.Background(), relocation.Request{Root: tree.Path, Project: "SampleLib/SampleLib.csproj", Target: "Core"})
	var merr *MoveError
	if !errors.As(err, &merr) {
		t.Fatalf("expected MoveError, got %v", err)
	}
	if merr.Kind != "file" || merr.Mover != "fake-git" {
		t.Fatalf("MoveError = %+v", merr)
	}
	if res.State != StateFailed || len(res.Changes) != 0 {
		t.Fatalf("result = %+v", res)
	}
	tree.AssertFileContains("SampleApp/SampleApp.csproj", `Include="..\SampleLib\SampleLib.csproj"`)
	if journal.finished != "failed" || journal.message == "" {
		t.Fatalf("journal = %+v", journal)
	}
}

func TestRunReportsStatesToSink(t *testing.T) {
	tree := sampleTree(t)
	sink := &lineSink{}
	if _, err := (&Runner{Sink: sink}).Run(context.Background(), relocation.Request{Root: tree.Path, Project: "SampleLib/SampleLib.csproj", Target: "Core"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	out := strings.Join(sink.lines, "\n")
	for _, want := range []string{"state planned", "state moved", "state references-repaired", "state manifests-repaired", "state done", "moved file", "updated manifest entry"} {
		if !strings.Contains(out, want) {
			t.Errorf("sink output missing %q:\n%s", want, out)
		}
	}
}

func TestStateString(t *testing.T) {
	if StateReferencesRepaired.String() != "references-repaired" || State(99).String() != "unknown" {
		t.Fatalf("unexpected state names")
	}
}

type lineSink struct{ lines []string }

func (s *lineSink) Debug(msg interface{}, _ ...interface{}) { s.lines = append(s.lines, msg.(string)) }
func (s *lineSink) Info(msg interface{}, _ ...interface{})  { s.lines = append(s.lines, msg.(string)) }
func (s *lineSink) Warn(msg interface{}, _ ...interface{})  { s.lines = append(s.lines, msg.(string)) }

var _ repair.Sink = (*lineSink)(nil)
