package mover

import (
	"context"
	"os/exec"
	"strings"
	"testing"

	"github.com/aidanlsb/projmv/internal/testutil"
)

func TestResultClassification(t *testing.T) {
	tests := []struct {
		outcome     Outcome
		ok          bool
		recoverable bool
	}{
		{Moved, true, false},
		{Untracked, false, true},
		{SourceEmpty, false, true},
		{Failed, false, false},
	}
	for _, tc := range tests {
		r := Result{Outcome: tc.outcome}
		if r.OK() != tc.ok || r.Recoverable() != tc.recoverable {
			t.Errorf("%s: OK=%v Recoverable=%v", tc.outcome, r.OK(), r.Recoverable())
		}
	}
	if got := (Result{Outcome: Failed, Detail: "boom"}).Error(); got != "failed: boom" {
		t.Errorf("Error() = %q", got)
	}
}

func TestFilesystemMoveFile(t *testing.T) {
	tree := testutil.NewTestTree(t).WithFiles(testutil.SampleTree()).Build()
	ctx := context.Background()

	res := Filesystem{}.MoveFile(ctx, tree.Abs("SampleLib/SampleLib.csproj"), tree.Abs("src/Core/Core.csproj"))
	if !res.OK() {
		t.Fatalf("MoveFile: %v", res)
	}
	tree.AssertFileExists("src/Core/Core.csproj")
	tree.AssertFileNotExists("SampleLib/SampleLib.csproj")

	res = Filesystem{}.MoveFile(ctx, tree.Abs("SampleApp/Program.cs"), tree.Abs("src/Core/Core.csproj"))
	if res.Outcome != Failed {
		t.Fatalf("expected conflict to fail, got %v", res.Outcome)
	}

	res = Filesystem{}.MoveFile(ctx, tree.Abs("missing.csproj"), tree.Abs("x.csproj"))
	if res.Outcome != Failed {
		t.Fatalf("expected missing source to fail, got %v", res.Outcome)
	}
}

func TestFilesystemMoveDirMergesIntoExisting(t *testing.T) {
	tree := testutil.NewTestTree(t).
		WithFiles(testutil.SampleTree()).
		WithFile("src/Core/Core.csproj", testutil.Project()).
		WithFile("src/Core/Util/Existing.cs", "// existing\n").
		Build()

	res := Filesystem{}.MoveDir(context.Background(), tree.Abs("SampleLib"), tree.Abs("src/Core"))
	if !res.OK() {
		t.Fatalf("MoveDir: %v", res)
	}
	tree.AssertFileExists("src/Core/Core.csproj")
	tree.AssertFileExists("src/Core/Class1.cs")
	tree.AssertFileExists("src/Core/SampleLib.csproj")
	tree.AssertFileExists("src/Core/Util/Helpers.cs")
	tree.AssertFileExists("src/Core/Util/Existing.cs")
	tree.AssertDirNotExists("SampleLib")
}

func TestFilesystemMoveDirToNewLocation(t *testing.T) {
	tree := testutil.NewTestTree(t).WithFiles(testutil.SampleTree()).Build()

	res := Filesystem{}.MoveDir(context.Background(), tree.Abs("SampleLib"), tree.Abs("libs/deep/SampleLib"))
	if !res.OK() {
		t.Fatalf("MoveDir: %v", res)
	}
	tree.AssertFileExists("libs/deep/SampleLib/Util/Helpers.cs")
	tree.AssertDirNotExists("SampleLib")
}

func TestFilesystemMoveDirConflict(t *testing.T) {
	tree := testutil.NewTestTree(t).
		WithFiles(testutil.SampleTree()).
		WithFile("dest/Class1.cs", "// clash\n").
		Build()

	res := Filesystem{}.MoveDir(context.Background(), tree.Abs("SampleLib"), tree.Abs("dest"))
	if res.Outcome != Failed {
		t.Fatalf("expected conflict to fail, got %v", res.Outcome)
	}
}

func TestGitOutsideRepositoryIsUntracked(t *testing.T) {
	requireGit(t)
	tree := testutil.NewTestTree(t).WithFiles(testutil.SampleTree()).Build()
	g := Git{Dir: tree.Path}

	if g.InsideWorkTree(context.Background()) {
		t.Skip("temp directory is inside a git work tree")
	}
	res := g.MoveFile(context.Background(), tree.Abs("SampleLib/SampleLib.csproj"), tree.Abs("x/x.csproj"))
	if res.Outcome != Untracked || !res.Recoverable() {
		t.Fatalf("outcome = %v, want untracked", res.Outcome)
	}
	tree.AssertFileExists("SampleLib/SampleLib.csproj")
}

func TestGitMovesTrackedContent(t *testing.T) {
	requireGit(t)
	tree := testutil.NewTestTree(t).WithFiles(testutil.SampleTree()).Build()
	gitInit(t, tree.Path)
	gitRun(t, tree.Path, "add", "SampleLib")
	tree.WriteFile("SampleLib/notes.txt", "untracked\n")

	g := Git{Dir: tree.Path}
	ctx := context.Background()

	res := g.MoveFile(ctx, tree.Abs("SampleLib/SampleLib.csproj"), tree.Abs("src/Core/Core.csproj"))
	if !res.OK() {
		t.Fatalf("MoveFile: %v", res)
	}
	res = g.MoveDir(ctx, tree.Abs("SampleLib"), tree.Abs("src/Core"))
	if !res.OK() {
		t.Fatalf("MoveDir: %v", res)
	}

	tree.AssertFileExists("src/Core/Core.csproj")
	tree.AssertFileExists("src/Core/Class1.cs")
	tree.AssertFileExists("src/Core/Util/Helpers.cs")
	tree.AssertFileExists("src/Core/notes.txt")
	tree.AssertDirNotExists("SampleLib")

	staged := gitRun(t, tree.Path, "ls-files")
	for _, want := range []string{"src/Core/Core.csproj", "src/Core/Class1.cs", "src/Core/Util/Helpers.cs"} {
		if !strings.Contains(staged, want) {
			t.Errorf("index missing %s:\n%s", want, staged)
		}
	}
	if strings.Contains(staged, "SampleLib/") {
		t.Errorf("index still lists old paths:\n%s", staged)
	}
}

func TestGitUntrackedFileAndEmptyDir(t *testing.T) {
	requireGit(t)
	tree := testutil.NewTestTree(t).WithFiles(testutil.SampleTree()).Build()
	gitInit(t, tree.Path)

	g := Git{Dir: tree.Path}
	ctx := context.Background()

	if res := g.MoveFile(ctx, tree.Abs("SampleLib/SampleLib.csproj"), tree.Abs("x/x.csproj")); res.Outcome != Untracked {
		t.Fatalf("MoveFile outcome = %v, want untracked", res.Outcome)
	}
	if res := g.MoveDir(ctx, tree.Abs("SampleLib"), tree.Abs("x")); res.Outcome != SourceEmpty {
		t.Fatalf("MoveDir outcome = %v, want source-empty", res.Outcome)
	}
}

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

func gitInit(t *testing.T, dir string) {
	t.Helper()
	gitRun(t, dir, "init", "-q")
}

func gitRun(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, err := Git{Dir: dir}.runGit(context.Background(), args...)
	if err != nil {
		t.Fatalf("git %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}
