package mover

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Git moves version-controlled content with "git mv" so history follows it.
// Dir is the working directory git runs in, usually the tree root.
type Git struct {
	Dir string
}

func (Git) Name() string { return "git" }

// runGit executes a git command and returns trimmed combined output + error.
func (g Git) runGit(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.Dir

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	return strings.TrimSpace(out.String()), err
}

// InsideWorkTree reports whether Dir is inside a git working tree.
func (g Git) InsideWorkTree(ctx context.Context) bool {
	out, err := g.runGit(ctx, "rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

func (g Git) rel(p string) string {
	if g.Dir == "" {
		return p
	}
	if r, err := filepath.Rel(g.Dir, p); err == nil {
		return r
	}
	return p
}

// unavailable maps "git is not installed" and "not a repository" to Untracked.
func (g Git) unavailable(ctx context.Context) (Result, bool) {
	if _, err := exec.LookPath("git"); err != nil {
		return Result{Outcome: Untracked, Detail: "git executable not found"}, true
	}
	if !g.InsideWorkTree(ctx) {
		return Result{Outcome: Untracked, Detail: "not inside a git working tree"}, true
	}
	return Result{}, false
}

func (g Git) MoveFile(ctx context.Context, src, dst string) Result {
	if res, skip := g.unavailable(ctx); skip {
		return res
	}
	if out, err := g.runGit(ctx, "ls-files", "--error-unmatch", "--", g.rel(src)); err != nil {
		return Result{Outcome: Untracked, Detail: out}
	}
	if _, err := os.Lstat(dst); err == nil {
		return failed(fmt.Errorf("destination already exists: %s", dst), "")
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return failed(fmt.Errorf("create directory: %w", err), "")
	}
	if out, err := g.runGit(ctx, "mv", "--", g.rel(src), g.rel(dst)); err != nil {
		return failed(fmt.Errorf("git mv: %w", err), out)
	}
	return moved()
}

// MoveDir moves tracked content with git. When dst already exists, each
// top-level entry is moved into it with "git mv -k", and whatever git skipped
// (untracked files, clashing subdirectories) is merged with plain renames.
func (g Git) MoveDir(ctx context.Context, src, dst string) Result {
	if res, skip := g.unavailable(ctx); skip {
		return res
	}
	tracked, err := g.runGit(ctx, "ls-files", "--", g.rel(src))
	if err != nil {
		return failed(fmt.Errorf("git ls-files: %w", err), tracked)
	}
	if tracked == "" {
		return Result{Outcome: SourceEmpty, Detail: "no tracked files below " + src}
	}

	if _, err := os.Lstat(dst); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return failed(fmt.Errorf("create directory: %w", err), "")
		}
		if out, err := g.runGit(ctx, "mv", "--", g.rel(src), g.rel(dst)); err != nil {
			return failed(fmt.Errorf("git mv: %w", err), out)
		}
		return moved()
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return failed(err, "")
	}
	if len(entries) > 0 {
		args := []string{"mv", "-k", "--"}
		for _, e := range entries {
			args = append(args, g.rel(filepath.Join(src, e.Name())))
		}
		args = append(args, g.rel(dst))
		if out, err := g.runGit(ctx, args...); err != nil {
			return failed(fmt.Errorf("git mv: %w", err), out)
		}
	}
	if err := mergeDir(ctx, src, dst); err != nil {
		return failed(err, "")
	}
	return moved()
}
