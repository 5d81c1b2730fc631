package mover

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aidanlsb/projmv/internal/fsutil"
)

// Filesystem moves with plain renames. It is the fallback for content git
// does not track.
type Filesystem struct{}

func (Filesystem) Name() string { return "filesystem" }

func (Filesystem) MoveFile(ctx context.Context, src, dst string) Result {
	if err := ctx.Err(); err != nil {
		return failed(err, "")
	}
	if !fsutil.FileExists(src) {
		return failed(fmt.Errorf("source file not found: %s", src), "")
	}
	if _, err := os.Lstat(dst); err == nil {
		return failed(fmt.Errorf("destination already exists: %s", dst), "")
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return failed(fmt.Errorf("create directory: %w", err), "")
	}
	if err := os.Rename(src, dst); err != nil {
		return failed(err, "")
	}
	return moved()
}

func (Filesystem) MoveDir(ctx context.Context, src, dst string) Result {
	if err := ctx.Err(); err != nil {
		return failed(err, "")
	}
	if !fsutil.DirExists(src) {
		return failed(fmt.Errorf("source directory not found: %s", src), "")
	}
	if err := mergeDir(ctx, src, dst); err != nil {
		return failed(err, "")
	}
	return moved()
}

// mergeDir moves everything below src into dst. Subdirectories present on
// both sides are merged; a file present on both sides is a conflict. src is
// removed once empty. A missing src is not an error.
func mergeDir(ctx context.Context, src, dst string) error {
	if !fsutil.DirExists(src) {
		return nil
	}
	if _, err := os.Lstat(dst); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
		return os.Rename(src, dst)
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		from := filepath.Join(src, e.Name())
		to := filepath.Join(dst, e.Name())
		if e.IsDir() && fsutil.DirExists(to) {
			if err := mergeDir(ctx, from, to); err != nil {
				return err
			}
			continue
		}
		if _, err := os.Lstat(to); err == nil {
			return fmt.Errorf("destination already exists: %s", to)
		}
		if err := os.Rename(from, to); err != nil {
			return err
		}
	}
	return os.Remove(src)
}
