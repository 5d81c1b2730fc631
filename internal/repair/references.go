package repair

import (
	"fmt"
	"path"
	"strings"

	"github.com/aidanlsb/projmv/internal/descriptor"
	"github.com/aidanlsb/projmv/internal/fsutil"
	"github.com/aidanlsb/projmv/internal/paths"
	"github.com/aidanlsb/projmv/internal/relocation"
)

// References repairs broken ProjectReference values in files, a list of
// tree-relative descriptor paths taken after the move.
//
// A reference that still resolves is left alone, so a second pass over the
// same tree writes nothing. References held by descriptors that travelled
// with the project directory are re-expressed from their new directory.
// References held by any other descriptor are redirected to the new location.
func References(plan *relocation.Plan, files []string, sink Sink) (*Report, error) {
	sink = sinkOrDiscard(sink)
	report := &Report{}

	for _, file := range files {
		d, err := descriptor.Load(paths.ToOS(plan.Root, file))
		if err != nil {
			return report, fmt.Errorf("load descriptor: %w", err)
		}

		isTarget := paths.Equal(file, plan.TargetPath)
		isMoved := plan.MovedWith(file)
		dir := paths.Dir(file)
		seen := make(map[string]bool)

		for _, ref := range d.References() {
			raw := ref.Include
			if strings.TrimSpace(raw) == "" || seen[raw] {
				continue
			}
			seen[raw] = true

			if paths.IsRooted(raw) || paths.HasExpansion(raw) {
				sink.Debug("skipping non-relative reference", "file", file, "ref", raw)
				continue
			}
			if fsutil.FileExists(paths.ToOS(plan.Root, paths.Join(dir, raw))) {
				continue
			}

			var next string
			switch {
			case isTarget:
				next = plan.GetRelativePathFromTarget(raw)
			case isMoved:
				next = plan.GetRelativePathFromMovedFile(file, raw)
			default:
				next = outwardTarget(plan, file, raw, sink)
			}
			if !fsutil.FileExists(paths.ToOS(plan.Root, paths.Join(dir, next))) {
				return report, &ConsistencyError{File: file, Old: raw, Computed: next}
			}

			newRaw := paths.Format(raw, next)
			if _, err := d.UpdateReference(raw, newRaw); err != nil {
				return report, err
			}
			report.Changes = append(report.Changes, Change{
				Kind: KindReference,
				File: file,
				Line: ref.Line,
				Old:  raw,
				New:  newRaw,
			})
			sink.Info("updated reference", "file", file, "old", raw, "new", newRaw)
		}

		if d.Changed() {
			if err := d.Save(); err != nil {
				return report, err
			}
			report.FilesWritten = append(report.FilesWritten, file)
		}
	}
	return report, nil
}

// outwardTarget rewrites a broken reference held by a descriptor that stayed
// in place. A reference into the moved directory follows the file it named;
// anything else is redirected to the moved project.
func outwardTarget(plan *relocation.Plan, file, raw string, sink Sink) string {
	dir := paths.Dir(file)
	old := paths.Join(dir, raw)
	if moved := plan.Relocate(old); moved != old && moved != plan.TargetPath &&
		fsutil.FileExists(paths.ToOS(plan.Root, moved)) {
		if rel, err := paths.Rel(dir, moved); err == nil {
			return rel
		}
	}
	if !strings.EqualFold(path.Base(paths.Normalize(raw)), plan.SourceFileName) {
		sink.Warn("redirecting broken reference to the moved project", "file", file, "ref", raw)
	}
	return plan.GetTargetPathFromPreviousPath(file, raw)
}

// Broken lists relative references in files that do not resolve, without
// changing anything.
func Broken(root string, files []string) ([]Change, error) {
	var out []Change
	for _, file := range files {
		d, err := descriptor.Load(paths.ToOS(root, file))
		if err != nil {
			return out, fmt.Errorf("load descriptor: %w", err)
		}
		dir := paths.Dir(file)
		for _, ref := range d.References() {
			raw := ref.Include
			if strings.TrimSpace(raw) == "" || paths.IsRooted(raw) || paths.HasExpansion(raw) {
				continue
			}
			if fsutil.FileExists(paths.ToOS(root, paths.Join(dir, raw))) {
				continue
			}
			out = append(out, Change{Kind: KindReference, File: file, Line: ref.Line, Old: raw})
		}
	}
	return out, nil
}

// Referrers lists the descriptors in files whose references resolve to target.
func Referrers(root, target string, files []string) ([]Change, error) {
	var out []Change
	for _, file := range files {
		d, err := descriptor.Load(paths.ToOS(root, file))
		if err != nil {
			return out, fmt.Errorf("load descriptor: %w", err)
		}
		dir := paths.Dir(file)
		for _, ref := range d.References() {
			raw := ref.Include
			if paths.IsRooted(raw) || paths.HasExpansion(raw) {
				continue
			}
			if paths.Equal(paths.Join(dir, raw), target) {
				out = append(out, Change{Kind: KindReference, File: file, Line: ref.Line, Old: raw})
			}
		}
	}
	return out, nil
}
