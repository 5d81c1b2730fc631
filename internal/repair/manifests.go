package repair

import (
	"fmt"
	"strings"

	"github.com/aidanlsb/projmv/internal/fsutil"
	"github.com/aidanlsb/projmv/internal/manifest"
	"github.com/aidanlsb/projmv/internal/paths"
	"github.com/aidanlsb/projmv/internal/relocation"
)

// Manifests rewrites the moved project's entry in every solution of files.
// Solutions that do not list the project are not touched.
func Manifests(plan *relocation.Plan, files []string, sink Sink) (*Report, error) {
	sink = sinkOrDiscard(sink)
	report := &Report{}

	for _, file := range files {
		m, err := manifest.Load(paths.ToOS(plan.Root, file))
		if err != nil {
			return report, fmt.Errorf("load manifest: %w", err)
		}

		entry, ok := findEntry(m, file, plan.SourcePath)
		if !ok {
			continue
		}

		change, ok, err := rewriteEntry(plan, m, file, entry)
		if err != nil {
			return report, err
		}
		if !ok {
			w := Warning{
				Code:    WarnManifestEntryNotFound,
				File:    file,
				Message: fmt.Sprintf("%s lists %s on line %d, but no line could be rewritten", file, plan.SourcePath, entry.Line),
			}
			report.Warnings = append(report.Warnings, w)
			sink.Warn("manifest entry not found", "file", file, "project", entry.Name, "line", entry.Line)
			continue
		}

		if err := m.Save(); err != nil {
			return report, err
		}
		report.Changes = append(report.Changes, change)
		report.FilesWritten = append(report.FilesWritten, file)
		sink.Info("updated manifest entry", "file", file, "old", change.Old, "new", change.New)
	}
	return report, nil
}

// ManifestReferrers lists the solutions in files that have an entry resolving
// to target.
func ManifestReferrers(root, target string, files []string) ([]Change, error) {
	var out []Change
	for _, file := range files {
		m, err := manifest.Load(paths.ToOS(root, file))
		if err != nil {
			return out, fmt.Errorf("load manifest: %w", err)
		}
		if e, ok := findEntry(m, file, target); ok {
			out = append(out, Change{Kind: KindManifest, File: file, Line: e.Line, Old: e.Path})
		}
	}
	return out, nil
}

func findEntry(m *manifest.File, file, target string) (manifest.Entry, bool) {
	dir := paths.Dir(file)
	for _, e := range m.Entries() {
		if paths.IsRooted(e.Path) {
			continue
		}
		if paths.Equal(paths.Join(dir, e.Path), target) {
			return e, true
		}
	}
	return manifest.Entry{}, false
}

// rewriteEntry renames entry and points it at the new location. It reports
// false when no line carries both the quoted name and the quoted path.
func rewriteEntry(plan *relocation.Plan, m *manifest.File, file string, entry manifest.Entry) (Change, bool, error) {
	next := plan.GetTargetPathFromPreviousPath(file, entry.Path)
	if !fsutil.FileExists(paths.ToOS(plan.Root, paths.Join(paths.Dir(file), next))) {
		return Change{}, false, &ConsistencyError{File: file, Old: entry.Path, Computed: next}
	}
	newRaw := paths.Format(entry.Path, next)

	oldName := quote(entry.Name)
	oldPath := quote(entry.Path)

	matched := m.RewriteLine(
		func(l string) bool {
			return strings.Contains(l, oldName) && strings.Contains(l, oldPath)
		},
		func(l string) string {
			l = strings.Replace(l, oldName, quote(plan.TargetName), 1)
			return strings.Replace(l, oldPath, quote(newRaw), 1)
		},
	)
	if !matched {
		return Change{}, false, nil
	}
	return Change{
		Kind: KindManifest,
		File: file,
		Line: entry.Line,
		Old:  fmt.Sprintf("%s, %s", oldName, oldPath),
		New:  fmt.Sprintf("%s, %s", quote(plan.TargetName), quote(newRaw)),
	}, true, nil
}

func quote(s string) string { return `"` + s + `"` }
