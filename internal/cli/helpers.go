package cli

import (
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/aidanlsb/projmv/internal/fsutil"
	"github.com/aidanlsb/projmv/internal/history"
	"github.com/aidanlsb/projmv/internal/mover"
	"github.com/aidanlsb/projmv/internal/relocate"
	"github.com/aidanlsb/projmv/internal/relocation"
)

// newRunner wires a relocation runner from the resolved settings. The
// returned close func releases the history journal, if one was opened.
// A journal that cannot be opened is reported as a warning, never an error.
func newRunner() (*relocate.Runner, func(), []Warning) {
	r := &relocate.Runner{
		Mover:    mover.Filesystem{},
		Fallback: mover.Filesystem{},
		Sink:     logger,
		Scan:     settings.Scan,
	}
	if settings.UseGit {
		r.Mover = mover.Git{Dir: resolvedRoot}
	}

	closeFn := func() {}
	var warnings []Warning
	if settings.History {
		store, err := history.Open(settings.HistoryFile)
		if err != nil {
			logger.Warn("history unavailable", "err", err)
			warnings = append(warnings, Warning{Code: WarnHistoryUnavailable, Message: err.Error(), File: settings.HistoryFile})
		} else {
			r.Journal = store
			closeFn = func() { _ = store.Close() }
		}
	}
	return r, closeFn, warnings
}

// projectArg resolves a project argument. A path that exists relative to the
// working directory is made absolute; anything else is taken relative to the
// tree root.
func projectArg(raw string) string {
	if filepath.IsAbs(raw) {
		return raw
	}
	if fsutil.FileExists(raw) {
		if abs, err := filepath.Abs(raw); err == nil {
			return abs
		}
	}
	return raw
}

// subfolderArg resolves --subfolder against the working directory.
func subfolderArg(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || filepath.IsAbs(raw) {
		return raw
	}
	if abs, err := filepath.Abs(raw); err == nil {
		return abs
	}
	return raw
}

// planFor validates a request and builds its plan without touching the tree.
func planFor(project, target, subfolder string) (*relocation.Plan, error) {
	return relocate.Prepare(request(project, target, subfolder))
}

func request(project, target, subfolder string) relocation.Request {
	return relocation.Request{
		Root:      resolvedRoot,
		Project:   projectArg(project),
		Target:    target,
		Subfolder: subfolderArg(subfolder),
	}
}

// addSubfolderFlag registers --subfolder/-s on commands that take a target.
func addSubfolderFlag(fs *pflag.FlagSet, target *string) {
	fs.StringVarP(target, "subfolder", "s", "", "Parent directory for the new project directory, relative to the working directory")
}
