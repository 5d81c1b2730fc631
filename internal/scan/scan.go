// Package scan lists the project descriptors and solution manifests of a tree.
//
// Results are fully materialized before the caller edits anything, so files
// moved or rewritten during a run never feed back into the same pass.
package scan

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aidanlsb/projmv/internal/paths"
)

var (
	// DefaultDescriptorExtensions are the MSBuild project file extensions.
	DefaultDescriptorExtensions = []string{".csproj", ".fsproj", ".vbproj"}
	// DefaultManifestExtensions are the solution file extensions.
	DefaultManifestExtensions = []string{".sln"}
	// DefaultExcludeDirs are skipped wherever they appear in the tree.
	DefaultExcludeDirs = []string{".git", ".vs", "bin", "obj", "node_modules"}
)

// Options controls which files a scan collects.
type Options struct {
	DescriptorExtensions []string
	ManifestExtensions   []string
	ExcludeDirs          []string
}

// DefaultOptions returns the built-in scan settings.
func DefaultOptions() Options {
	return Options{
		DescriptorExtensions: append([]string(nil), DefaultDescriptorExtensions...),
		ManifestExtensions:   append([]string(nil), DefaultManifestExtensions...),
		ExcludeDirs:          append([]string(nil), DefaultExcludeDirs...),
	}
}

// Result holds tree-relative slash paths, sorted.
type Result struct {
	Descriptors []string
	Manifests   []string
}

// Tree walks root and collects descriptors and manifests.
// Unreadable directories are skipped; an error is returned only when root
// itself cannot be walked or ctx is cancelled.
func Tree(ctx context.Context, root string, opts Options) (*Result, error) {
	if len(opts.DescriptorExtensions) == 0 && len(opts.ManifestExtensions) == 0 {
		opts = DefaultOptions()
	}
	descExt := extSet(opts.DescriptorExtensions)
	manExt := extSet(opts.ManifestExtensions)
	exclude := make(map[string]bool, len(opts.ExcludeDirs))
	for _, d := range opts.ExcludeDirs {
		exclude[strings.ToLower(strings.TrimSpace(d))] = true
	}

	res := &Result{}
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if p == root {
				return err
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if p != root && exclude[strings.ToLower(d.Name())] {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(d.Name()))
		isDesc, isMan := descExt[ext], manExt[ext]
		if !isDesc && !isMan {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		rel = paths.Normalize(filepath.ToSlash(rel))
		if isDesc {
			res.Descriptors = append(res.Descriptors, rel)
		} else {
			res.Manifests = append(res.Manifests, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(res.Descriptors)
	sort.Strings(res.Manifests)
	return res, nil
}

func extSet(exts []string) map[string]bool {
	out := make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out[e] = true
	}
	return out
}
