// Package relocation computes where a project descriptor moves to and how
// relative references must change because of it.
//
// A Plan is pure data: it never touches the filesystem. All of its paths are
// tree-relative and in slash form (see package paths).
package relocation

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/aidanlsb/projmv/internal/paths"
)

// Request is the user input for a relocation.
type Request struct {
	// Root is the tree root, as an OS path. Defaults to ".".
	Root string
	// Project is the descriptor to move, relative to Root.
	Project string
	// Target is the new project name. A bare name, never a path.
	Target string
	// Subfolder optionally overrides the parent directory of the new project
	// directory. Relative to Root, or absolute inside Root.
	Subfolder string
}

// Plan is the immutable result of Create.
type Plan struct {
	Root           string
	SourcePath     string
	SourceFileName string
	TargetName     string
	TargetFileName string
	TargetPath     string

	// Move leads from the source directory to the target directory.
	Move string
	// InverseMove leads from the target directory back to the source directory.
	InverseMove string
}

// ValidationError reports input that cannot be turned into a plan.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// Create computes the relocation plan for req.
//
// The target file name always ends with the source extension. When the target
// carries a different extension, the source extension is appended rather than
// substituted: "Foo.bar" becomes "Foo.bar.csproj".
func Create(req Request) (*Plan, error) {
	root := req.Root
	if strings.TrimSpace(root) == "" {
		root = "."
	}

	if strings.TrimSpace(req.Project) == "" {
		return nil, &ValidationError{Field: "project", Reason: "a descriptor path is required"}
	}
	if paths.IsRooted(req.Project) {
		rel, err := paths.FromOS(root, req.Project)
		if err != nil {
			return nil, &ValidationError{Field: "project", Value: req.Project, Reason: "must be inside the root"}
		}
		req.Project = rel
	}
	source := paths.Normalize(req.Project)
	if paths.Escapes(source) {
		return nil, &ValidationError{Field: "project", Value: req.Project, Reason: "must be inside the root"}
	}

	target := strings.TrimSpace(req.Target)
	if target == "" {
		return nil, &ValidationError{Field: "target", Reason: "a project name is required"}
	}
	if strings.ContainsAny(target, `/\`) {
		return nil, &ValidationError{Field: "target", Value: target, Reason: "should not be a path, just a name"}
	}

	sourceExt := path.Ext(source)
	if !strings.EqualFold(path.Ext(target), sourceExt) {
		target += sourceExt
	}
	targetFileName := target
	targetName := strings.TrimSuffix(targetFileName, path.Ext(targetFileName))

	parent := paths.Dir(paths.Dir(source))
	if sub := strings.TrimSpace(req.Subfolder); sub != "" {
		if paths.IsRooted(sub) {
			rel, err := paths.FromOS(root, sub)
			if err != nil {
				return nil, &ValidationError{Field: "subfolder", Value: sub, Reason: "must be inside the root"}
			}
			sub = rel
		}
		parent = paths.Normalize(sub)
		if paths.Escapes(parent) {
			return nil, &ValidationError{Field: "subfolder", Value: req.Subfolder, Reason: "must be inside the root"}
		}
	}
	targetPath := paths.Join(parent, targetName, targetFileName)

	sourceDir := paths.Dir(source)
	targetDir := paths.Dir(targetPath)
	move, err := paths.Rel(sourceDir, targetDir)
	if err != nil {
		return nil, err
	}
	inverse, err := paths.Rel(targetDir, sourceDir)
	if err != nil {
		return nil, err
	}

	return &Plan{
		Root:           root,
		SourcePath:     source,
		SourceFileName: path.Base(source),
		TargetName:     targetName,
		TargetFileName: targetFileName,
		TargetPath:     targetPath,
		Move:           move,
		InverseMove:    inverse,
	}, nil
}

// SourceDir is the directory holding the descriptor before the move.
func (p *Plan) SourceDir() string { return paths.Dir(p.SourcePath) }

// TargetDir is the directory holding the descriptor after the move.
func (p *Plan) TargetDir() string { return paths.Dir(p.TargetPath) }

// SourceFullPath is the OS path of the descriptor before the move.
func (p *Plan) SourceFullPath() string { return paths.ToOS(p.Root, p.SourcePath) }

// TargetFullPath is the OS path of the descriptor after the move.
func (p *Plan) TargetFullPath() string { return paths.ToOS(p.Root, p.TargetPath) }

// SameDirectory reports whether the move only renames the descriptor file.
func (p *Plan) SameDirectory() bool { return p.Move == "." }

// NestsTarget reports whether the target directory lies inside the source
// directory, which would require moving a directory into itself.
func (p *Plan) NestsTarget() bool {
	if p.SameDirectory() {
		return false
	}
	src := p.SourceDir()
	if src == "." {
		return true
	}
	return strings.HasPrefix(p.TargetDir()+"/", src+"/")
}

// GetRelativePathFromTarget rewrites a reference held by the moved descriptor
// itself. ref was valid from the source directory; the result reaches the
// same file from the target directory.
func (p *Plan) GetRelativePathFromTarget(ref string) string {
	targetDir := p.TargetDir()
	applied := paths.Join(targetDir, p.InverseMove, ref)
	rel, err := paths.Rel(targetDir, applied)
	if err != nil {
		// Both sides are tree-relative and targetDir never contains "..",
		// so Rel cannot fail here.
		return applied
	}
	return rel
}

// GetTargetPathFromPreviousPath rewrites a reference held by some other file.
// ref pointed, from otherFile's directory, at the descriptor's old location.
// The result points at the new location, still relative to otherFile.
func (p *Plan) GetTargetPathFromPreviousPath(otherFile, ref string) string {
	otherDir := paths.Dir(otherFile)
	refDir := paths.Join(otherDir, paths.Dir(ref))
	applied := paths.Join(refDir, p.Move, p.TargetFileName)
	rel, err := paths.Rel(otherDir, applied)
	if err != nil {
		return applied
	}
	return rel
}

// MovedWith reports whether file, a tree path taken after the move, travelled
// with the project directory. The moved descriptor itself always did.
func (p *Plan) MovedWith(file string) bool {
	if paths.Equal(file, p.TargetPath) {
		return true
	}
	if p.SameDirectory() {
		return false
	}
	_, ok := within(p.TargetDir(), file)
	return ok
}

// Relocate maps a tree path taken before the move to where that file lives
// after it. Paths outside the moved directory are returned unchanged.
func (p *Plan) Relocate(old string) string {
	old = paths.Normalize(old)
	if old == p.SourcePath {
		return p.TargetPath
	}
	if p.SameDirectory() {
		return old
	}
	if rest, ok := within(p.SourceDir(), old); ok {
		return paths.Join(p.TargetDir(), rest)
	}
	return old
}

// GetRelativePathFromMovedFile rewrites a reference held by a file that
// travelled with the project directory, such as a descriptor nested below
// it. ref is resolved from the file's previous directory and the result is
// relative to its current one. For the moved descriptor this is the same as
// GetRelativePathFromTarget.
func (p *Plan) GetRelativePathFromMovedFile(file, ref string) string {
	dir := paths.Dir(file)
	offset, ok := within(p.TargetDir(), dir)
	if !ok {
		offset = "."
	}
	resolved := p.Relocate(paths.Join(p.SourceDir(), offset, ref))
	rel, err := paths.Rel(dir, resolved)
	if err != nil {
		return resolved
	}
	return rel
}

// within reports whether p lies in or below dir, and returns p relative to dir.
func within(dir, p string) (string, bool) {
	dir, p = paths.Normalize(dir), paths.Normalize(p)
	if dir == "." {
		return p, !paths.Escapes(p)
	}
	if p == dir {
		return ".", true
	}
	if strings.HasPrefix(p, dir+"/") {
		return strings.TrimPrefix(p, dir+"/"), true
	}
	return "", false
}

// String renders the plan as "old => new".
func (p *Plan) String() string {
	return fmt.Sprintf("%s => %s", p.SourcePath, p.TargetPath)
}

// Describe returns the plan's fields as ordered key/value pairs for display
// and structured logging.
func (p *Plan) Describe() []string {
	return []string{
		"source", p.SourcePath,
		"target", p.TargetPath,
		"name", p.TargetName,
		"move", p.Move,
		"inverse", p.InverseMove,
		"root", filepath.Clean(p.Root),
	}
}
