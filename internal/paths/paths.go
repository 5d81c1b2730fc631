// Package paths provides canonical helpers for path strings found in project
// descriptors and solution manifests:
// - tree-relative paths in slash form (e.g. "src/App/App.csproj")
// - raw reference values as written by tooling (e.g. "..\Lib\Lib.csproj")
//
// All comparisons and arithmetic in the relocation code go through this
// package so they stay separator- and prefix-insensitive.
package paths

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned when a path resolves outside the tree root.
var ErrOutsideRoot = errors.New("path is outside the root")

// Normalize canonicalizes a relative path:
// - converts '\' to '/'
// - collapses repeated separators and "." / ".." segments
// - drops a leading "./"
// - maps the empty string to "."
//
// Examples:
// - `.\src\App\App.csproj` -> "src/App/App.csproj"
// - "src//App/../Lib/"     -> "src/Lib"
// - ""                     -> "."
func Normalize(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "."
	}
	p = strings.ReplaceAll(p, `\`, "/")
	return path.Clean(p)
}

// IsRooted reports whether a raw path is anchored to something other than the
// directory of the file holding it: a leading separator, a drive letter or a
// UNC share.
func IsRooted(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	if raw[0] == '/' || raw[0] == '\\' {
		return true
	}
	if len(raw) >= 2 && raw[1] == ':' && isDriveLetter(raw[0]) {
		return true
	}
	return filepath.IsAbs(raw)
}

func isDriveLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// HasExpansion reports whether a raw path contains an MSBuild property or item
// expansion such as "$(SolutionDir)". Such values cannot be resolved statically.
func HasExpansion(raw string) bool {
	return strings.Contains(raw, "$(") || strings.Contains(raw, "@(")
}

// Dir returns the directory of a normalized path, "." when it has none.
func Dir(p string) string {
	d := path.Dir(Normalize(p))
	if strings.TrimSpace(d) == "" {
		return "."
	}
	return d
}

// Join joins path elements and normalizes the result.
func Join(elem ...string) string {
	parts := make([]string, 0, len(elem))
	for _, e := range elem {
		parts = append(parts, Normalize(e))
	}
	return Normalize(path.Join(parts...))
}

// Rel returns target expressed relative to base. Both must be relative to the
// same root. The result is in slash form and "." when they are equal.
func Rel(base, target string) (string, error) {
	rel, err := filepath.Rel(filepath.FromSlash(Normalize(base)), filepath.FromSlash(Normalize(target)))
	if err != nil {
		return "", fmt.Errorf("relative path from %q to %q: %w", base, target, err)
	}
	return Normalize(filepath.ToSlash(rel)), nil
}

// Escapes reports whether a normalized tree-relative path climbs above the root.
func Escapes(p string) bool {
	p = Normalize(p)
	return p == ".." || strings.HasPrefix(p, "../")
}

// Equal compares two paths after normalization.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// ToOS joins a tree-relative slash path onto an OS root path.
func ToOS(root, rel string) string {
	return filepath.Join(root, filepath.FromSlash(Normalize(rel)))
}

// FromOS converts an OS path below root into a tree-relative slash path.
func FromOS(root, p string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	absPath, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return "", err
	}
	rel = Normalize(filepath.ToSlash(rel))
	if Escapes(rel) {
		return "", fmt.Errorf("%s: %w", p, ErrOutsideRoot)
	}
	return rel, nil
}

// Style is the separator convention of a raw path value.
type Style int

const (
	// Slash separates segments with '/'.
	Slash Style = iota
	// Backslash separates segments with '\', the MSBuild/Visual Studio default.
	Backslash
)

// StyleOf detects the separator convention of a raw value. Values without any
// separator default to Slash.
func StyleOf(raw string) Style {
	if strings.Contains(raw, `\`) {
		return Backslash
	}
	return Slash
}

// Format renders a normalized slash path in the same convention as raw:
// separator style and an explicit leading "./" are carried over.
func Format(raw, p string) string {
	p = Normalize(p)
	trimmed := strings.TrimSpace(raw)
	if (strings.HasPrefix(trimmed, "./") || strings.HasPrefix(trimmed, `.\`)) && !strings.HasPrefix(p, ".") {
		p = "./" + p
	}
	if StyleOf(raw) == Backslash {
		return strings.ReplaceAll(p, "/", `\`)
	}
	return p
}
