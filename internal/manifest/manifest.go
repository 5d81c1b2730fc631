// Package manifest reads and edits Visual Studio solution files (.sln).
//
// A solution lists its projects as lines of the form:
//
//	Project("{TYPE-GUID}") = "Name", "rel\path\Name.csproj", "{PROJECT-GUID}"
//
// The file is treated as text. Lines keep their original terminators and the
// byte order mark, if any, so a rewrite only changes the edited line.
package manifest

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/aidanlsb/projmv/internal/fsutil"
)

var entryLine = regexp.MustCompile(`^\s*Project\("(\{[^}]*\})"\)\s*=\s*"([^"]*)"\s*,\s*"([^"]*)"\s*,\s*"(\{[^}]*\})"`)

// Entry is one project line of a solution.
type Entry struct {
	TypeGUID string
	Name     string
	// Path is the raw relative path as written, usually backslash separated.
	Path string
	GUID string
	// Line is 1-based.
	Line int
}

// File is a loaded solution.
type File struct {
	Path    string
	lines   [][]byte
	changed bool
}

// Load reads the solution at path.
func Load(path string) (*File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(path, content), nil
}

// Parse splits solution content into lines. It never fails: lines that are
// not project entries are carried through untouched.
func Parse(path string, content []byte) *File {
	f := &File{Path: path}
	if len(content) > 0 {
		f.lines = bytes.SplitAfter(content, []byte("\n"))
		if len(f.lines[len(f.lines)-1]) == 0 {
			f.lines = f.lines[:len(f.lines)-1]
		}
	}
	return f
}

// Entries returns the project entries in file order. Name and Path are
// trimmed the way Visual Studio reads them, so they may differ from the
// quoted text on the line.
func (f *File) Entries() []Entry {
	var out []Entry
	for i, line := range f.lines {
		m := entryLine.FindSubmatch(stripBOM(line))
		if m == nil {
			continue
		}
		out = append(out, Entry{
			TypeGUID: string(m[1]),
			Name:     strings.TrimSpace(string(m[2])),
			Path:     strings.TrimSpace(string(m[3])),
			GUID:     string(m[4]),
			Line:     i + 1,
		})
	}
	return out
}

// RewriteLine applies rewrite to the first line for which match returns true.
// Both callbacks see the line without its terminator. It reports whether a
// line matched.
func (f *File) RewriteLine(match func(line string) bool, rewrite func(line string) string) bool {
	for i, raw := range f.lines {
		body, eol := splitEOL(raw)
		if !match(string(body)) {
			continue
		}
		updated := rewrite(string(body))
		if updated != string(body) {
			f.lines[i] = append([]byte(updated), eol...)
			f.changed = true
		}
		return true
	}
	return false
}

// Changed reports whether any line was rewritten since Load.
func (f *File) Changed() bool { return f.changed }

// Bytes returns the current content.
func (f *File) Bytes() []byte { return bytes.Join(f.lines, nil) }

// Save writes the solution back when it has changed.
func (f *File) Save() error {
	if !f.changed {
		return nil
	}
	if err := fsutil.WriteFile(f.Path, f.Bytes(), 0); err != nil {
		return fmt.Errorf("save %s: %w", f.Path, err)
	}
	f.changed = false
	return nil
}

func splitEOL(line []byte) ([]byte, []byte) {
	n := len(line)
	switch {
	case bytes.HasSuffix(line, []byte("\r\n")):
		return line[:n-2], line[n-2:]
	case bytes.HasSuffix(line, []byte("\n")):
		return line[:n-1], line[n-1:]
	}
	return line, nil
}

func stripBOM(line []byte) []byte {
	return bytes.TrimPrefix(line, []byte{0xEF, 0xBB, 0xBF})
}
