// Package descriptor reads and edits project references inside MSBuild
// project files (.csproj, .fsproj, .vbproj).
//
// Edits are applied to the original bytes, one attribute value at a time, so
// formatting, comments and line endings of the file survive untouched.
package descriptor

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/aidanlsb/projmv/internal/fsutil"
)

// ReferenceElement is the MSBuild item that points at another project.
const ReferenceElement = "ProjectReference"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// includeAttr matches the Include attribute inside a single start tag.
var includeAttr = regexp.MustCompile(`(?i)\bInclude\s*=\s*("([^"]*)"|'([^']*)')`)

// Reference is one ProjectReference found in a descriptor.
type Reference struct {
	// Include is the decoded attribute value, exactly as the path was written.
	Include string
	// Line is the 1-based line of the element's start tag.
	Line int

	start, end int
}

// File is a loaded descriptor.
type File struct {
	Path    string
	content []byte
	refs    []Reference
	changed bool
}

// Load reads and parses the descriptor at path.
func Load(path string) (*File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(path, content)
}

// Parse parses descriptor content. path is only used for error messages and Save.
func Parse(path string, content []byte) (*File, error) {
	f := &File{Path: path, content: content}
	if err := f.index(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) index() error {
	offset := 0
	body := f.content
	if bytes.HasPrefix(body, utf8BOM) {
		offset = len(utf8BOM)
		body = body[offset:]
	}

	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}

	var refs []Reference
	for {
		start := int(dec.InputOffset())
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("parse %s: %w", f.Path, err)
		}
		el, ok := tok.(xml.StartElement)
		if !ok || el.Name.Local != ReferenceElement {
			continue
		}
		for _, attr := range el.Attr {
			if strings.EqualFold(attr.Name.Local, "Include") {
				refs = append(refs, Reference{
					Include: attr.Value,
					Line:    1 + bytes.Count(body[:start], []byte("\n")),
					start:   offset + start,
					end:     offset + int(dec.InputOffset()),
				})
				break
			}
		}
	}
	f.refs = refs
	return nil
}

// References returns every ProjectReference in document order.
func (f *File) References() []Reference {
	out := make([]Reference, len(f.refs))
	copy(out, f.refs)
	return out
}

// Includes returns the raw path of every ProjectReference in document order.
func (f *File) Includes() []string {
	out := make([]string, 0, len(f.refs))
	for _, r := range f.refs {
		out = append(out, r.Include)
	}
	return out
}

// UpdateReference replaces the Include value of every ProjectReference whose
// value is exactly oldRaw. It returns the number of elements changed.
func (f *File) UpdateReference(oldRaw, newRaw string) (int, error) {
	if oldRaw == newRaw {
		return 0, nil
	}

	var buf bytes.Buffer
	last := 0
	count := 0
	for _, r := range f.refs {
		if r.Include != oldRaw {
			continue
		}
		tag := f.content[r.start:r.end]
		loc := includeAttr.FindSubmatchIndex(tag)
		if loc == nil {
			return count, fmt.Errorf("%s:%d: Include attribute not found in %s", f.Path, r.Line, ReferenceElement)
		}
		// Group 2 is the double-quoted value, group 3 the single-quoted one.
		vs, ve := loc[4], loc[5]
		quote := byte('"')
		if vs < 0 {
			vs, ve = loc[6], loc[7]
			quote = '\''
		}
		buf.Write(f.content[last : r.start+vs])
		buf.WriteString(escapeAttr(newRaw, quote))
		last = r.start + ve
		count++
	}
	if count == 0 {
		return 0, nil
	}
	buf.Write(f.content[last:])

	f.content = buf.Bytes()
	f.changed = true
	if err := f.index(); err != nil {
		return count, err
	}
	return count, nil
}

// Changed reports whether the in-memory content differs from what was loaded.
func (f *File) Changed() bool { return f.changed }

// Bytes returns the current content.
func (f *File) Bytes() []byte { return f.content }

// Save writes the descriptor back to disk when it has changed.
func (f *File) Save() error {
	if !f.changed {
		return nil
	}
	if err := fsutil.WriteFile(f.Path, f.content, 0); err != nil {
		return fmt.Errorf("save %s: %w", f.Path, err)
	}
	f.changed = false
	return nil
}

func escapeAttr(s string, quote byte) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;")
	s = r.Replace(s)
	if quote == '"' {
		return strings.ReplaceAll(s, `"`, "&quot;")
	}
	return strings.ReplaceAll(s, "'", "&apos;")
}
