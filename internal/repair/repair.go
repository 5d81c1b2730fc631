// Package repair fixes relative references broken by a relocation: project
// references inside descriptors, and project entries inside solutions.
package repair

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
)

// Change kinds.
const (
	KindReference = "reference"
	KindManifest  = "manifest"
)

// WarnManifestEntryNotFound is raised when a solution lists the moved project
// but none of its lines could be rewritten.
const WarnManifestEntryNotFound = "MANIFEST_ENTRY_NOT_FOUND"

// Sink receives progress messages. *log.Logger satisfies it.
type Sink interface {
	Debug(msg interface{}, keyvals ...interface{})
	Info(msg interface{}, keyvals ...interface{})
	Warn(msg interface{}, keyvals ...interface{})
}

// Discard is a Sink that drops everything.
var Discard Sink = log.New(io.Discard)

// Change is one rewritten value.
type Change struct {
	Kind string `json:"kind"`
	File string `json:"file"`
	Line int    `json:"line,omitempty"`
	Old  string `json:"old"`
	New  string `json:"new"`
}

// Warning is a non-fatal inconsistency found during repair.
type Warning struct {
	Code    string `json:"code"`
	File    string `json:"file"`
	Message string `json:"message"`
}

// Report summarizes a repair pass.
type Report struct {
	Changes      []Change  `json:"changes"`
	Warnings     []Warning `json:"warnings,omitempty"`
	FilesWritten []string  `json:"files_written"`
}

// Merge appends other's content to r.
func (r *Report) Merge(other *Report) {
	if other == nil {
		return
	}
	r.Changes = append(r.Changes, other.Changes...)
	r.Warnings = append(r.Warnings, other.Warnings...)
	r.FilesWritten = append(r.FilesWritten, other.FilesWritten...)
}

// ConsistencyError means a recomputed path still does not resolve. The file
// under repair has not been saved.
type ConsistencyError struct {
	File     string
	Old      string
	Computed string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("%s: %q was rewritten to %q, which does not exist", e.File, e.Old, e.Computed)
}

func sinkOrDiscard(s Sink) Sink {
	if s == nil {
		return Discard
	}
	return s
}
