// Package mover relocates files and directories on disk, through git when the
// sources are version controlled.
package mover

import (
	"context"
	"fmt"
)

// Outcome classifies the result of a move.
type Outcome int

const (
	// Moved means the source now lives at the destination.
	Moved Outcome = iota
	// Untracked means the source is not under version control.
	Untracked
	// SourceEmpty means the source directory holds no tracked content.
	SourceEmpty
	// Failed means the move could not be performed.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Moved:
		return "moved"
	case Untracked:
		return "untracked"
	case SourceEmpty:
		return "source-empty"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is the structured outcome of a single move.
type Result struct {
	Outcome Outcome
	// Detail carries tool output or an explanation for non-Moved outcomes.
	Detail string
	Err    error
}

// OK reports whether the move happened.
func (r Result) OK() bool { return r.Outcome == Moved }

// Recoverable reports whether a plain filesystem move can still be attempted.
func (r Result) Recoverable() bool {
	return r.Outcome == Untracked || r.Outcome == SourceEmpty
}

func (r Result) Error() string {
	switch {
	case r.Err != nil && r.Detail != "":
		return fmt.Sprintf("%s: %v: %s", r.Outcome, r.Err, r.Detail)
	case r.Err != nil:
		return fmt.Sprintf("%s: %v", r.Outcome, r.Err)
	case r.Detail != "":
		return fmt.Sprintf("%s: %s", r.Outcome, r.Detail)
	}
	return r.Outcome.String()
}

func moved() Result { return Result{Outcome: Moved} }

func failed(err error, detail string) Result {
	return Result{Outcome: Failed, Err: err, Detail: detail}
}

// Mover moves one file or one directory. Paths are OS paths.
type Mover interface {
	Name() string
	MoveFile(ctx context.Context, src, dst string) Result
	// MoveDir moves the contents of src into dst, creating dst when needed,
	// and removes src once it is empty.
	MoveDir(ctx context.Context, src, dst string) Result
}
