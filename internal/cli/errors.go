package cli

import (
	"context"
	"errors"
	"os"

	"github.com/aidanlsb/projmv/internal/relocate"
	"github.com/aidanlsb/projmv/internal/relocation"
	"github.com/aidanlsb/projmv/internal/repair"
)

// Error codes for structured error responses.
// These codes are stable and can be relied upon by scripts.
const (
	ErrValidationFailed   = "VALIDATION_FAILED"
	ErrMoveFailed         = "MOVE_FAILED"
	ErrRepairInconsistent = "REPAIR_INCONSISTENT"
	ErrFileNotFound       = "FILE_NOT_FOUND"
	ErrConfigInvalid      = "CONFIG_INVALID"
	ErrBrokenReferences   = "BROKEN_REFERENCES"
	ErrDatabaseError      = "DATABASE_ERROR"
	ErrCancelled          = "CANCELLED"
	ErrInternal           = "INTERNAL_ERROR"
)

// Warning codes for non-fatal issues.
const (
	WarnManifestEntryNotFound = repair.WarnManifestEntryNotFound
	WarnHistoryUnavailable    = "HISTORY_UNAVAILABLE"
)

// errorCode maps an error from a run to its stable code.
func errorCode(err error) string {
	var validation *relocation.ValidationError
	var move *relocate.MoveError
	var consistency *repair.ConsistencyError
	switch {
	case errors.As(err, &validation):
		return ErrValidationFailed
	case errors.As(err, &move):
		return ErrMoveFailed
	case errors.As(err, &consistency):
		return ErrRepairInconsistent
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrCancelled
	case errors.Is(err, os.ErrNotExist):
		return ErrFileNotFound
	}
	return ErrInternal
}

// errorSuggestion returns a hint for codes where one helps.
func errorSuggestion(code string) string {
	switch code {
	case ErrMoveFailed:
		return "Retry with --no-git to move with plain renames"
	case ErrRepairInconsistent:
		return "Run 'projmv check' to list unresolved references"
	case ErrConfigInvalid:
		return "Run 'projmv config' to see the effective settings"
	}
	return ""
}

// handleRunError reports err with the code errorCode assigns it.
func handleRunError(err error) error {
	code := errorCode(err)
	var details interface{}
	var validation *relocation.ValidationError
	var move *relocate.MoveError
	var consistency *repair.ConsistencyError
	switch {
	case errors.As(err, &validation):
		details = map[string]string{"field": validation.Field, "value": validation.Value, "reason": validation.Reason}
	case errors.As(err, &move):
		details = map[string]string{"kind": move.Kind, "from": move.Src, "to": move.Dst, "mover": move.Mover, "detail": move.Result.Detail}
	case errors.As(err, &consistency):
		details = map[string]string{"file": consistency.File, "old": consistency.Old, "computed": consistency.Computed}
	}
	return handleErrorWithDetails(code, err, errorSuggestion(code), details)
}

func toWarnings(ws []repair.Warning) []Warning {
	out := make([]Warning, 0, len(ws))
	for _, w := range ws {
		out = append(out, Warning{Code: w.Code, Message: w.Message, File: w.File})
	}
	return out
}
