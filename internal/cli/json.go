package cli

import (
	"encoding/json"
	"errors"
	"os"
)

// Global JSON output flag
var jsonOutput bool

// errReported marks an error already written as a JSON envelope. Execute
// returns it so the process exits non-zero without printing it again.
var errReported = errors.New("error already reported")

// Response is the standard JSON envelope for all CLI output.
type Response struct {
	OK       bool        `json:"ok"`
	Data     interface{} `json:"data,omitempty"`
	Error    *ErrorInfo  `json:"error,omitempty"`
	Warnings []Warning   `json:"warnings,omitempty"`
	Meta     *Meta       `json:"meta,omitempty"`
}

// ErrorInfo contains structured error information.
type ErrorInfo struct {
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	Suggestion string      `json:"suggestion,omitempty"`
}

// Warning represents a non-fatal warning.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
}

// Meta contains metadata about the response.
type Meta struct {
	Count      int   `json:"count,omitempty"`
	DurationMs int64 `json:"duration_ms,omitempty"`
}

// outputJSON outputs the response as JSON to stdout.
func outputJSON(resp Response) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(resp)
}

// outputSuccess outputs a successful JSON response.
func outputSuccess(data interface{}, meta *Meta) {
	outputJSON(Response{
		OK:   true,
		Data: data,
		Meta: meta,
	})
}

// outputSuccessWithWarnings outputs a successful JSON response with warnings.
func outputSuccessWithWarnings(data interface{}, warnings []Warning, meta *Meta) {
	outputJSON(Response{
		OK:       true,
		Data:     data,
		Warnings: warnings,
		Meta:     meta,
	})
}

// outputError outputs an error JSON response.
func outputError(code, message string, details interface{}, suggestion string) {
	outputJSON(Response{
		OK: false,
		Error: &ErrorInfo{
			Code:       code,
			Message:    message,
			Details:    details,
			Suggestion: suggestion,
		},
	})
}

// isJSONOutput returns true if JSON output is enabled.
func isJSONOutput() bool {
	return jsonOutput
}

// handleError handles an error appropriately based on output mode.
// In JSON mode it writes the envelope and returns errReported; in text mode
// it returns err for Execute to print.
func handleError(code string, err error, suggestion string) error {
	return handleErrorWithDetails(code, err, suggestion, nil)
}

// handleErrorWithDetails handles an error with structured details.
func handleErrorWithDetails(code string, err error, suggestion string, details interface{}) error {
	if jsonOutput {
		outputError(code, err.Error(), details, suggestion)
		return errReported
	}
	if suggestion != "" {
		return &suggestedError{err: err, suggestion: suggestion}
	}
	return err
}

type suggestedError struct {
	err        error
	suggestion string
}

func (e *suggestedError) Error() string { return e.err.Error() }

func (e *suggestedError) Unwrap() error { return e.err }
