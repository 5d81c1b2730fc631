package ui

import "fmt"

// Unicode symbols for status indicators
const (
	SymbolSuccess = "✓"
	SymbolError   = "✗"
	SymbolWarning = "⚠"
	SymbolInfo    = "ℹ"
	SymbolArrow   = "→"
)

// Success returns a success message with checkmark symbol
func Success(msg string) string {
	return SymbolSuccess + " " + msg
}

// Successf returns a formatted success message with checkmark symbol
func Successf(format string, args ...interface{}) string {
	return Success(fmt.Sprintf(format, args...))
}

// Error returns an error message with X symbol
func Error(msg string) string {
	return SymbolError + " " + msg
}

// Warning returns a warning message with warning symbol
func Warning(msg string) string {
	return SymbolWarning + " " + msg
}

// Warningf returns a formatted warning message with warning symbol
func Warningf(format string, args ...interface{}) string {
	return Warning(fmt.Sprintf(format, args...))
}

// Info returns an info message with info symbol
func Info(msg string) string {
	return SymbolInfo + " " + msg
}

// Header returns a styled section header
func Header(msg string) string {
	return Bold.Render(msg)
}

// FilePath returns an accent-styled file path
func FilePath(path string) string {
	return Accent.Render(path)
}

// Hint returns muted hint text
func Hint(msg string) string {
	return Muted.Render(msg)
}

// Location renders file:line with the line muted. A zero line renders the
// file alone.
func Location(file string, line int) string {
	if line <= 0 {
		return FilePath(file)
	}
	return FilePath(file) + Muted.Render(fmt.Sprintf(":%d", line))
}

// Rewrite renders "old → new".
func Rewrite(old, next string) string {
	return fmt.Sprintf("%s %s %s", old, Muted.Render(SymbolArrow), next)
}

// Count returns a count badge such as "(3 files)".
func Count(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("(%d %s)", n, singular)
	}
	return fmt.Sprintf("(%d %s)", n, plural)
}
