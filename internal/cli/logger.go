package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"

	"github.com/aidanlsb/projmv/internal/ui"
)

// newLogger builds the run logger. It writes to w at Info, or Debug when
// debug is set, and drops color unless w is a terminal.
func newLogger(w io.Writer, debug bool) *log.Logger {
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}
	l := log.NewWithOptions(w, log.Options{
		Level:  level,
		Prefix: "projmv",
	})
	if f, ok := w.(*os.File); !ok || !ui.ColorEnabled(f) {
		l.SetColorProfile(termenv.Ascii)
	}
	return l
}
