package ui

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAvailableWidth(t *testing.T) {
	d := &DisplayContext{TermWidth: 80}
	if got := d.AvailableWidth(MarkdownRenderMargin); got != 78 {
		t.Fatalf("AvailableWidth = %d, want 78", got)
	}
	narrow := &DisplayContext{TermWidth: 1}
	if got := narrow.AvailableWidth(4); got != DefaultTermWidth-4 {
		t.Fatalf("narrow AvailableWidth = %d", got)
	}
}

func TestColorEnabledFalseForFiles(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out.txt"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if ColorEnabled(f) {
		t.Fatalf("regular file reported as terminal")
	}
}

func TestColorEnabledHonorsNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	if ColorEnabled(os.Stdout) {
		t.Fatalf("NO_COLOR should disable color")
	}
}
