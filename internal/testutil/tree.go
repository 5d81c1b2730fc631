// Package testutil provides reusable test utilities for projmv tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// TestTree represents a temporary source tree for testing.
type TestTree struct {
	Path  string
	t     *testing.T
	files map[string]string
	home  string
}

// NewTestTree creates a new test tree builder.
// Call Build() to create the actual directory.
func NewTestTree(t *testing.T) *TestTree {
	t.Helper()
	return &TestTree{
		t:     t,
		files: make(map[string]string),
	}
}

// WithFile adds a file to the tree.
// The path is relative to the tree root and may use either separator.
func (v *TestTree) WithFile(path, content string) *TestTree {
	v.files[filepath.FromSlash(path)] = content
	return v
}

// WithFiles adds every entry of files to the tree.
func (v *TestTree) WithFiles(files map[string]string) *TestTree {
	for path, content := range files {
		v.WithFile(path, content)
	}
	return v
}

// WithProject adds an SDK-style project file referencing refs.
func (v *TestTree) WithProject(path string, refs ...string) *TestTree {
	return v.WithFile(path, Project(refs...))
}

// Build creates the tree directory and all configured files.
// Returns the TestTree for method chaining.
func (v *TestTree) Build() *TestTree {
	v.t.Helper()

	v.Path = v.t.TempDir()
	for path, content := range v.files {
		v.WriteFile(path, content)
	}
	return v
}

// WriteFile writes a file below the tree root, creating directories as needed.
func (v *TestTree) WriteFile(relPath, content string) {
	v.t.Helper()
	fullPath := v.Abs(relPath)

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.t.Fatalf("failed to create directory %s: %v", dir, err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
		v.t.Fatalf("failed to write file %s: %v", fullPath, err)
	}
}

// Abs returns the OS path of a tree-relative path.
func (v *TestTree) Abs(relPath string) string {
	return filepath.Join(v.Path, filepath.FromSlash(relPath))
}

// ReadFile reads a file from the tree.
// Returns the content as a string.
func (v *TestTree) ReadFile(relPath string) string {
	v.t.Helper()
	fullPath := v.Abs(relPath)
	content, err := os.ReadFile(fullPath)
	if err != nil {
		v.t.Fatalf("failed to read file %s: %v", fullPath, err)
	}
	return string(content)
}

// FileExists checks if a file exists in the tree.
func (v *TestTree) FileExists(relPath string) bool {
	v.t.Helper()
	_, err := os.Stat(v.Abs(relPath))
	return err == nil
}

// ModTime returns the modification time of a file in Unix nanoseconds.
func (v *TestTree) ModTime(relPath string) int64 {
	v.t.Helper()
	info, err := os.Stat(v.Abs(relPath))
	if err != nil {
		v.t.Fatalf("failed to stat %s: %v", relPath, err)
	}
	return info.ModTime().UnixNano()
}
