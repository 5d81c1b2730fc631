package testutil

import (
	"os"
	"strings"
)

// AssertFileExists fails the test if the file does not exist.
func (v *TestTree) AssertFileExists(relPath string) {
	v.t.Helper()
	if _, err := os.Stat(v.Abs(relPath)); os.IsNotExist(err) {
		v.t.Errorf("expected file to exist: %s", relPath)
	}
}

// AssertFileNotExists fails the test if the file exists.
func (v *TestTree) AssertFileNotExists(relPath string) {
	v.t.Helper()
	if _, err := os.Stat(v.Abs(relPath)); err == nil {
		v.t.Errorf("expected file to not exist: %s", relPath)
	}
}

// AssertFileContains fails the test if the file does not contain the substring.
func (v *TestTree) AssertFileContains(relPath, substr string) {
	v.t.Helper()
	content := v.ReadFile(relPath)
	if !strings.Contains(content, substr) {
		v.t.Errorf("expected file %s to contain %q, got:\n%s", relPath, substr, content)
	}
}

// AssertFileNotContains fails the test if the file contains the substring.
func (v *TestTree) AssertFileNotContains(relPath, substr string) {
	v.t.Helper()
	content := v.ReadFile(relPath)
	if strings.Contains(content, substr) {
		v.t.Errorf("expected file %s to not contain %q, got:\n%s", relPath, substr, content)
	}
}

// AssertDirExists fails the test if the directory does not exist.
func (v *TestTree) AssertDirExists(relPath string) {
	v.t.Helper()
	info, err := os.Stat(v.Abs(relPath))
	if os.IsNotExist(err) {
		v.t.Errorf("expected directory to exist: %s", relPath)
		return
	}
	if !info.IsDir() {
		v.t.Errorf("expected %s to be a directory, but it's a file", relPath)
	}
}

// AssertDirNotExists fails the test if the directory exists.
func (v *TestTree) AssertDirNotExists(relPath string) {
	v.t.Helper()
	if _, err := os.Stat(v.Abs(relPath)); err == nil {
		v.t.Errorf("expected directory to not exist: %s", relPath)
	}
}
