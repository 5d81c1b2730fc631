package testutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
)

// cliBinary is the projmv binary, built once per test process.
var cliBinary struct {
	once sync.Once
	path string
	err  error
}

// CLIResult is the decoded JSON envelope of one projmv invocation.
type CLIResult struct {
	OK       bool                   `json:"ok"`
	Data     map[string]interface{} `json:"data,omitempty"`
	Error    *CLIError              `json:"error,omitempty"`
	Warnings []CLIWarning           `json:"warnings,omitempty"`

	RawJSON  string `json:"-"`
	Stderr   string `json:"-"`
	ExitCode int    `json:"-"`
}

// CLIError is the envelope's error object.
type CLIError struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Suggestion string                 `json:"suggestion,omitempty"`
}

// CLIWarning is one envelope warning.
type CLIWarning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BuildCLI compiles ./cmd/projmv from the enclosing module into a temp
// directory and returns the binary path.
func BuildCLI(t *testing.T) string {
	t.Helper()
	cliBinary.once.Do(func() {
		cliBinary.path, cliBinary.err = buildBinary()
	})
	if cliBinary.err != nil {
		t.Fatalf("build projmv: %v", cliBinary.err)
	}
	return cliBinary.path
}

func buildBinary() (string, error) {
	modRoot, err := moduleRoot()
	if err != nil {
		return "", err
	}
	outDir, err := os.MkdirTemp("", "projmv-bin-*")
	if err != nil {
		return "", err
	}
	out := filepath.Join(outDir, "projmv")
	if runtime.GOOS == "windows" {
		out += ".exe"
	}

	cmd := exec.Command("go", "build", "-o", out, "./cmd/projmv")
	cmd.Dir = modRoot
	if msg, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("%w\n%s", err, msg)
	}
	return out, nil
}

func moduleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for ; ; dir = filepath.Dir(dir) {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		if filepath.Dir(dir) == dir {
			return "", errors.New("go.mod not found above the working directory")
		}
	}
}

// Home is the fake home directory used for every CLI run against this tree.
// Config and state written by projmv land below it, never in the tree.
func (v *TestTree) Home() string {
	v.t.Helper()
	if v.home == "" {
		v.home = v.t.TempDir()
	}
	return v.home
}

// RunCLI runs projmv against the tree with --json, --no-git and --no-history.
func (v *TestTree) RunCLI(args ...string) *CLIResult {
	v.t.Helper()
	return v.RunCLIWithFlags([]string{"--no-git", "--no-history"}, args...)
}

// RunCLIWithFlags is RunCLI with explicit global flags in place of the defaults.
func (v *TestTree) RunCLIWithFlags(flags []string, args ...string) *CLIResult {
	v.t.Helper()

	argv := append([]string{"--root", v.Path, "--json"}, flags...)
	cmd := exec.Command(BuildCLI(v.t), append(argv, args...)...)
	cmd.Dir = v.Path
	home := v.Home()
	cmd.Env = append(os.Environ(),
		"PWD="+v.Path,
		"HOME="+home,
		"XDG_CONFIG_HOME="+filepath.Join(home, ".config"),
		"XDG_STATE_HOME="+filepath.Join(home, ".local", "state"),
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout, cmd.Stderr = &stdout, &stderr
	runErr := cmd.Run()

	res := &CLIResult{}
	if err := json.Unmarshal(stdout.Bytes(), res); err != nil {
		res = &CLIResult{Error: &CLIError{
			Code:    "PARSE_ERROR",
			Message: "invalid JSON output: " + err.Error(),
		}}
	}
	res.RawJSON = stdout.String()
	res.Stderr = stderr.String()

	var exitErr *exec.ExitError
	switch {
	case errors.As(runErr, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	case runErr != nil:
		res.ExitCode = -1
	}
	return res
}

// MustSucceed fails the test unless the envelope reports ok.
func (r *CLIResult) MustSucceed(t *testing.T) *CLIResult {
	t.Helper()
	if !r.OK {
		t.Fatalf("command failed: %s\nstdout: %s\nstderr: %s", r.describeError(), r.RawJSON, r.Stderr)
	}
	return r
}

// MustFail fails the test unless the command exited 1 with code.
func (r *CLIResult) MustFail(t *testing.T, code string) *CLIResult {
	t.Helper()
	switch {
	case r.OK:
		t.Fatalf("expected %s, command succeeded\nstdout: %s", code, r.RawJSON)
	case r.Error == nil || r.Error.Code != code:
		t.Fatalf("expected %s, got %s\nstdout: %s", code, r.describeError(), r.RawJSON)
	case r.ExitCode != 1:
		t.Fatalf("exit code = %d, want 1", r.ExitCode)
	}
	return r
}

// MustFailWithMessage fails the test unless the command failed with msg in
// its error message or suggestion.
func (r *CLIResult) MustFailWithMessage(t *testing.T, msg string) *CLIResult {
	t.Helper()
	if r.OK {
		t.Fatalf("expected failure, command succeeded\nstdout: %s", r.RawJSON)
	}
	if r.Error == nil || !(strings.Contains(r.Error.Message, msg) || strings.Contains(r.Error.Suggestion, msg)) {
		t.Errorf("error does not mention %q: %s", msg, r.describeError())
	}
	return r
}

func (r *CLIResult) describeError() string {
	if r.Error == nil {
		return "no error object"
	}
	return r.Error.Code + ": " + r.Error.Message
}

// HasWarning reports whether the envelope carries a warning with code.
func (r *CLIResult) HasWarning(code string) bool {
	for _, w := range r.Warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}

// DataList returns data[key] when it is a list.
func (r *CLIResult) DataList(key string) []interface{} {
	list, _ := r.Data[key].([]interface{})
	return list
}

// DataString returns data[key] when it is a string.
func (r *CLIResult) DataString(key string) string {
	s, _ := r.Data[key].(string)
	return s
}
