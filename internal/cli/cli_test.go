package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/pyproject/pkg/errors"
	"github.com/matzehuels/pyproject/pkg/observability"
)

// testCLI runs commands against a project directory with a fixed python
// command that does not exist, so no interpreter is ever spawned.
type testCLI struct {
	dir    string
	stdout bytes.Buffer
	logs   bytes.Buffer
}

func newTestCLI(t *testing.T) *testCLI {
	t.Helper()
	old := uiOut
	uiOut = io.Discard
	t.Cleanup(func() {
		uiOut = old
		observability.Reset()
	})
	t.Setenv(envDepsFile, "")
	t.Setenv(envPython, "")
	return &testCLI{dir: t.TempDir()}
}

func (tc *testCLI) run(args ...string) error {
	tc.stdout.Reset()
	c := New(&tc.logs, LogInfo)
	c.Stdout = &tc.stdout
	root := c.RootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	full := append([]string{"--python", filepath.Join(tc.dir, "no-python")}, args...)
	root.SetArgs(full)
	return root.ExecuteContext(context.Background())
}

func (tc *testCLI) deps(args ...string) error {
	return tc.run(append([]string{"deps", "--srcdir", tc.dir}, args...)...)
}

func (tc *testCLI) write(t *testing.T, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(tc.dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDepsSyncEval(t *testing.T) {
	tc := newTestCLI(t)
	tc.write(t, "reqs.txt", "foo>=1.0\nbar\n")

	if err := tc.deps("add", "build", "reqs", "deplist", "reqs.txt"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := tc.deps("sync", "build"); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if err := tc.deps("eval", "build"); err != nil {
		t.Fatalf("eval: %v", err)
	}
	if diff := cmp.Diff("foo>=1.0\nbar\n", tc.stdout.String()); diff != "" {
		t.Errorf("eval output mismatch (-want +got):\n%s", diff)
	}

	if err := tc.deps("eval", "build", "--exclude", "foo"); err != nil {
		t.Fatalf("eval --exclude: %v", err)
	}
	if got := tc.stdout.String(); got != "bar\n" {
		t.Errorf("eval --exclude = %q, want %q", got, "bar\n")
	}

	if err := tc.deps("eval", "--depformat", "python3-$nname"); err != nil {
		t.Fatalf("eval --depformat: %v", err)
	}
	if got := tc.stdout.String(); got != "python3-foo\npython3-bar\n" {
		t.Errorf("eval --depformat = %q", got)
	}

	if _, err := os.Stat(filepath.Join(tc.dir, "pyproject_deps.json")); err != nil {
		t.Errorf("store not created in srcdir: %v", err)
	}
}

func TestDepsVerify(t *testing.T) {
	tc := newTestCLI(t)
	tc.write(t, "reqs.txt", "foo>=1.0\nbar\n")

	if err := tc.deps("add", "build", "reqs", "deplist", "reqs.txt"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := tc.deps("sync"); err != nil {
		t.Fatalf("sync: %v", err)
	}

	if err := tc.deps("verify"); err != nil {
		t.Fatalf("verify after sync: %v", err)
	}
	if tc.stdout.Len() != 0 {
		t.Errorf("verify without drift wrote %q", tc.stdout.String())
	}

	tc.write(t, "reqs.txt", "foo>=2.0\nbar\n")
	err := tc.deps("sync", "--verify")
	if got := ExitCode(err); got != ExitDrift {
		t.Fatalf("ExitCode = %d, want %d (err: %v)", got, ExitDrift, err)
	}
	want := `{
  "build": {
    "added": [
      "foo>=2.0"
    ],
    "removed": [
      "foo>=1.0"
    ]
  }
}
`
	if diff := cmp.Diff(want, tc.stdout.String()); diff != "" {
		t.Errorf("drift report mismatch (-want +got):\n%s", diff)
	}
}

func TestDepsAddDelete(t *testing.T) {
	tc := newTestCLI(t)

	if err := tc.deps("add", "build", "pep518", "pep518"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := tc.deps("delete", "--srcname", "pep518", "build"); err != nil {
		t.Fatalf("delete --srcname: %v", err)
	}
	if err := tc.deps("show", "build"); err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(tc.stdout.String(), `"build"`) {
		t.Errorf("group build missing after deleting its source:\n%s", tc.stdout.String())
	}
	if strings.Contains(tc.stdout.String(), "pep518") {
		t.Errorf("source pep518 still present:\n%s", tc.stdout.String())
	}

	if err := tc.deps("delete", "build"); err != nil {
		t.Fatalf("delete group: %v", err)
	}
	err := tc.deps("show", "build")
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("show deleted group: got %v, want NOT_FOUND", err)
	}
}

func TestDepsShowYAML(t *testing.T) {
	tc := newTestCLI(t)

	if err := tc.deps("add", "runtime", "pins", "deplist", "requirements.in"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := tc.deps("show", "--format", "yaml"); err != nil {
		t.Fatalf("show: %v", err)
	}
	for _, want := range []string{"runtime:", "srctype: deplist", "requirements.in"} {
		if !strings.Contains(tc.stdout.String(), want) {
			t.Errorf("yaml output missing %q:\n%s", want, tc.stdout.String())
		}
	}
}

func TestDepsFilter(t *testing.T) {
	tc := newTestCLI(t)
	tc.write(t, "reqs.txt", "pytest\npytest-cov\nflake8\n")

	steps := [][]string{
		{"add", "check", "reqs", "deplist", "reqs.txt"},
		{"filter", "add", "check", "exclude", "pytest-"},
		{"sync"},
		{"eval"},
	}
	for _, args := range steps {
		if err := tc.deps(args...); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
	}
	if got := tc.stdout.String(); got != "pytest\nflake8\n" {
		t.Errorf("eval = %q, want %q", got, "pytest\nflake8\n")
	}
}

func TestExitCodes(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"unknown source type", []string{"add", "build", "x", "nosuchtype"}, ExitFailure},
		{"missing arguments", []string{"add", "build"}, ExitUsage},
		{"unknown flag", []string{"sync", "--no-such-flag"}, ExitUsage},
		{"bad format", []string{"show", "--format", "toml"}, ExitUsage},
		{"extra format alone", []string{"eval", "--depformatextra", "+$extra"}, ExitUsage},
		{"missing store", []string{"sync"}, ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := newTestCLI(t)
			err := tc.deps(tt.args...)
			if got := ExitCode(err); got != tt.want {
				t.Errorf("ExitCode = %d, want %d (err: %v)", got, tt.want, err)
			}
		})
	}
}

func TestSyncFailureNamesSource(t *testing.T) {
	tc := newTestCLI(t)
	tc.write(t, "reqs.txt", "foo\n")

	if err := tc.deps("add", "build", "reqs", "deplist", "reqs.txt"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := tc.deps("sync"); err != nil {
		t.Fatalf("sync: %v", err)
	}
	before, err := os.ReadFile(filepath.Join(tc.dir, "pyproject_deps.json"))
	if err != nil {
		t.Fatal(err)
	}

	tc.write(t, "reqs.txt", "foo\nnot a requirement!\n")
	err = tc.deps("sync")
	if !errors.Is(err, errors.ErrCodeResolution) {
		t.Fatalf("sync: got %v, want RESOLUTION_ERROR", err)
	}
	if !strings.Contains(err.Error(), `"reqs"`) {
		t.Errorf("error does not name the source: %v", err)
	}

	after, err := os.ReadFile(filepath.Join(tc.dir, "pyproject_deps.json"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Error("failed sync modified the store")
	}
}
