package cli

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/pyproject/pkg/errors"
)

func TestParseConfigSettings(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    map[string]any
		wantErr bool
	}{
		{"empty", "", nil, false},
		{"object", `{"--global-option": ["--quiet"], "editable_mode": "strict"}`, map[string]any{
			"--global-option": []any{"--quiet"},
			"editable_mode":   "strict",
		}, false},
		{"not an object", `["a"]`, nil, true},
		{"malformed", `{"a":`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseConfigSettings(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseConfigSettings() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("error code = %q, want INVALID_INPUT", errors.GetCode(err))
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("parseConfigSettings() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOutdirOrDefault(t *testing.T) {
	if got, want := outdirOrDefault("", "proj"), filepath.Join("proj", "dist"); got != want {
		t.Errorf("outdirOrDefault(\"\") = %q, want %q", got, want)
	}
	if got := outdirOrDefault("/tmp/out", "proj"); got != "/tmp/out" {
		t.Errorf("outdirOrDefault(/tmp/out) = %q", got)
	}
}

func TestBuildWithoutPyproject(t *testing.T) {
	tc := newTestCLI(t)
	tc.write(t, "setup.py", "")

	// A missing pyproject.toml selects the legacy setuptools backend; the
	// interpreter does not exist, so the hook call itself fails.
	err := tc.run("build", tc.dir, "--outdir", filepath.Join(tc.dir, "out"))
	if err == nil {
		t.Fatal("build succeeded without an interpreter")
	}
	if got := ExitCode(err); got != ExitFailure {
		t.Errorf("ExitCode = %d, want %d (err: %v)", got, ExitFailure, err)
	}
}
