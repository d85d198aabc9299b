package metadata

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/pyproject/pkg/errors"
)

const sampleMetadata = `Metadata-Version: 2.1
Name: foo
Version: 1.0
Requires-Dist: bar>=1
Requires-Dist: baz ; extra == "test"
Provides-Extra: test
Requires-Dist: qux ; python_version < "3.9"
`

func TestParse(t *testing.T) {
	m, err := Parse(strings.NewReader(sampleMetadata))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if got := m.Name(); got != "foo" {
		t.Errorf("Name() = %q, want foo", got)
	}
	if got := m.Version(); got != "1.0" {
		t.Errorf("Version() = %q, want 1.0", got)
	}

	want := []string{"bar>=1", `baz ; extra == "test"`, `qux ; python_version < "3.9"`}
	if diff := cmp.Diff(want, m.RequiresDist()); diff != "" {
		t.Errorf("RequiresDist mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"test"}, m.ProvidesExtra()); diff != "" {
		t.Errorf("ProvidesExtra mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Body(t *testing.T) {
	m, err := Parse(strings.NewReader("Name: foo\n\nLong description\n"))
	if err != nil {
		t.Fatal(err)
	}
	if m.Body != "Long description" {
		t.Errorf("Body = %q", m.Body)
	}
	if m.RequiresDist() != nil {
		t.Errorf("RequiresDist() = %v, want nil", m.RequiresDist())
	}
}

func TestParseFile_Missing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "METADATA"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("ParseFile(missing) = %v, want %s", err, errors.ErrCodeFileNotFound)
	}
}

func TestParseFile_Wheel(t *testing.T) {
	whl := writeWheel(t, t.TempDir(), "foo-1.0-py3-none-any.whl", "foo-1.0.dist-info/METADATA", sampleMetadata)

	m, err := ParseFile(whl)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if got := len(m.RequiresDist()); got != 3 {
		t.Errorf("len(RequiresDist()) = %d, want 3", got)
	}
}

func TestReadWheelMetadata_Missing(t *testing.T) {
	whl := writeWheel(t, t.TempDir(), "foo-1.0-py3-none-any.whl", "foo-1.0.dist-info/RECORD", "")
	if _, err := ReadWheelMetadata(whl); err == nil {
		t.Error("expected error for wheel without METADATA")
	}
}

func TestParseWheelName(t *testing.T) {
	tests := []struct {
		name    string
		dist    string
		version string
		wantErr bool
	}{
		{"foo-1.0-py3-none-any.whl", "foo", "1.0", false},
		{"/tmp/out/foo_bar-2.0.1-1-cp312-cp312-linux_x86_64.whl", "foo_bar", "2.0.1", false},
		{"foo-1.0.tar.gz", "", "", true},
		{"foo-1.0-any.whl", "", "", true},
		{"-1.0-py3-none-any.whl", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dist, version, err := ParseWheelName(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseWheelName(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if dist != tt.dist || version != tt.version {
				t.Errorf("ParseWheelName(%q) = %q, %q, want %q, %q", tt.name, dist, version, tt.dist, tt.version)
			}
		})
	}
}

func writeWheel(t *testing.T, dir, name, member, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create(member)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}
