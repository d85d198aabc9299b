package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/pyproject/pkg/deps"
	"github.com/matzehuels/pyproject/pkg/errors"
)

// fakeCaller answers hooks from a table of JSON results.
type fakeCaller struct {
	results map[string]string
	onCall  func(hook string, args []any)
}

func (f *fakeCaller) CallHook(_ context.Context, hook string, args []any, _ map[string]any) (json.RawMessage, error) {
	if f.onCall != nil {
		f.onCall(hook, args)
	}
	res, ok := f.results[hook]
	if !ok {
		return nil, errors.New(errors.ErrCodeHook, "hook %s exited with status 1", hook)
	}
	return json.RawMessage(res), nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

type result struct {
	reqs     []string
	warnings []string
}

// resolve runs st in dir and returns the canonical requirement strings and
// any warnings.
func resolve(t *testing.T, st *deps.SourceType, opts deps.Options, args ...string) (result, error) {
	t.Helper()
	var res result
	opts.Warn = func(format string, a ...any) {
		res.warnings = append(res.warnings, fmt.Sprintf(format, a...))
	}
	opts = opts.WithDefaults()
	if err := st.Validate(args); err != nil {
		return res, err
	}
	reqs, err := st.Resolver.Resolve(context.Background(), args, opts)
	for _, r := range reqs {
		res.reqs = append(res.reqs, r.String())
	}
	return res, err
}

func mustResolve(t *testing.T, st *deps.SourceType, dir string, args ...string) result {
	t.Helper()
	res, err := resolve(t, st, deps.Options{ProjectRoot: dir}, args...)
	if err != nil {
		t.Fatalf("%s %v: %v", st.Name, args, err)
	}
	return res
}

func TestDefault(t *testing.T) {
	want := []string{"pep518", "pep517", "metadata", "pep735", "deplist", "pip_reqfile",
		"tox", "poetry", "hatch", "pdm", "pipenv"}
	if diff := cmp.Diff(want, Default().Names()); diff != "" {
		t.Errorf("Names mismatch (-want +got):\n%s", diff)
	}
	for _, st := range Default().Types() {
		if st.Description == "" {
			t.Errorf("%s has no description", st.Name)
		}
	}
}

func TestPEP518(t *testing.T) {
	tests := []struct {
		name    string
		content string // empty means no pyproject.toml
		want    []string
		wantErr bool
	}{
		{
			name:    "requires",
			content: "[build-system]\nrequires = [\"setuptools>=61\", \"wheel\"]\n",
			want:    []string{"setuptools>=61", "wheel"},
		},
		{
			name: "fallback without file",
			want: []string{"setuptools>=40.8.0", "wheel"},
		},
		{
			name:    "fallback without table",
			content: "[project]\nname = \"demo\"\n",
			want:    []string{"setuptools>=40.8.0", "wheel"},
		},
		{
			name:    "table without requires",
			content: "[build-system]\nbuild-backend = \"flit_core.buildapi\"\n",
			wantErr: true,
		},
		{
			name:    "invalid requirement",
			content: "[build-system]\nrequires = [\"foo bar\"]\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.content != "" {
				writeFile(t, filepath.Join(dir, "pyproject.toml"), tt.content)
			}
			res, err := resolve(t, PEP518, deps.Options{ProjectRoot: dir})
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, res.reqs); !tt.wantErr && diff != "" {
				t.Errorf("requirements mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPEP517(t *testing.T) {
	caller := &fakeCaller{results: map[string]string{
		"get_requires_for_build_wheel": `["wheel", "cython >= 3"]`,
		"get_requires_for_build_sdist": `[]`,
	}}
	opts := deps.Options{ProjectRoot: t.TempDir(), Hooks: caller}

	res, err := resolve(t, PEP517, opts)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"wheel", "cython>=3"}, res.reqs); diff != "" {
		t.Errorf("wheel requirements mismatch (-want +got):\n%s", diff)
	}

	res, err = resolve(t, PEP517, opts, "sdist")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.reqs) != 0 {
		t.Errorf("sdist requirements = %v, want none", res.reqs)
	}

	if _, err := resolve(t, PEP517, opts, "editable"); !errors.Is(err, errors.ErrCodeHook) {
		t.Errorf("failing hook: err = %v, want %s", err, errors.ErrCodeHook)
	}
	if _, err := resolve(t, PEP517, opts, "bdist"); !errors.Is(err, errors.ErrCodeSourceType) {
		t.Errorf("unknown target: err = %v, want %s", err, errors.ErrCodeSourceType)
	}
}

const sampleMetadata = `Metadata-Version: 2.1
Name: demo
Version: 1.0
Requires-Dist: requests>=2
Requires-Dist: pytest; extra == "test"
Requires-Dist: sphinx; extra == 'docs'
Provides-Extra: test
Provides-Extra: docs
`

func TestMetadata_File(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "PKG-INFO"), sampleMetadata)

	res := mustResolve(t, Metadata, dir, "PKG-INFO")
	want := []string{"requests>=2", `pytest; extra == "test"`, `sphinx; extra == "docs"`}
	if diff := cmp.Diff(want, res.reqs); diff != "" {
		t.Errorf("requirements mismatch (-want +got):\n%s", diff)
	}

	res = mustResolve(t, Metadata, dir, "PKG-INFO", "Test")
	if diff := cmp.Diff([]string{`pytest; extra == "test"`}, res.reqs); diff != "" {
		t.Errorf("extra requirements mismatch (-want +got):\n%s", diff)
	}

	if _, err := resolve(t, Metadata, deps.Options{ProjectRoot: dir}, "missing"); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file: err = %v, want %s", err, errors.ErrCodeFileNotFound)
	}
}

func TestMetadata_Backend(t *testing.T) {
	caller := &fakeCaller{
		results: map[string]string{"prepare_metadata_for_build_wheel": `"demo-1.0.dist-info"`},
		onCall: func(hook string, args []any) {
			outdir := args[0].(string)
			writeFile(t, filepath.Join(outdir, "demo-1.0.dist-info", "METADATA"), sampleMetadata)
		},
	}
	opts := deps.Options{ProjectRoot: t.TempDir(), Hooks: caller}

	for _, args := range [][]string{nil, {"-"}} {
		res, err := resolve(t, Metadata, opts, args...)
		if err != nil {
			t.Fatalf("%v: %v", args, err)
		}
		if len(res.reqs) != 3 {
			t.Errorf("%v: requirements = %v, want 3", args, res.reqs)
		}
	}

	res, err := resolve(t, Metadata, opts, "-", "docs")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{`sphinx; extra == "docs"`}, res.reqs); diff != "" {
		t.Errorf("requirements mismatch (-want +got):\n%s", diff)
	}
}

func TestDeplist(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "deps.txt"), "foo>=1.0\n# comment\n\nbar  # trailing\nBaz[x] ; os_name == 'posix'\n")

	res := mustResolve(t, Deplist, dir, "deps.txt")
	want := []string{"foo>=1.0", "bar", `Baz[x]; os_name == "posix"`}
	if diff := cmp.Diff(want, res.reqs); diff != "" {
		t.Errorf("requirements mismatch (-want +got):\n%s", diff)
	}

	writeFile(t, filepath.Join(dir, "bad.txt"), "foo\n-e .\n")
	if _, err := resolve(t, Deplist, deps.Options{ProjectRoot: dir}, "bad.txt"); !errors.Is(err, errors.ErrCodeResolution) {
		t.Errorf("invalid line: err = %v, want %s", err, errors.ErrCodeResolution)
	}
	if _, err := resolve(t, Deplist, deps.Options{ProjectRoot: dir}, "nope.txt"); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file: err = %v, want %s", err, errors.ErrCodeFileNotFound)
	}
	if _, err := resolve(t, Deplist, deps.Options{ProjectRoot: dir}); !errors.Is(err, errors.ErrCodeSourceType) {
		t.Errorf("missing argument: err = %v, want %s", err, errors.ErrCodeSourceType)
	}
}

func TestPipReqfile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "requirements.txt"), `# comment
-r other.txt
requests>=2.0 --hash=sha256:abc
flask \
    >=2.0
-e ./local
git+https://github.com/x/y.git
./path/to/pkg
foo @ https://example.com/foo.whl
pytest ; python_version >= "3.8"  # inline comment
`)

	res := mustResolve(t, PipReqfile, dir, "requirements.txt")
	want := []string{
		"requests>=2.0",
		"flask>=2.0",
		`pytest; python_version >= "3.8"`,
	}
	if diff := cmp.Diff(want, res.reqs); diff != "" {
		t.Errorf("requirements mismatch (-want +got):\n%s", diff)
	}
	if len(res.warnings) != 5 {
		t.Errorf("warnings = %q, want 5", res.warnings)
	}
}

func TestJoinContinuations(t *testing.T) {
	got := joinContinuations("a \\\nb\nc\r\nd\\")
	if diff := cmp.Diff([]string{"a b", "c", "d"}, got); diff != "" {
		t.Errorf("joinContinuations mismatch (-want +got):\n%s", diff)
	}
}

func TestStripComment(t *testing.T) {
	tests := map[string]string{
		"# all":                       "",
		"foo  # trailing":             "foo",
		"foo @ https://x/y.zip#sha1=": "foo @ https://x/y.zip#sha1=",
		"  bar\t#x":                   "bar",
	}
	for in, want := range tests {
		if got := stripComment(in); got != want {
			t.Errorf("stripComment(%q) = %q, want %q", in, got, want)
		}
	}
}
