package deps

import (
	"io"
	"path/filepath"

	"github.com/matzehuels/pyproject/pkg/backend"
	"github.com/matzehuels/pyproject/pkg/errors"
	"github.com/matzehuels/pyproject/pkg/pep508"
)

// DefaultPython is the interpreter used for build backend hooks.
const DefaultPython = "python3"

// Options configures source resolution and evaluation.
type Options struct {
	ProjectRoot string               // Directory relative source paths resolve against (default: ".")
	Python      []string             // Interpreter command for backend hooks (default: python3)
	Hooks       backend.HookCaller   // Overrides the subprocess hook caller (optional)
	Env         pep508.Environment   // Marker environment for eval (default: pep508.DefaultEnvironment())
	Warn        func(string, ...any) // Non-fatal resolver warnings (optional)
	Logger      func(string, ...any) // Progress callback (optional)
	HookOutput  io.Writer            // Receives build backend output (optional)
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.ProjectRoot == "" {
		opts.ProjectRoot = "."
	}
	if len(opts.Python) == 0 {
		opts.Python = []string{DefaultPython}
	}
	if opts.Env == nil {
		opts.Env = pep508.DefaultEnvironment()
	}
	if opts.Warn == nil {
		opts.Warn = func(string, ...any) {}
	}
	if opts.Logger == nil {
		opts.Logger = func(string, ...any) {}
	}
	return opts
}

// Path resolves a source argument against the project root.
func (o Options) Path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(o.ProjectRoot, p)
}

// Caller returns the hook caller for the project's build backend.
func (o Options) Caller() (backend.HookCaller, error) {
	if o.Hooks != nil {
		return o.Hooks, nil
	}
	bs, err := backend.LoadBuildSystem(o.ProjectRoot)
	if err != nil {
		return nil, err
	}
	python := o.Python
	if len(python) == 0 {
		python = []string{DefaultPython}
	}
	return &backend.Subprocess{Python: python, SrcDir: o.ProjectRoot, BuildSystem: bs, Stdout: o.HookOutput}, nil
}

// ParseAll parses requirement strings, failing on the first invalid one.
// what names the origin for the error message, e.g. a file path.
func ParseAll(what string, lines []string) ([]pep508.Requirement, error) {
	reqs := make([]pep508.Requirement, 0, len(lines))
	for _, line := range lines {
		req, err := pep508.Parse(line)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeResolution, err, "%s", what)
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}
