package cli

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/mattn/go-shellwords"

	"github.com/matzehuels/pyproject/pkg/deps"
	"github.com/matzehuels/pyproject/pkg/deps/store"
	"github.com/matzehuels/pyproject/pkg/errors"
)

// loadEnvFile loads variables from path into the process environment.
// Variables that are already set keep their value.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "load env file %s", path)
	}
	return nil
}

// pythonCommand returns the interpreter command line for backend hooks:
// the --python flag, then $PYPROJECT_PYTHON, then python3.
func (c *CLI) pythonCommand() ([]string, error) {
	raw := c.python
	if raw == "" {
		raw = os.Getenv(envPython)
	}
	if raw == "" {
		return []string{deps.DefaultPython}, nil
	}
	argv, err := shellwords.Parse(raw)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid python command %q", raw)
	}
	if len(argv) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "empty python command")
	}
	return argv, nil
}

// depsFilePath returns the store location: the --depsfile flag, then
// $PYPROJECT_DEPS_FILE, then pyproject_deps.json in srcdir.
func depsFilePath(flag, srcdir string) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv(envDepsFile); env != "" {
		return env
	}
	return filepath.Join(srcdir, store.DefaultFileName)
}
