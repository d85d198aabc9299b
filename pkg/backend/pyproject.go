package backend

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/pyproject/pkg/errors"
)

// PyprojectFile is the name of the project configuration file.
const PyprojectFile = "pyproject.toml"

// Fallback build system used when pyproject.toml has no [build-system] table.
const DefaultBuildBackend = "setuptools.build_meta:__legacy__"

// DefaultBuildRequires are the build requirements assumed for projects
// without a [build-system] table.
var DefaultBuildRequires = []string{"setuptools>=40.8.0", "wheel"}

// BuildSystem is the [build-system] table of pyproject.toml.
type BuildSystem struct {
	Requires     []string `toml:"requires"`
	BuildBackend string   `toml:"build-backend"`
	BackendPath  []string `toml:"backend-path"`
}

// ReadPyproject decodes pyproject.toml in root into a generic table.
// A missing file yields a FILE_NOT_FOUND error.
func ReadPyproject(root string) (map[string]any, error) {
	path := filepath.Join(root, PyprojectFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "%s not found", path)
		}
		return nil, errors.Wrap(errors.ErrCodeResolution, err, "read %s", path)
	}
	var doc map[string]any
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeResolution, err, "parse %s", path)
	}
	return doc, nil
}

// LoadBuildSystem reads the [build-system] table of the project in root.
//
// Without pyproject.toml or without the table, the PEP 517 fallback is
// returned. A table that exists but lacks "requires" is an error. A missing
// build-backend selects [DefaultBuildBackend].
func LoadBuildSystem(root string) (BuildSystem, error) {
	path := filepath.Join(root, PyprojectFile)
	fallback := BuildSystem{
		Requires:     append([]string(nil), DefaultBuildRequires...),
		BuildBackend: DefaultBuildBackend,
	}

	var doc struct {
		BuildSystem *struct {
			Requires     *[]string `toml:"requires"`
			BuildBackend string    `toml:"build-backend"`
			BackendPath  []string  `toml:"backend-path"`
		} `toml:"build-system"`
	}
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		if os.IsNotExist(err) {
			return fallback, nil
		}
		return BuildSystem{}, errors.Wrap(errors.ErrCodeResolution, err, "parse %s", path)
	}
	if doc.BuildSystem == nil {
		return fallback, nil
	}
	if doc.BuildSystem.Requires == nil {
		return BuildSystem{}, errors.New(errors.ErrCodeResolution, "%s: [build-system] is missing \"requires\"", path)
	}

	bs := BuildSystem{
		Requires:     *doc.BuildSystem.Requires,
		BuildBackend: doc.BuildSystem.BuildBackend,
		BackendPath:  doc.BuildSystem.BackendPath,
	}
	if bs.BuildBackend == "" {
		bs.BuildBackend = DefaultBuildBackend
	}
	for i, p := range bs.BackendPath {
		if !filepath.IsAbs(p) {
			bs.BackendPath[i] = filepath.Join(root, p)
		}
	}
	return bs, nil
}
