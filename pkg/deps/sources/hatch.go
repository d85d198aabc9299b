package sources

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/matzehuels/pyproject/pkg/backend"
	"github.com/matzehuels/pyproject/pkg/deps"
	"github.com/matzehuels/pyproject/pkg/errors"
	"github.com/matzehuels/pyproject/pkg/pep508"
)

// Hatch reads the dependencies of a hatch environment, from
// tool.hatch.envs.<ENV> of a pyproject.toml or envs.<ENV> of any other
// config file such as hatch.toml. Environment inheritance, context
// formatting and features are not supported.
var Hatch = &deps.SourceType{
	Name:        "hatch",
	Description: "dependencies of a hatch environment",
	Usage:       "CONFIG ENV",
	MinArgs:     2,
	MaxArgs:     2,
	CheckArgs:   nonEmptyArgs,
	Resolver:    deps.ResolverFunc(resolveHatch),
}

type hatchEnv struct {
	Dependencies      *[]string `toml:"dependencies"`
	ExtraDependencies *[]string `toml:"extra-dependencies"`
}

func resolveHatch(ctx context.Context, args []string, opts deps.Options) ([]pep508.Requirement, error) {
	config, env := args[0], args[1]
	doc, _, err := readTOML(opts.Path(config))
	if err != nil {
		return nil, err
	}

	path := []string{"envs", env}
	if filepath.Base(config) == backend.PyprojectFile {
		path = append([]string{"tool", "hatch"}, path...)
	}
	table, ok, err := lookupTable(doc, path...)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New(errors.ErrCodeResolution, "hatch: missing %s table in %s", strings.Join(path, "."), config)
	}

	var e hatchEnv
	if err := decode(table, &e); err != nil {
		return nil, errors.Wrap(errors.ErrCodeResolution, err, "hatch: %s", strings.Join(path, "."))
	}
	if e.Dependencies == nil && e.ExtraDependencies == nil {
		return nil, errors.New(errors.ErrCodeResolution,
			"hatch dependencies are not configured for %s: missing %s.dependencies and %s.extra-dependencies", env, env, env)
	}

	var lines []string
	if e.Dependencies != nil {
		lines = append(lines, *e.Dependencies...)
	}
	if e.ExtraDependencies != nil {
		lines = append(lines, *e.ExtraDependencies...)
	}
	return bestEffort(lines, config+" "+strings.Join(path, "."), opts), nil
}
