package sources

import (
	"context"
	"path/filepath"

	"github.com/matzehuels/pyproject/pkg/backend"
	"github.com/matzehuels/pyproject/pkg/deps"
	"github.com/matzehuels/pyproject/pkg/errors"
	"github.com/matzehuels/pyproject/pkg/pep508"
)

// PDM reads a development dependency group from
// tool.pdm.dev-dependencies of pyproject.toml.
var PDM = &deps.SourceType{
	Name:        "pdm",
	Description: "development dependency group of tool.pdm in pyproject.toml",
	Usage:       "GROUP",
	MinArgs:     1,
	MaxArgs:     1,
	CheckArgs:   nonEmptyArgs,
	Resolver:    deps.ResolverFunc(resolvePDM),
}

func resolvePDM(ctx context.Context, args []string, opts deps.Options) ([]pep508.Requirement, error) {
	group := args[0]
	doc, _, err := readTOML(filepath.Join(opts.ProjectRoot, backend.PyprojectFile))
	if err != nil {
		return nil, err
	}
	groups, ok, err := lookupTable(doc, "tool", "pdm", "dev-dependencies")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New(errors.ErrCodeResolution, "pdm: missing tool.pdm.dev-dependencies table in %s", backend.PyprojectFile)
	}
	v, ok := groups[group]
	if !ok {
		return nil, errors.New(errors.ErrCodeResolution, "pdm dependencies are not configured for group: %s", group)
	}
	lines, err := stringList(v, "tool.pdm.dev-dependencies."+group)
	if err != nil {
		return nil, err
	}

	var kept []string
	for _, line := range lines {
		if line = stripComment(line); len(line) > 0 && line[0] == '-' {
			opts.Warn("pdm group %s: skipping %q", group, line)
			continue
		}
		kept = append(kept, line)
	}
	return bestEffort(kept, "pdm group "+group, opts), nil
}
