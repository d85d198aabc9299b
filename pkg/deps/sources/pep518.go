package sources

import (
	"context"

	"github.com/matzehuels/pyproject/pkg/backend"
	"github.com/matzehuels/pyproject/pkg/deps"
	"github.com/matzehuels/pyproject/pkg/pep508"
)

// PEP518 reads the static build requirements from [build-system].requires.
var PEP518 = &deps.SourceType{
	Name:        "pep518",
	Description: "build requirements from [build-system] of pyproject.toml",
	Resolver:    deps.ResolverFunc(resolvePEP518),
}

func resolvePEP518(ctx context.Context, args []string, opts deps.Options) ([]pep508.Requirement, error) {
	bs, err := backend.LoadBuildSystem(opts.ProjectRoot)
	if err != nil {
		return nil, err
	}
	return deps.ParseAll(backend.PyprojectFile+" [build-system].requires", bs.Requires)
}
