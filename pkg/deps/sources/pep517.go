package sources

import (
	"context"
	"slices"
	"strings"

	"github.com/matzehuels/pyproject/pkg/backend"
	"github.com/matzehuels/pyproject/pkg/deps"
	"github.com/matzehuels/pyproject/pkg/errors"
	"github.com/matzehuels/pyproject/pkg/pep508"
)

// PEP517 asks the build backend for the extra requirements of a build
// target via get_requires_for_build_<target>.
var PEP517 = &deps.SourceType{
	Name:        "pep517",
	Description: "dynamic build requirements reported by the build backend",
	Usage:       "[wheel|sdist|editable]",
	MaxArgs:     1,
	CheckArgs: func(args []string) error {
		if len(args) == 1 && !slices.Contains(backend.Targets, args[0]) {
			return errors.New(errors.ErrCodeInvalidInput, "unknown build target %q (want %s)",
				args[0], strings.Join(backend.Targets, ", "))
		}
		return nil
	},
	Resolver: deps.ResolverFunc(resolvePEP517),
}

func resolvePEP517(ctx context.Context, args []string, opts deps.Options) ([]pep508.Requirement, error) {
	target := "wheel"
	if len(args) == 1 {
		target = args[0]
	}
	caller, err := opts.Caller()
	if err != nil {
		return nil, err
	}
	opts.Logger("calling get_requires_for_build_%s", target)
	reqs, err := backend.GetRequires(ctx, caller, target)
	if err != nil {
		return nil, err
	}
	return deps.ParseAll("get_requires_for_build_"+target, reqs)
}
