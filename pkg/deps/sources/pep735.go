package sources

import (
	"context"
	"path/filepath"
	"slices"
	"strings"

	"github.com/matzehuels/pyproject/pkg/backend"
	"github.com/matzehuels/pyproject/pkg/deps"
	"github.com/matzehuels/pyproject/pkg/errors"
	"github.com/matzehuels/pyproject/pkg/pep508"
)

// PEP735 reads a dependency group from [dependency-groups] of
// pyproject.toml, following include-group references.
var PEP735 = &deps.SourceType{
	Name:        "pep735",
	Description: "dependency group from [dependency-groups] of pyproject.toml",
	Usage:       "GROUP",
	MinArgs:     1,
	MaxArgs:     1,
	CheckArgs:   nonEmptyArgs,
	Resolver:    deps.ResolverFunc(resolvePEP735),
}

const dependencyGroupsTable = "dependency-groups"

func resolvePEP735(ctx context.Context, args []string, opts deps.Options) ([]pep508.Requirement, error) {
	doc, _, err := readTOML(filepath.Join(opts.ProjectRoot, backend.PyprojectFile))
	if err != nil {
		return nil, err
	}
	groups, ok, err := lookupTable(doc, dependencyGroupsTable)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New(errors.ErrCodeResolution, "missing [%s] table in %s", dependencyGroupsTable, backend.PyprojectFile)
	}
	r := &groupResolver{groups: groups}
	return r.resolve(args[0], nil)
}

type groupResolver struct {
	groups map[string]any
}

// actualName finds the single key of groups that normalizes like name.
func (r *groupResolver) actualName(name string, chain []string) (string, error) {
	want := pep508.NormalizeName(name)
	var matches []string
	for key := range r.groups {
		if pep508.NormalizeName(key) == want {
			matches = append(matches, key)
		}
	}
	slices.Sort(matches)

	switch len(matches) {
	case 0:
		return "", r.fail(chain, "dependency group %q is not configured", name)
	case 1:
		return matches[0], nil
	}
	return "", r.fail(chain, "duplicate dependency group names for %q: %s", name, strings.Join(matches, ", "))
}

// resolve expands group; visited holds the groups of the include chain
// that led here.
func (r *groupResolver) resolve(group string, visited []string) ([]pep508.Requirement, error) {
	name, err := r.actualName(group, append(slices.Clone(visited), group))
	if err != nil {
		return nil, err
	}
	chain := append(slices.Clone(visited), name)
	norm := pep508.NormalizeName(name)
	if slices.ContainsFunc(visited, func(v string) bool { return pep508.NormalizeName(v) == norm }) {
		return nil, r.fail(chain, "include cycle detected")
	}

	entries, ok := r.groups[name].([]any)
	if !ok {
		return nil, r.fail(chain, "dependency group %q is not a list", name)
	}

	var reqs []pep508.Requirement
	for _, entry := range entries {
		switch v := entry.(type) {
		case string:
			req, err := pep508.Parse(v)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeResolution, err, "dependency group %s", strings.Join(chain, " -> "))
			}
			reqs = append(reqs, req)
		case map[string]any:
			include, ok := v["include-group"]
			if !ok || len(v) != 1 {
				return nil, r.fail(chain, "invalid dependency object %v", v)
			}
			sub, ok := include.(string)
			if !ok {
				return nil, r.fail(chain, "include-group value %v is not a string", include)
			}
			included, err := r.resolve(sub, chain)
			if err != nil {
				return nil, err
			}
			reqs = append(reqs, included...)
		default:
			return nil, r.fail(chain, "entries may be strings or tables, got %v", entry)
		}
	}
	return reqs, nil
}

func (r *groupResolver) fail(chain []string, format string, args ...any) error {
	err := errors.New(errors.ErrCodeResolution, format, args...)
	if len(chain) > 1 {
		return errors.Wrap(errors.ErrCodeResolution, err, "include chain %s", strings.Join(chain, " -> "))
	}
	return err
}
