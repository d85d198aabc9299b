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

// Poetry reads a dependency group of tool.poetry in pyproject.toml. Poetry
// version constraints are not PEP 440, so only names, extras and markers are
// kept. The "main" group is tool.poetry.dependencies; "dev" falls back to the
// pre-1.2 tool.poetry.dev-dependencies table.
var Poetry = &deps.SourceType{
	Name:        "poetry",
	Description: "dependency group of tool.poetry in pyproject.toml",
	Usage:       "GROUP",
	MinArgs:     1,
	MaxArgs:     1,
	CheckArgs:   nonEmptyArgs,
	Resolver:    deps.ResolverFunc(resolvePoetry),
}

// poetryDependency is the table form of a poetry dependency.
type poetryDependency struct {
	Markers  string   `toml:"markers"`
	Platform string   `toml:"platform"`
	Extras   []string `toml:"extras"`
	Git      string   `toml:"git"`
	URL      string   `toml:"url"`
	Path     string   `toml:"path"`
}

func resolvePoetry(ctx context.Context, args []string, opts deps.Options) ([]pep508.Requirement, error) {
	group := args[0]
	doc, md, err := readTOML(filepath.Join(opts.ProjectRoot, backend.PyprojectFile))
	if err != nil {
		return nil, err
	}
	if _, ok, err := lookupTable(doc, "tool", "poetry"); err != nil || !ok {
		return nil, errors.New(errors.ErrCodeResolution, "poetry is not configured: missing tool.poetry")
	}

	path, err := poetryGroupPath(doc, group)
	if err != nil {
		return nil, err
	}
	table, _, err := lookupTable(doc, path...)
	if err != nil {
		return nil, err
	}

	what := strings.Join(path, ".")
	var reqs []pep508.Requirement
	for _, name := range keysOf(md, path...) {
		if name == "python" {
			continue
		}
		reqs = append(reqs, poetryRequirements(name, table[name], what, opts)...)
	}
	return reqs, nil
}

func poetryGroupPath(doc map[string]any, group string) ([]string, error) {
	if _, ok, _ := lookupTable(doc, "tool", "poetry", "group", group); ok {
		path := []string{"tool", "poetry", "group", group, "dependencies"}
		if _, ok, _ := lookupTable(doc, path...); !ok {
			return nil, errors.New(errors.ErrCodeResolution, "dependencies are not configured for %s: missing %s", group, strings.Join(path, "."))
		}
		return path, nil
	}
	switch group {
	case "main":
		if _, ok, _ := lookupTable(doc, "tool", "poetry", "dependencies"); ok {
			return []string{"tool", "poetry", "dependencies"}, nil
		}
	case "dev":
		if _, ok, _ := lookupTable(doc, "tool", "poetry", "dev-dependencies"); ok {
			return []string{"tool", "poetry", "dev-dependencies"}, nil
		}
	}
	return nil, errors.New(errors.ErrCodeResolution, "%s is not configured: missing tool.poetry.group.%s", group, group)
}

// poetryRequirements converts one entry of a dependencies table. A list
// value holds alternative constraints, each becoming its own requirement.
func poetryRequirements(name string, spec any, what string, opts deps.Options) []pep508.Requirement {
	var specs []any
	switch v := spec.(type) {
	case []any:
		specs = v
	case []map[string]any:
		for _, m := range v {
			specs = append(specs, m)
		}
	default:
		specs = []any{v}
	}

	var lines []string
	for _, s := range specs {
		if _, ok := s.(string); ok {
			lines = append(lines, name)
			continue
		}
		var dep poetryDependency
		if err := decode(s, &dep); err != nil {
			opts.Warn("%s: skipping %s: %v", what, name, err)
			continue
		}
		if src := firstNonEmpty(dep.Git, dep.URL, dep.Path); src != "" {
			opts.Warn("%s: skipping %s: direct reference %q is not supported", what, name, src)
			continue
		}
		var markers []string
		if dep.Markers != "" {
			markers = append(markers, dep.Markers)
		}
		if dep.Platform != "" {
			markers = append(markers, `sys_platform == "`+dep.Platform+`"`)
		}
		lines = append(lines, requirementLine(name, dep.Extras, "", markers))
	}
	return bestEffort(lines, what, opts)
}

// requirementLine assembles a requirement string. Multiple markers are
// joined with "and".
func requirementLine(name string, extras []string, specifier string, markers []string) string {
	line := name
	if len(extras) > 0 {
		line += "[" + strings.Join(extras, ",") + "]"
	}
	line += specifier
	switch len(markers) {
	case 0:
	case 1:
		line += "; " + markers[0]
	default:
		line += "; (" + strings.Join(markers, ") and (") + ")"
	}
	return line
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
