package sources

import (
	"context"
	"strings"

	"github.com/matzehuels/pyproject/pkg/deps"
	"github.com/matzehuels/pyproject/pkg/errors"
	"github.com/matzehuels/pyproject/pkg/pep508"
)

// Pipenv reads a package category of a Pipfile, such as "packages" or
// "dev-packages". Version strings must be PEP 440 specifiers or "*".
// VCS, path and file dependencies are dropped with a warning.
var Pipenv = &deps.SourceType{
	Name:        "pipenv",
	Description: "package category of a Pipfile",
	Usage:       "PIPFILE CATEGORY",
	MinArgs:     2,
	MaxArgs:     2,
	CheckArgs:   nonEmptyArgs,
	Resolver:    deps.ResolverFunc(resolvePipenv),
}

// pipenvPackage is the table form of a Pipfile entry. Marker variables may
// also be given as keys, e.g. sys_platform = "== 'linux'".
type pipenvPackage struct {
	Version string   `toml:"version"`
	Markers string   `toml:"markers"`
	Extras  []string `toml:"extras"`
	Git     string   `toml:"git"`
	Path    string   `toml:"path"`
	File    string   `toml:"file"`
}

func resolvePipenv(ctx context.Context, args []string, opts deps.Options) ([]pep508.Requirement, error) {
	pipfile, category := args[0], args[1]
	doc, md, err := readTOML(opts.Path(pipfile))
	if err != nil {
		return nil, err
	}
	table, ok, err := lookupTable(doc, category)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New(errors.ErrCodeResolution, "pipenv dependencies are not configured for category: %s", category)
	}

	what := pipfile + " [" + category + "]"
	var lines []string
	for _, name := range keysOf(md, category) {
		line, err := pipenvLine(name, table[name])
		if err != nil {
			opts.Warn("%s: skipping %s: %s", what, name, errors.UserMessage(err))
			continue
		}
		lines = append(lines, line)
	}
	return bestEffort(lines, what, opts), nil
}

func pipenvLine(name string, spec any) (string, error) {
	if s, ok := spec.(string); ok {
		return requirementLine(name, nil, pipenvVersion(s), nil), nil
	}
	table, ok := spec.(map[string]any)
	if !ok {
		return "", errors.New(errors.ErrCodeUnsupported, "unsupported value %v", spec)
	}
	var pkg pipenvPackage
	if err := decode(table, &pkg); err != nil {
		return "", err
	}
	if src := firstNonEmpty(pkg.Git, pkg.Path, pkg.File); src != "" {
		return "", errors.New(errors.ErrCodeUnsupported, "direct reference %q is not supported", src)
	}

	var markers []string
	if pkg.Markers != "" {
		markers = append(markers, pkg.Markers)
	}
	for _, variable := range pep508.Variables {
		if cond, ok := table[variable].(string); ok && variable != "extra" {
			markers = append(markers, variable+" "+strings.TrimSpace(cond))
		}
	}
	return requirementLine(name, pkg.Extras, pipenvVersion(pkg.Version), markers), nil
}

// pipenvVersion maps a Pipfile version to a specifier; "*" and "" mean
// any version.
func pipenvVersion(v string) string {
	v = strings.TrimSpace(v)
	if v == "*" {
		return ""
	}
	return v
}
