package sources

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/go-ini/ini"

	"github.com/matzehuels/pyproject/pkg/deps"
	"github.com/matzehuels/pyproject/pkg/errors"
	"github.com/matzehuels/pyproject/pkg/pep508"
)

// Tox reads the deps of a tox test environment from tox.ini, setup.cfg or
// the legacy_tox_ini string of a pyproject.toml. Substitutions, inheritance
// and pip options are not supported; such entries are dropped with a
// warning.
var Tox = &deps.SourceType{
	Name:        "tox",
	Description: "deps of a tox test environment",
	Usage:       "CONFIG TESTENV",
	MinArgs:     2,
	MaxArgs:     2,
	CheckArgs:   nonEmptyArgs,
	Resolver:    deps.ResolverFunc(resolveTox),
}

func resolveTox(ctx context.Context, args []string, opts deps.Options) ([]pep508.Requirement, error) {
	config, testenv := args[0], args[1]
	cfg, err := loadToxConfig(opts.Path(config))
	if err != nil {
		return nil, err
	}

	section, err := cfg.GetSection(testenv)
	if err != nil {
		return nil, errors.New(errors.ErrCodeResolution, "test environment %q is not configured in %s", testenv, config)
	}
	if !section.HasKey("deps") {
		return nil, errors.New(errors.ErrCodeResolution, "dependencies are not configured for %s: missing %s.deps", testenv, testenv)
	}

	var lines []string
	for _, line := range strings.Split(section.Key("deps").Value(), "\n") {
		line = stripComment(line)
		if strings.HasPrefix(line, "-") {
			opts.Warn("%s [%s]: skipping option %q", config, testenv, line)
			continue
		}
		lines = append(lines, line)
	}
	return bestEffort(lines, config+" ["+testenv+"]", opts), nil
}

// loadToxConfig parses an ini style tox configuration. For a .toml file the
// configuration is taken from tool.tox.legacy_tox_ini.
func loadToxConfig(path string) (*ini.File, error) {
	var source []byte
	if filepath.Ext(path) == ".toml" {
		doc, _, err := readTOML(path)
		if err != nil {
			return nil, err
		}
		v, ok, err := lookup(doc, "tool", "tox", "legacy_tox_ini")
		if err != nil {
			return nil, err
		}
		text, isString := v.(string)
		if !ok || !isString {
			return nil, errors.New(errors.ErrCodeResolution, "tox is not configured: missing tool.tox.legacy_tox_ini in %s", path)
		}
		source = []byte(text)
	} else {
		data, err := readFile(path)
		if err != nil {
			return nil, err
		}
		source = data
	}

	cfg, err := ini.LoadSources(ini.LoadOptions{
		AllowPythonMultilineValues: true,
		IgnoreInlineComment:        true,
		IgnoreContinuation:         true,
		InsensitiveKeys:            true,
		SkipUnrecognizableLines:    true,
	}, source)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeResolution, err, "parse %s", path)
	}
	return cfg, nil
}
