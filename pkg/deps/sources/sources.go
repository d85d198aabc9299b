// Package sources implements the supported dependency source types.
//
// The standardized types (pep518, pep517, metadata, pep735, deplist) fail on
// any entry that is not a valid requirement. The tool adapters (pip_reqfile,
// tox, poetry, hatch, pdm, pipenv) parse their configuration on a best-effort
// basis: entries that cannot be expressed as a requirement, such as VCS
// links, local paths or tool options, are dropped with a warning.
package sources

import (
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-viper/mapstructure/v2"

	"github.com/matzehuels/pyproject/pkg/deps"
	"github.com/matzehuels/pyproject/pkg/errors"
	"github.com/matzehuels/pyproject/pkg/pep508"
)

// Default returns a registry with every supported source type.
func Default() *deps.Registry {
	return deps.NewRegistry(
		PEP518,
		PEP517,
		Metadata,
		PEP735,
		Deplist,
		PipReqfile,
		Tox,
		Poetry,
		Hatch,
		PDM,
		Pipenv,
	)
}

// readTOML decodes the TOML file at path into a generic table. The returned
// metadata records the order keys were defined in.
func readTOML(path string) (map[string]any, toml.MetaData, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, toml.MetaData{}, err
	}
	var doc map[string]any
	md, err := toml.Decode(string(data), &doc)
	if err != nil {
		return nil, md, errors.Wrap(errors.ErrCodeResolution, err, "parse %s", path)
	}
	return doc, md, nil
}

// keysOf returns the keys of the table at path in definition order.
func keysOf(md toml.MetaData, path ...string) []string {
	var keys []string
	for _, key := range md.Keys() {
		if len(key) == len(path)+1 && slices.Equal([]string(key[:len(path)]), path) {
			keys = append(keys, key[len(path)])
		}
	}
	return keys
}

// lookup walks nested tables along keys. It reports false if any key is
// missing; a value that is present but not a table is an error.
func lookup(doc map[string]any, keys ...string) (any, bool, error) {
	var cur any = doc
	for i, key := range keys {
		table, ok := cur.(map[string]any)
		if !ok {
			return nil, false, errors.New(errors.ErrCodeResolution, "%s is not a table", strings.Join(keys[:i], "."))
		}
		if cur, ok = table[key]; !ok {
			return nil, false, nil
		}
	}
	return cur, true, nil
}

// lookupTable is lookup for a value that must be a table.
func lookupTable(doc map[string]any, keys ...string) (map[string]any, bool, error) {
	v, ok, err := lookup(doc, keys...)
	if !ok || err != nil {
		return nil, ok, err
	}
	table, isTable := v.(map[string]any)
	if !isTable {
		return nil, false, errors.New(errors.ErrCodeResolution, "%s is not a table", strings.Join(keys, "."))
	}
	return table, true, nil
}

// stringList converts a decoded TOML array of strings.
func stringList(v any, what string) ([]string, error) {
	var out []string
	if err := decode(v, &out); err != nil {
		return nil, errors.Wrap(errors.ErrCodeResolution, err, "%s must be a list of strings", what)
	}
	return out, nil
}

// decode maps a generic TOML value onto out using its toml struct tags.
// Keys without a matching field are ignored.
func decode(in, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  out,
		TagName: "toml",
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}

// bestEffort parses lines, dropping blank ones and warning about and dropping
// those that are not valid requirements or are direct references.
func bestEffort(lines []string, what string, opts deps.Options) []pep508.Requirement {
	var reqs []pep508.Requirement
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		req, err := pep508.Parse(line)
		if err != nil {
			opts.Warn("%s: skipping %q: %s", what, line, errors.UserMessage(err))
			continue
		}
		if req.URL != "" {
			opts.Warn("%s: skipping direct reference %q", what, line)
			continue
		}
		reqs = append(reqs, req)
	}
	return reqs
}

// nonEmptyArgs rejects blank arguments.
func nonEmptyArgs(args []string) error {
	for i, a := range args {
		if strings.TrimSpace(a) == "" {
			return errors.New(errors.ErrCodeInvalidInput, "argument %d is empty", i+1)
		}
	}
	return nil
}
