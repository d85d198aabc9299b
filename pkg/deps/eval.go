package deps

import (
	"context"
	"slices"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/matzehuels/pyproject/pkg/deps/store"
	"github.com/matzehuels/pyproject/pkg/errors"
	"github.com/matzehuels/pyproject/pkg/pep508"
)

// EvalOptions controls [Engine.Eval].
type EvalOptions struct {
	// Extra is the value of the "extra" marker variable; empty means none.
	Extra string
	// Excludes are patterns matched against normalized names, applied after
	// marker evaluation. They are never persisted.
	Excludes []string
	// Format renders each requirement; placeholders are $name, $nname and
	// $fextra. Empty means the canonical requirement string.
	Format string
	// ExtraFormat renders $fextra once per extra of a requirement, with
	// $extra as placeholder. Requires Format.
	ExtraFormat string
}

// Eval returns the stored deps of the selected groups that apply to the
// current environment, rendered one per line. Order follows the store;
// duplicate lines across groups are dropped, first occurrence wins.
func (e *Engine) Eval(ctx context.Context, groups []string, opts EvalOptions) ([]string, error) {
	if opts.ExtraFormat != "" && opts.Format == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "an extra format requires a dependency format")
	}
	excludes, err := store.CompilePatterns(opts.Excludes)
	if err != nil {
		return nil, err
	}

	s, err := e.Load(ctx)
	if err != nil {
		return nil, err
	}
	selected, err := s.Select(groups)
	if err != nil {
		return nil, err
	}

	env := e.Options.Env.WithExtra(opts.Extra)
	var lines []string
	seen := mapset.NewThreadUnsafeSet[string]()
	for _, g := range selected {
		for _, dep := range g.Deps {
			req, err := pep508.Parse(dep)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeConfig, err, "group %q", g.Name)
			}
			ok, err := req.Evaluate(env)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidMarker, err, "group %q: evaluate %q", g.Name, dep)
			}
			if !ok || !keep(req.NormalizedName(), nil, excludes) {
				continue
			}
			for _, line := range Render(req, dep, opts.Format, opts.ExtraFormat) {
				if seen.Add(line) {
					lines = append(lines, line)
				}
			}
		}
	}
	return lines, nil
}

// Render formats req with format. raw is the stored requirement string,
// returned as-is when format is empty. When extraFormat is set, format
// uses $fextra and req has extras, one line per extra (sorted) is
// produced; otherwise $fextra expands to "".
func Render(req pep508.Requirement, raw, format, extraFormat string) []string {
	if format == "" {
		return []string{raw}
	}
	vars := map[string]string{
		"name":   req.Name,
		"nname":  req.NormalizedName(),
		"fextra": "",
	}
	if extraFormat == "" || len(req.Extras) == 0 || !slices.Contains(templateIdentifiers(format), "fextra") {
		return []string{substitute(format, vars)}
	}
	lines := make([]string, 0, len(req.Extras))
	for _, extra := range req.Extras {
		vars["fextra"] = substitute(extraFormat, map[string]string{"extra": extra})
		lines = append(lines, substitute(format, vars))
	}
	return lines
}

// substitute expands $id, ${id} and $$ in tmpl. Unknown identifiers and
// malformed placeholders are left untouched.
func substitute(tmpl string, vars map[string]string) string {
	var b strings.Builder
	scanTemplate(tmpl, func(literal, id string) {
		if id == "" {
			b.WriteString(literal)
			return
		}
		if v, ok := vars[id]; ok {
			b.WriteString(v)
			return
		}
		b.WriteString(literal)
	})
	return b.String()
}

// templateIdentifiers returns the placeholder names used in tmpl.
func templateIdentifiers(tmpl string) []string {
	var ids []string
	scanTemplate(tmpl, func(_, id string) {
		if id != "" && !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	})
	return ids
}

// scanTemplate splits tmpl into literal runs and placeholders. For a
// placeholder, literal is its source text and id its name; "$$" is
// reported as the literal "$".
func scanTemplate(tmpl string, emit func(literal, id string)) {
	for i := 0; i < len(tmpl); {
		j := strings.IndexByte(tmpl[i:], '$')
		if j < 0 {
			emit(tmpl[i:], "")
			return
		}
		if j > 0 {
			emit(tmpl[i:i+j], "")
		}
		i += j
		rest := tmpl[i+1:]
		switch {
		case strings.HasPrefix(rest, "$"):
			emit("$", "")
			i += 2
		case strings.HasPrefix(rest, "{"):
			n := identLen(rest[1:])
			if n > 0 && strings.HasPrefix(rest[1+n:], "}") {
				emit(tmpl[i:i+n+3], rest[1:1+n])
				i += n + 3
				continue
			}
			emit("$", "")
			i++
		default:
			if n := identLen(rest); n > 0 {
				emit(tmpl[i:i+n+1], rest[:n])
				i += n + 1
				continue
			}
			emit("$", "")
			i++
		}
	}
}

func identLen(s string) int {
	n := 0
	for n < len(s) {
		c := s[n]
		isLetter := c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		if !isLetter && (n == 0 || c < '0' || c > '9') {
			break
		}
		n++
	}
	return n
}
