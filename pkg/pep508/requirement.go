package pep508

import (
	"slices"
	"strings"

	"github.com/matzehuels/pyproject/pkg/errors"
)

// Requirement is a parsed dependency specifier. Treat it as immutable:
// the parser returns fresh slices and no method mutates the receiver.
type Requirement struct {
	Name      string    // Project name as written
	Extras    []string  // Requested extras, normalized, sorted and deduplicated
	Specifier Specifier // Version constraint; empty means unconstrained
	URL       string    // Direct reference ("name @ url"), if any
	Marker    *Marker   // Environment marker, nil if absent
}

// NormalizedName returns the normalized project name.
func (r Requirement) NormalizedName() string { return NormalizeName(r.Name) }

// String returns the canonical form of the requirement. Two requirements
// are equal for dedup and diff purposes iff their canonical forms are.
func (r Requirement) String() string {
	var b strings.Builder
	b.WriteString(r.Name)
	if len(r.Extras) > 0 {
		b.WriteString("[" + strings.Join(r.Extras, ",") + "]")
	}
	if r.URL != "" {
		b.WriteString(" @ " + r.URL)
		if r.Marker != nil {
			b.WriteString(" ")
		}
	} else {
		b.WriteString(r.Specifier.String())
	}
	if r.Marker != nil {
		b.WriteString("; " + r.Marker.String())
	}
	return b.String()
}

// Evaluate reports whether the requirement applies in env.
// Requirements without a marker always apply.
func (r Requirement) Evaluate(env Environment) (bool, error) {
	if r.Marker == nil {
		return true, nil
	}
	return r.Marker.Evaluate(env)
}

// Parse parses a single dependency specifier line.
func Parse(text string) (Requirement, error) {
	req, err := parse(text)
	if err != nil {
		return Requirement{}, errors.Wrap(errors.ErrCodeInvalidRequirement, err, "invalid requirement %q", text)
	}
	return req, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level literals.
func MustParse(text string) Requirement {
	r, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return r
}

type scanner struct {
	s   string
	pos int
}

func (sc *scanner) skipSpace() {
	for sc.pos < len(sc.s) && (sc.s[sc.pos] == ' ' || sc.s[sc.pos] == '\t') {
		sc.pos++
	}
}

func (sc *scanner) eof() bool { return sc.pos >= len(sc.s) }

func (sc *scanner) peek() byte {
	if sc.eof() {
		return 0
	}
	return sc.s[sc.pos]
}

func (sc *scanner) identifier() string {
	start := sc.pos
	for sc.pos < len(sc.s) && isNameChar(sc.s[sc.pos]) {
		sc.pos++
	}
	// Names must end with a letter or digit.
	for sc.pos > start && !isAlnum(sc.s[sc.pos-1]) {
		sc.pos--
	}
	return sc.s[start:sc.pos]
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isNameChar(c byte) bool {
	return isAlnum(c) || c == '-' || c == '_' || c == '.'
}

func parse(text string) (Requirement, error) {
	sc := &scanner{s: text}
	sc.skipSpace()

	var req Requirement
	if !isAlnum(sc.peek()) {
		return req, errors.New(errors.ErrCodeInvalidRequirement, "expected package name at start")
	}
	req.Name = sc.identifier()
	if err := errors.ValidatePythonPackageName(req.Name); err != nil {
		return req, err
	}
	sc.skipSpace()

	if sc.peek() == '[' {
		extras, err := parseExtras(sc)
		if err != nil {
			return req, err
		}
		req.Extras = extras
		sc.skipSpace()
	}

	switch sc.peek() {
	case '@':
		sc.pos++
		sc.skipSpace()
		start := sc.pos
		for !sc.eof() && sc.peek() != ' ' && sc.peek() != '\t' {
			sc.pos++
		}
		req.URL = sc.s[start:sc.pos]
		if req.URL == "" || !strings.Contains(req.URL, ":") {
			return req, errors.New(errors.ErrCodeInvalidRequirement, "invalid URL %q", req.URL)
		}
		hadSpace := sc.pos < len(sc.s)
		sc.skipSpace()
		if !sc.eof() && (sc.peek() != ';' || !hadSpace) {
			return req, errors.New(errors.ErrCodeInvalidRequirement, "expected end or \" ;\" after URL")
		}
	case ';', 0:
	default:
		end := strings.IndexByte(sc.s[sc.pos:], ';')
		if end < 0 {
			end = len(sc.s) - sc.pos
		}
		specText := strings.TrimSpace(sc.s[sc.pos : sc.pos+end])
		if strings.HasPrefix(specText, "(") {
			if !strings.HasSuffix(specText, ")") {
				return req, errors.New(errors.ErrCodeInvalidRequirement, "unbalanced parenthesis in %q", specText)
			}
			specText = specText[1 : len(specText)-1]
		}
		spec, err := ParseSpecifier(specText)
		if err != nil {
			return req, err
		}
		if len(spec) == 0 {
			return req, errors.New(errors.ErrCodeInvalidRequirement, "empty version specifier")
		}
		req.Specifier = spec
		sc.pos += end
	}

	if sc.peek() == ';' {
		sc.pos++
		markerText := strings.TrimSpace(sc.s[sc.pos:])
		if markerText == "" {
			return req, errors.New(errors.ErrCodeInvalidMarker, "empty marker after \";\"")
		}
		m, err := ParseMarker(markerText)
		if err != nil {
			return req, err
		}
		req.Marker = m
		sc.pos = len(sc.s)
	}

	sc.skipSpace()
	if !sc.eof() {
		return req, errors.New(errors.ErrCodeInvalidRequirement, "unexpected trailing text %q", sc.s[sc.pos:])
	}
	return req, nil
}

func parseExtras(sc *scanner) ([]string, error) {
	sc.pos++ // '['
	var extras []string
	for {
		sc.skipSpace()
		if sc.peek() == ']' {
			sc.pos++
			break
		}
		if len(extras) > 0 {
			if sc.peek() != ',' {
				return nil, errors.New(errors.ErrCodeInvalidRequirement, "expected \",\" or \"]\" in extras")
			}
			sc.pos++
			sc.skipSpace()
		}
		if !isAlnum(sc.peek()) {
			return nil, errors.New(errors.ErrCodeInvalidRequirement, "invalid extra name")
		}
		extras = append(extras, NormalizeName(sc.identifier()))
	}
	slices.Sort(extras)
	return slices.Compact(extras), nil
}
