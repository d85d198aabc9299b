package pep508

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/hashicorp/go-version"

	"github.com/matzehuels/pyproject/pkg/errors"
)

// Version comparison operators, longest first so prefix scanning is greedy.
var operators = []string{"===", "==", "~=", "!=", "<=", ">=", "<", ">"}

// pep440 matches a PEP 440 version, including the optional local segment.
var pep440 = regexp.MustCompile(`(?i)^v?(?:[0-9]+!)?([0-9]+(?:\.[0-9]+)*)` +
	`(?:[-_.]?(?:a|b|c|rc|alpha|beta|pre|preview)[-_.]?[0-9]*)?` +
	`(?:-[0-9]+|[-_.]?(?:post|rev|r)[-_.]?[0-9]*)?` +
	`(?:[-_.]?dev[-_.]?[0-9]*)?` +
	`(?:\+[a-z0-9]+(?:[-_.][a-z0-9]+)*)?$`)

// Clause is a single version constraint such as ">=1.0".
type Clause struct {
	Op      string
	Version string
}

// String returns the clause without whitespace.
func (c Clause) String() string { return c.Op + c.Version }

// Specifier is a set of clauses that must all hold.
// The zero value is the unconstrained specifier.
type Specifier []Clause

// String returns the clauses sorted and joined by commas.
func (s Specifier) String() string {
	parts := make([]string, len(s))
	for i, c := range s {
		parts[i] = c.String()
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

// ParseSpecifier parses a comma-separated list of clauses.
// An empty (or all-whitespace) string yields an empty Specifier.
func ParseSpecifier(text string) (Specifier, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	var spec Specifier
	for _, part := range strings.Split(text, ",") {
		c, err := parseClause(part)
		if err != nil {
			return nil, err
		}
		spec = append(spec, c)
	}
	return spec, nil
}

func parseClause(text string) (Clause, error) {
	text = strings.TrimSpace(text)
	for _, op := range operators {
		if !strings.HasPrefix(text, op) {
			continue
		}
		v := strings.TrimSpace(text[len(op):])
		if err := validateClause(op, v); err != nil {
			return Clause{}, err
		}
		return Clause{Op: op, Version: v}, nil
	}
	return Clause{}, errors.New(errors.ErrCodeInvalidRequirement, "invalid version clause %q", text)
}

func validateClause(op, v string) error {
	if v == "" {
		return errors.New(errors.ErrCodeInvalidRequirement, "missing version after %q", op)
	}
	if strings.ContainsAny(v, " \t") {
		return errors.New(errors.ErrCodeInvalidRequirement, "invalid version %q", v)
	}
	if op == "===" {
		return nil
	}
	if prefix, ok := strings.CutSuffix(v, ".*"); ok {
		if op != "==" && op != "!=" {
			return errors.New(errors.ErrCodeInvalidRequirement, "wildcard version %q not allowed with %q", v, op)
		}
		v = prefix
		if strings.Contains(v, "+") {
			return errors.New(errors.ErrCodeInvalidRequirement, "local version %q not allowed in a prefix match", v)
		}
	}
	m := pep440.FindStringSubmatch(v)
	if m == nil {
		return errors.New(errors.ErrCodeInvalidRequirement, "invalid version %q", v)
	}
	if op == "~=" && !strings.Contains(m[1], ".") {
		return errors.New(errors.ErrCodeInvalidRequirement, "%q needs at least two release segments", op+v)
	}
	return nil
}

// Contains reports whether candidate satisfies every clause.
// Invalid candidates never match; prereleases are allowed.
func (s Specifier) Contains(candidate string) bool {
	for _, c := range s {
		if !c.matches(candidate) {
			return false
		}
	}
	return true
}

func (c Clause) matches(candidate string) bool {
	if c.Op == "===" {
		return strings.EqualFold(c.Version, candidate)
	}
	cand, err := version.NewVersion(candidate)
	if err != nil {
		return false
	}

	if prefix, ok := strings.CutSuffix(c.Version, ".*"); ok {
		match := hasReleasePrefix(candidate, prefix)
		if c.Op == "!=" {
			return !match
		}
		return match
	}

	want, err := version.NewVersion(c.Version)
	if err != nil {
		return false
	}
	switch c.Op {
	case "==":
		return cand.Equal(want)
	case "!=":
		return !cand.Equal(want)
	case "<":
		return cand.LessThan(want)
	case "<=":
		return cand.LessThanOrEqual(want)
	case ">":
		return cand.GreaterThan(want)
	case ">=":
		return cand.GreaterThanOrEqual(want)
	case "~=":
		segs := releaseSegments(c.Version)
		return cand.GreaterThanOrEqual(want) &&
			hasReleasePrefix(candidate, joinSegments(segs[:len(segs)-1]))
	}
	return false
}

// releaseSegments returns the numeric release segments of a version string.
func releaseSegments(v string) []int {
	m := pep440.FindStringSubmatch(v)
	if m == nil {
		return nil
	}
	var segs []int
	for _, s := range strings.Split(m[1], ".") {
		n, _ := strconv.Atoi(s)
		segs = append(segs, n)
	}
	return segs
}

func joinSegments(segs []int) string {
	parts := make([]string, len(segs))
	for i, n := range segs {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ".")
}

// hasReleasePrefix reports whether the release segments of candidate start
// with those of prefix; missing candidate segments count as zero.
func hasReleasePrefix(candidate, prefix string) bool {
	want := releaseSegments(prefix)
	have := releaseSegments(candidate)
	if want == nil || have == nil {
		return false
	}
	for i, n := range want {
		got := 0
		if i < len(have) {
			got = have[i]
		}
		if got != n {
			return false
		}
	}
	return true
}
