package pep508

import (
	"strings"

	"github.com/matzehuels/pyproject/pkg/errors"
)

// Variables lists the marker variable names, in PEP 508 order.
var Variables = []string{
	"python_version",
	"python_full_version",
	"os_name",
	"sys_platform",
	"platform_release",
	"platform_system",
	"platform_version",
	"platform_machine",
	"platform_python_implementation",
	"implementation_name",
	"implementation_version",
	"extra",
}

// legacyVariables maps the dotted spellings accepted by older tools.
var legacyVariables = map[string]string{
	"os.name":                        "os_name",
	"sys.platform":                   "sys_platform",
	"platform.version":               "platform_version",
	"platform.machine":               "platform_machine",
	"platform.python_implementation": "platform_python_implementation",
	"python_implementation":          "platform_python_implementation",
}

// Marker is a parsed environment marker expression.
type Marker struct {
	root expr
}

type expr interface {
	eval(env Environment) (bool, error)
	format(b *strings.Builder, nested bool)
	visit(fn func(*comparison))
}

// logical is an "and" or "or" of two or more operands.
type logical struct {
	op    string
	items []expr
}

type operand struct {
	variable string // set for environment variables
	value    string // set for string literals
}

type comparison struct {
	lhs, rhs operand
	op       string
}

// ParseMarker parses a marker expression.
func ParseMarker(text string) (*Marker, error) {
	toks, err := tokenize(text)
	if err != nil {
		return nil, err
	}
	p := &markerParser{toks: toks, src: text}
	root, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.done() {
		return nil, p.errorf("unexpected %q", p.peek().text)
	}
	return &Marker{root: root}, nil
}

// String renders the marker in normalized form: single spaces around
// operators, double-quoted literals and parentheses only where needed.
func (m *Marker) String() string {
	var b strings.Builder
	m.root.format(&b, false)
	return b.String()
}

// Evaluate evaluates the marker against env.
func (m *Marker) Evaluate(env Environment) (bool, error) {
	return m.root.eval(env)
}

// ReferencesExtra reports whether the marker compares the "extra"
// variable to the given (normalized) extra name.
func (m *Marker) ReferencesExtra(name string) bool {
	want := NormalizeName(name)
	found := false
	m.root.visit(func(c *comparison) {
		var lit operand
		switch {
		case c.lhs.variable == "extra" && c.rhs.variable == "":
			lit = c.rhs
		case c.rhs.variable == "extra" && c.lhs.variable == "":
			lit = c.lhs
		default:
			return
		}
		if c.op == "==" && NormalizeName(lit.value) == want {
			found = true
		}
	})
	return found
}

func (l *logical) eval(env Environment) (bool, error) {
	for _, item := range l.items {
		ok, err := item.eval(env)
		if err != nil {
			return false, err
		}
		if l.op == "or" && ok {
			return true, nil
		}
		if l.op == "and" && !ok {
			return false, nil
		}
	}
	return l.op == "and", nil
}

func (l *logical) format(b *strings.Builder, nested bool) {
	if nested {
		b.WriteByte('(')
	}
	for i, item := range l.items {
		if i > 0 {
			b.WriteString(" " + l.op + " ")
		}
		// An "or" inside an "and" needs parentheses to keep its meaning.
		sub, ok := item.(*logical)
		item.format(b, ok && sub.op == "or" && l.op == "and")
	}
	if nested {
		b.WriteByte(')')
	}
}

func (l *logical) visit(fn func(*comparison)) {
	for _, item := range l.items {
		item.visit(fn)
	}
}

func (o operand) resolve(env Environment) (string, error) {
	if o.variable == "" {
		return o.value, nil
	}
	v, ok := env[o.variable]
	if !ok {
		return "", errors.New(errors.ErrCodeInvalidMarker, "undefined environment variable %q", o.variable)
	}
	return v, nil
}

func (o operand) format(b *strings.Builder) {
	if o.variable != "" {
		b.WriteString(o.variable)
		return
	}
	if strings.Contains(o.value, `"`) {
		b.WriteString("'" + o.value + "'")
		return
	}
	b.WriteString(`"` + o.value + `"`)
}

func (c *comparison) eval(env Environment) (bool, error) {
	lhs, err := c.lhs.resolve(env)
	if err != nil {
		return false, err
	}
	rhs, err := c.rhs.resolve(env)
	if err != nil {
		return false, err
	}
	if c.lhs.variable == "extra" || c.rhs.variable == "extra" {
		lhs, rhs = NormalizeName(lhs), NormalizeName(rhs)
	}

	switch c.op {
	case "in":
		return strings.Contains(rhs, lhs), nil
	case "not in":
		return !strings.Contains(rhs, lhs), nil
	}

	// Version semantics only when both sides are versions.
	if validateClause(c.op, rhs) == nil && pep440.MatchString(lhs) {
		return Clause{Op: c.op, Version: rhs}.matches(lhs), nil
	}

	switch c.op {
	case "==", "===":
		return lhs == rhs, nil
	case "!=":
		return lhs != rhs, nil
	case "<":
		return lhs < rhs, nil
	case "<=":
		return lhs <= rhs, nil
	case ">":
		return lhs > rhs, nil
	case ">=":
		return lhs >= rhs, nil
	}
	return false, errors.New(errors.ErrCodeInvalidMarker, "cannot evaluate %q %s %q", lhs, c.op, rhs)
}

func (c *comparison) format(b *strings.Builder, _ bool) {
	c.lhs.format(b)
	b.WriteString(" " + c.op + " ")
	c.rhs.format(b)
}

func (c *comparison) visit(fn func(*comparison)) { fn(c) }
