package store

import (
	"fmt"
	"slices"

	"github.com/hashicorp/go-multierror"

	"github.com/matzehuels/pyproject/pkg/errors"
	"github.com/matzehuels/pyproject/pkg/pep508"
)

// CurrentVersion is the schema version written by [Save].
const CurrentVersion = 2

// TypeChecker reports whether srctype is a known source type.
// A nil TypeChecker accepts any non-empty type.
type TypeChecker func(srctype string) bool

// schemaDecoder converts a document tree into a Store, collecting every
// problem instead of stopping at the first one.
type schemaDecoder struct {
	errs *multierror.Error
}

func (d *schemaDecoder) fail(path, format string, args ...any) {
	d.errs = multierror.Append(d.errs, fmt.Errorf("%s: %s", path, fmt.Sprintf(format, args...)))
}

func (d *schemaDecoder) expect(n *node, kind nodeKind, path string) bool {
	if n.kind != kind {
		d.fail(path, "expected %s, got %s", kind, n.kind)
		return false
	}
	return true
}

// checkKeys reports keys of obj that are not in allowed.
func (d *schemaDecoder) checkKeys(obj *node, path string, allowed ...string) {
	for _, k := range obj.keys {
		if !slices.Contains(allowed, k) {
			d.fail(path, "unknown key %q", k)
		}
	}
}

func (d *schemaDecoder) strings(n *node, path string) []string {
	if n == nil {
		return nil
	}
	if !d.expect(n, kindArray, path) {
		return nil
	}
	var out []string
	for i, item := range n.items {
		if d.expect(item, kindString, fmt.Sprintf("%s[%d]", path, i)) {
			out = append(out, item.str)
		}
	}
	return out
}

func (d *schemaDecoder) decodeStore(root *node) *Store {
	s := New()
	d.checkKeys(root, "$", "version", "groups")
	groups := root.vals["groups"]
	if groups == nil {
		return s
	}
	if !d.expect(groups, kindObject, "$.groups") {
		return s
	}
	for _, name := range groups.keys {
		path := "$.groups." + name
		if err := errors.ValidateName("group", name); err != nil {
			d.fail(path, "%s", errors.UserMessage(err))
		}
		if g := d.decodeGroup(name, groups.vals[name], path); g != nil {
			s.Groups = append(s.Groups, g)
		}
	}
	return s
}

func (d *schemaDecoder) decodeGroup(name string, n *node, path string) *Group {
	if !d.expect(n, kindObject, path) {
		return nil
	}
	d.checkKeys(n, path, "filters", "sources", "deps")
	g := &Group{Name: name}

	if f := n.vals["filters"]; f != nil && d.expect(f, kindObject, path+".filters") {
		d.checkKeys(f, path+".filters", FilterInclude, FilterExclude)
		g.Filters.Include = d.strings(f.vals[FilterInclude], path+".filters.include")
		g.Filters.Exclude = d.strings(f.vals[FilterExclude], path+".filters.exclude")
	}

	if srcs := n.vals["sources"]; srcs != nil && d.expect(srcs, kindObject, path+".sources") {
		for _, srcName := range srcs.keys {
			srcPath := path + ".sources." + srcName
			if err := errors.ValidateName("source", srcName); err != nil {
				d.fail(srcPath, "%s", errors.UserMessage(err))
			}
			src := srcs.vals[srcName]
			if !d.expect(src, kindObject, srcPath) {
				continue
			}
			d.checkKeys(src, srcPath, "srctype", "srcargs")
			typ := src.vals["srctype"]
			if typ == nil {
				d.fail(srcPath, "missing \"srctype\"")
				continue
			}
			if !d.expect(typ, kindString, srcPath+".srctype") {
				continue
			}
			g.Sources = append(g.Sources, &Source{
				Name: srcName,
				Type: typ.str,
				Args: d.strings(src.vals["srcargs"], srcPath+".srcargs"),
			})
		}
	}

	g.Deps = d.strings(n.vals["deps"], path+".deps")
	return g
}

// Validate checks the semantic invariants of s: valid names, known source
// types, compilable filters, parseable and unique deps.
func (s *Store) Validate(known TypeChecker) error {
	var errs *multierror.Error
	add := func(format string, args ...any) {
		errs = multierror.Append(errs, fmt.Errorf(format, args...))
	}

	seenGroups := map[string]bool{}
	for _, g := range s.Groups {
		if err := errors.ValidateName("group", g.Name); err != nil {
			add("%s", errors.UserMessage(err))
		}
		if seenGroups[g.Name] {
			add("duplicate group %q", g.Name)
		}
		seenGroups[g.Name] = true

		seenSources := map[string]bool{}
		for _, src := range g.Sources {
			if seenSources[src.Name] {
				add("group %q: duplicate source %q", g.Name, src.Name)
			}
			seenSources[src.Name] = true
			switch {
			case src.Type == "":
				add("group %q: source %q has an empty srctype", g.Name, src.Name)
			case known != nil && !known(src.Type):
				add("group %q: source %q has unsupported srctype %q", g.Name, src.Name, src.Type)
			}
		}

		for _, p := range append(append([]string(nil), g.Filters.Include...), g.Filters.Exclude...) {
			if _, err := CompilePattern(p); err != nil {
				add("group %q: %s", g.Name, errors.UserMessage(err))
			}
		}

		seenDeps := map[string]bool{}
		for _, dep := range g.Deps {
			req, err := pep508.Parse(dep)
			if err != nil {
				add("group %q: invalid stored requirement %q", g.Name, dep)
				continue
			}
			key := req.String()
			if seenDeps[key] {
				add("group %q: duplicate stored requirement %q", g.Name, dep)
			}
			seenDeps[key] = true
		}
	}
	return errs.ErrorOrNil()
}

// encodeStore converts s into the current on-disk layout.
func encodeStore(s *Store) *node {
	root := newObject()
	root.set("version", &node{kind: kindNumber, raw: fmt.Sprint(CurrentVersion)})
	groups := newObject()
	for _, g := range s.Groups {
		groups.set(g.Name, encodeGroup(g))
	}
	root.set("groups", groups)
	return root
}

func encodeGroup(g *Group) *node {
	n := newObject()
	filters := newObject()
	filters.set(FilterInclude, stringArray(g.Filters.Include))
	filters.set(FilterExclude, stringArray(g.Filters.Exclude))
	n.set("filters", filters)

	sources := newObject()
	for _, src := range g.Sources {
		sn := newObject()
		sn.set("srctype", stringNode(src.Type))
		sn.set("srcargs", stringArray(src.Args))
		sources.set(src.Name, sn)
	}
	n.set("sources", sources)
	n.set("deps", stringArray(g.Deps))
	return n
}
