// Package store persists dependency groups.
//
// A [Store] maps group names to [Group]s. Each group holds an ordered set of
// named sources, include/exclude filters and the last synced requirement
// list. Order is significant everywhere: groups, sources, filters and deps
// are written back in the order they were read or added.
//
// The on-disk form is JSON (or YAML, chosen by file extension) with a
// "version" field; older layouts are migrated on load. See [Load] and
// [Save].
package store

import (
	"regexp"
	"slices"

	"github.com/matzehuels/pyproject/pkg/errors"
)

// Filter kinds.
const (
	FilterInclude = "include"
	FilterExclude = "exclude"
)

// Filters are regular expressions matched against normalized requirement
// names. Exclude is applied before Include; an empty Include keeps everything.
type Filters struct {
	Include []string
	Exclude []string
}

// Source is a typed declaration of where requirements come from.
type Source struct {
	Name string
	Type string
	Args []string
}

// Group is a named collection of sources and their synced requirements.
type Group struct {
	Name    string
	Filters Filters
	Sources []*Source
	Deps    []string
}

// Source returns the source called name.
func (g *Group) Source(name string) (*Source, bool) {
	i := slices.IndexFunc(g.Sources, func(s *Source) bool { return s.Name == name })
	if i < 0 {
		return nil, false
	}
	return g.Sources[i], true
}

// Store is the top-level collection of groups.
type Store struct {
	Groups []*Group
}

// New returns an empty store.
func New() *Store { return &Store{} }

// Group returns the group called name.
func (s *Store) Group(name string) (*Group, bool) {
	i := s.index(name)
	if i < 0 {
		return nil, false
	}
	return s.Groups[i], true
}

func (s *Store) index(name string) int {
	return slices.IndexFunc(s.Groups, func(g *Group) bool { return g.Name == name })
}

// GroupNames returns the group names in store order.
func (s *Store) GroupNames() []string {
	names := make([]string, len(s.Groups))
	for i, g := range s.Groups {
		names[i] = g.Name
	}
	return names
}

// Select returns the named groups, or every group when names is empty.
// Unknown names are a NOT_FOUND error listing all of them.
func (s *Store) Select(names []string) ([]*Group, error) {
	if len(names) == 0 {
		return slices.Clone(s.Groups), nil
	}
	var (
		groups  []*Group
		missing []string
	)
	for _, name := range names {
		g, ok := s.Group(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		if !slices.Contains(groups, g) {
			groups = append(groups, g)
		}
	}
	if len(missing) > 0 {
		return nil, errors.New(errors.ErrCodeNotFound, "nonexistent groups: %s", quoteList(missing))
	}
	return groups, nil
}

// AddGroup creates an empty group.
func (s *Store) AddGroup(name string) (*Group, error) {
	if err := errors.ValidateName("group", name); err != nil {
		return nil, err
	}
	if _, ok := s.Group(name); ok {
		return nil, errors.New(errors.ErrCodeAlreadyExists, "group %q already exists", name)
	}
	g := &Group{Name: name}
	s.Groups = append(s.Groups, g)
	return g, nil
}

// DeleteGroup removes a group with all its sources and deps.
func (s *Store) DeleteGroup(name string) error {
	i := s.index(name)
	if i < 0 {
		return errors.New(errors.ErrCodeNotFound, "group %q doesn't exist", name)
	}
	s.Groups = slices.Delete(s.Groups, i, i+1)
	return nil
}

// AddSource declares a new source in an existing group.
func (s *Store) AddSource(group, name, srctype string, args []string) error {
	g, ok := s.Group(group)
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "group %q doesn't exist", group)
	}
	if err := errors.ValidateName("source", name); err != nil {
		return err
	}
	if _, ok := g.Source(name); ok {
		return errors.New(errors.ErrCodeAlreadyExists, "source %q already exists in group %q", name, group)
	}
	g.Sources = append(g.Sources, &Source{Name: name, Type: srctype, Args: slices.Clone(args)})
	return nil
}

// SetSource declares a source, creating the group if needed. An existing
// source of the same name is replaced in place. It reports whether a
// source was replaced.
func (s *Store) SetSource(group, name, srctype string, args []string) (replaced bool, err error) {
	g, ok := s.Group(group)
	if !ok {
		if g, err = s.AddGroup(group); err != nil {
			return false, err
		}
	}
	if err := errors.ValidateName("source", name); err != nil {
		return false, err
	}
	if src, ok := g.Source(name); ok {
		src.Type = srctype
		src.Args = slices.Clone(args)
		return true, nil
	}
	g.Sources = append(g.Sources, &Source{Name: name, Type: srctype, Args: slices.Clone(args)})
	return false, nil
}

// DeleteSource removes a source from a group. The group stays, even if
// it becomes empty.
func (s *Store) DeleteSource(group, name string) error {
	g, ok := s.Group(group)
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "group %q doesn't exist", group)
	}
	i := slices.IndexFunc(g.Sources, func(src *Source) bool { return src.Name == name })
	if i < 0 {
		return errors.New(errors.ErrCodeNotFound, "source %q doesn't exist in group %q", name, group)
	}
	g.Sources = slices.Delete(g.Sources, i, i+1)
	return nil
}

// AddFilter appends a pattern to the include or exclude filters of a group.
func (s *Store) AddFilter(group, kind, pattern string) error {
	g, ok := s.Group(group)
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "group %q doesn't exist", group)
	}
	list, err := g.Filters.list(kind)
	if err != nil {
		return err
	}
	if _, err := CompilePattern(pattern); err != nil {
		return err
	}
	if slices.Contains(*list, pattern) {
		return errors.New(errors.ErrCodeAlreadyExists, "%s filter %q already exists in group %q", kind, pattern, group)
	}
	*list = append(*list, pattern)
	return nil
}

// DeleteFilter removes a pattern from the include or exclude filters of a
// group. An empty pattern clears that filter kind.
func (s *Store) DeleteFilter(group, kind, pattern string) error {
	g, ok := s.Group(group)
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "group %q doesn't exist", group)
	}
	list, err := g.Filters.list(kind)
	if err != nil {
		return err
	}
	if pattern == "" {
		*list = nil
		return nil
	}
	i := slices.Index(*list, pattern)
	if i < 0 {
		return errors.New(errors.ErrCodeNotFound, "%s filter %q doesn't exist in group %q", kind, pattern, group)
	}
	*list = slices.Delete(*list, i, i+1)
	return nil
}

func (f *Filters) list(kind string) (*[]string, error) {
	switch kind {
	case FilterInclude:
		return &f.Include, nil
	case FilterExclude:
		return &f.Exclude, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidInput, "unknown filter kind %q (want %s or %s)", kind, FilterInclude, FilterExclude)
}

// CompilePattern compiles a filter pattern. Patterns match at the start of
// the normalized name but need not match all of it.
func CompilePattern(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(`^(?:` + pattern + `)`)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPattern, err, "invalid pattern %q", pattern)
	}
	return re, nil
}

// CompilePatterns compiles every pattern, failing on the first invalid one.
func CompilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := CompilePattern(p)
		if err != nil {
			return nil, err
		}
		res = append(res, re)
	}
	return res, nil
}

func quoteList(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += `"` + n + `"`
	}
	return out
}
