package deps

import (
	"context"
	"io"

	"github.com/matzehuels/pyproject/pkg/deps/store"
	"github.com/matzehuels/pyproject/pkg/errors"
)

// Engine runs deps operations against one store file.
//
// Every operation loads the store, works on it in memory and, if it
// mutates, saves it once at the end. A failing operation never writes.
type Engine struct {
	Path     string    // Store file
	Registry *Registry // Supported source types
	Options  Options
}

// NewEngine creates an Engine for the store at path.
func NewEngine(path string, registry *Registry, opts Options) *Engine {
	return &Engine{Path: path, Registry: registry, Options: opts.WithDefaults()}
}

// Load reads the store.
func (e *Engine) Load(ctx context.Context) (*store.Store, error) {
	return store.Load(ctx, e.Path, e.Registry.Known)
}

func (e *Engine) save(ctx context.Context, s *store.Store) error {
	return store.Save(ctx, e.Path, s, e.Registry.Known)
}

// loadOrNew is Load, returning an empty store when the file doesn't exist.
func (e *Engine) loadOrNew(ctx context.Context) (*store.Store, error) {
	s, err := e.Load(ctx)
	if errors.Is(err, errors.ErrCodeNotFound) {
		e.Options.Logger("creating %s", e.Path)
		return store.New(), nil
	}
	return s, err
}

// Add declares a source in group, creating the store file and the group as
// needed. An existing source of the same name is replaced; the result
// reports whether that happened.
func (e *Engine) Add(ctx context.Context, group, name, srctype string, args []string) (replaced bool, err error) {
	if err := e.Registry.Validate(srctype, args); err != nil {
		return false, err
	}
	s, err := e.loadOrNew(ctx)
	if err != nil {
		return false, err
	}
	if replaced, err = s.SetSource(group, name, srctype, args); err != nil {
		return false, err
	}
	return replaced, e.save(ctx, s)
}

// DeleteGroups removes whole groups.
func (e *Engine) DeleteGroups(ctx context.Context, groups []string) error {
	if len(groups) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "no groups given")
	}
	s, err := e.Load(ctx)
	if err != nil {
		return err
	}
	for _, g := range groups {
		if err := s.DeleteGroup(g); err != nil {
			return err
		}
	}
	return e.save(ctx, s)
}

// DeleteSource removes the source called name from every given group.
func (e *Engine) DeleteSource(ctx context.Context, name string, groups []string) error {
	if len(groups) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "no groups given")
	}
	s, err := e.Load(ctx)
	if err != nil {
		return err
	}
	for _, g := range groups {
		if err := s.DeleteSource(g, name); err != nil {
			return err
		}
	}
	return e.save(ctx, s)
}

// AddFilter appends an include or exclude pattern to a group.
func (e *Engine) AddFilter(ctx context.Context, group, kind, pattern string) error {
	s, err := e.Load(ctx)
	if err != nil {
		return err
	}
	if err := s.AddFilter(group, kind, pattern); err != nil {
		return err
	}
	return e.save(ctx, s)
}

// DeleteFilter removes a pattern, or all patterns of kind when pattern is
// empty.
func (e *Engine) DeleteFilter(ctx context.Context, group, kind, pattern string) error {
	s, err := e.Load(ctx)
	if err != nil {
		return err
	}
	if err := s.DeleteFilter(group, kind, pattern); err != nil {
		return err
	}
	return e.save(ctx, s)
}

// Show writes the selected groups to w in the given format.
func (e *Engine) Show(ctx context.Context, w io.Writer, groups []string, format store.Format) error {
	s, err := e.Load(ctx)
	if err != nil {
		return err
	}
	selected, err := s.Select(groups)
	if err != nil {
		return err
	}
	return store.Encode(w, &store.Store{Groups: selected}, format)
}
