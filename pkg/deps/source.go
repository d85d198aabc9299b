package deps

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/pyproject/pkg/errors"
	"github.com/matzehuels/pyproject/pkg/pep508"
)

// Resolver turns the arguments of one source into requirements.
type Resolver interface {
	// Resolve returns the requirements in source order. Entries that
	// cannot be represented are reported through opts.Warn and skipped.
	Resolve(ctx context.Context, args []string, opts Options) ([]pep508.Requirement, error)
}

// ResolverFunc adapts a function to [Resolver].
type ResolverFunc func(ctx context.Context, args []string, opts Options) ([]pep508.Requirement, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(ctx context.Context, args []string, opts Options) ([]pep508.Requirement, error) {
	return f(ctx, args, opts)
}

// SourceType describes one supported srctype. Name is the persisted
// srctype value and Usage the argument synopsis shown in help output, e.g.
// "PATH [EXTRA]". CheckArgs, if set, validates arguments beyond arity.
type SourceType struct {
	Name        string
	Description string
	Usage       string
	MinArgs     int
	MaxArgs     int
	CheckArgs   func(args []string) error
	Resolver    Resolver
}

// Validate checks args against the arity and argument rules of t.
func (t *SourceType) Validate(args []string) error {
	if len(args) < t.MinArgs || len(args) > t.MaxArgs {
		want := fmt.Sprintf("%d", t.MinArgs)
		if t.MaxArgs != t.MinArgs {
			want = fmt.Sprintf("%d to %d", t.MinArgs, t.MaxArgs)
		}
		return errors.New(errors.ErrCodeSourceType, "source type %s takes %s arguments (%s), got %d",
			t.Name, want, t.usage(), len(args))
	}
	if t.CheckArgs != nil {
		if err := t.CheckArgs(args); err != nil {
			return errors.Wrap(errors.ErrCodeSourceType, err, "source type %s", t.Name)
		}
	}
	return nil
}

func (t *SourceType) usage() string {
	if t.Usage == "" {
		return "no arguments"
	}
	return t.Usage
}

// Registry is the closed set of supported source types.
type Registry struct {
	types []*SourceType
}

// NewRegistry creates a registry from the given types. Names must be unique.
func NewRegistry(types ...*SourceType) *Registry {
	r := &Registry{}
	for _, t := range types {
		if _, dup := r.Lookup(t.Name); dup {
			panic("deps: duplicate source type " + t.Name)
		}
		r.types = append(r.types, t)
	}
	return r
}

// Lookup returns the type called name.
func (r *Registry) Lookup(name string) (*SourceType, bool) {
	i := slices.IndexFunc(r.types, func(t *SourceType) bool { return t.Name == name })
	if i < 0 {
		return nil, false
	}
	return r.types[i], true
}

// Known reports whether name is a registered type. Its signature matches
// store.TypeChecker.
func (r *Registry) Known(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Names returns the registered type names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.types))
	for i, t := range r.types {
		names[i] = t.Name
	}
	return names
}

// Types returns the registered types in registration order.
func (r *Registry) Types() []*SourceType { return slices.Clone(r.types) }

// Validate checks that srctype exists and accepts args.
func (r *Registry) Validate(srctype string, args []string) error {
	t, ok := r.Lookup(srctype)
	if !ok {
		return errors.New(errors.ErrCodeSourceType, "unsupported source type %q (available: %s)",
			srctype, strings.Join(r.Names(), ", "))
	}
	return t.Validate(args)
}

// SourceError is a failure to resolve one source of a group.
type SourceError struct {
	Group  string
	Source string
	Type   string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("group %q, source %q (%s): %s", e.Group, e.Source, e.Type, errors.UserMessage(e.Err))
}

// Unwrap returns the underlying error.
func (e *SourceError) Unwrap() error { return e.Err }

// Code classifies every SourceError as a resolution error.
func (e *SourceError) Code() errors.Code { return errors.ErrCodeResolution }
