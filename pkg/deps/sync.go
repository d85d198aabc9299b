package deps

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/matzehuels/pyproject/pkg/deps/store"
	"github.com/matzehuels/pyproject/pkg/errors"
	"github.com/matzehuels/pyproject/pkg/observability"
	"github.com/matzehuels/pyproject/pkg/pep508"
)

// Candidates resolves every source of g in declared order and returns the
// canonical requirement strings that survive deduplication and the
// group's filters.
func (e *Engine) Candidates(ctx context.Context, g *store.Group) ([]string, error) {
	include, err := store.CompilePatterns(g.Filters.Include)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfig, err, "group %q", g.Name)
	}
	exclude, err := store.CompilePatterns(g.Filters.Exclude)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfig, err, "group %q", g.Name)
	}

	var reqs []pep508.Requirement
	for _, src := range g.Sources {
		resolved, err := e.resolveSource(ctx, g.Name, src)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, resolved...)
	}

	seen := mapset.NewThreadUnsafeSet[string]()
	var out []string
	for _, req := range reqs {
		key := req.String()
		if !seen.Add(key) {
			continue
		}
		if keep(req.NormalizedName(), include, exclude) {
			out = append(out, key)
		}
	}
	return out, nil
}

// keep applies exclude first, then include; an empty include keeps all.
func keep(name string, include, exclude []*regexp.Regexp) bool {
	match := func(re *regexp.Regexp) bool { return re.MatchString(name) }
	if slices.ContainsFunc(exclude, match) {
		return false
	}
	return len(include) == 0 || slices.ContainsFunc(include, match)
}

func (e *Engine) resolveSource(ctx context.Context, group string, src *store.Source) (reqs []pep508.Requirement, err error) {
	start := time.Now()
	observability.Resolve().OnResolveStart(ctx, group, src.Name, src.Type)
	defer func() {
		observability.Resolve().OnResolveComplete(ctx, group, src.Name, src.Type, len(reqs), time.Since(start), err)
	}()

	wrap := func(err error) error {
		return &SourceError{Group: group, Source: src.Name, Type: src.Type, Err: err}
	}

	t, ok := e.Registry.Lookup(src.Type)
	if !ok {
		return nil, wrap(errors.New(errors.ErrCodeSourceType, "unsupported source type %q", src.Type))
	}
	if err := t.Validate(src.Args); err != nil {
		return nil, wrap(err)
	}

	opts := e.Options
	opts.Warn = func(format string, args ...any) {
		e.Options.Warn("group %q, source %q: "+format, append([]any{group, src.Name}, args...)...)
		observability.Resolve().OnWarning(ctx, group, src.Name, fmt.Sprintf(format, args...))
	}
	e.Options.Logger("resolving %s/%s (%s)", group, src.Name, src.Type)

	resolved, err := t.Resolver.Resolve(ctx, src.Args, opts)
	if err != nil {
		return nil, wrap(err)
	}

	// Dedup within the source before anything else sees it.
	seen := mapset.NewThreadUnsafeSet[string]()
	for _, req := range resolved {
		if seen.Add(req.String()) {
			reqs = append(reqs, req)
		}
	}
	return reqs, nil
}

// SyncResult reports the outcome of [Engine.Sync] for one group.
type SyncResult struct {
	Group   string
	Deps    []string
	Changed bool
}

// Sync resolves the selected groups (all when groups is empty) and replaces
// their stored deps. The store is saved once, after every group resolved.
func (e *Engine) Sync(ctx context.Context, groups []string) ([]SyncResult, error) {
	s, err := e.Load(ctx)
	if err != nil {
		return nil, err
	}
	selected, err := s.Select(groups)
	if err != nil {
		return nil, err
	}

	results := make([]SyncResult, 0, len(selected))
	for _, g := range selected {
		cands, err := e.Candidates(ctx, g)
		if err != nil {
			return nil, err
		}
		results = append(results, SyncResult{
			Group:   g.Name,
			Deps:    cands,
			Changed: !slices.Equal(cands, g.Deps),
		})
	}
	for i, g := range selected {
		g.Deps = results[i].Deps
	}
	if err := e.save(ctx, s); err != nil {
		return nil, err
	}
	return results, nil
}

// GroupDiff is the drift of one group: requirements that a sync would add
// to or remove from the stored deps, as sorted canonical strings.
type GroupDiff struct {
	Group   string   `json:"-"`
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
}

// Diff lists drifted groups in store order. It encodes as a JSON object
// keyed by group name.
type Diff []GroupDiff

// MarshalJSON implements json.Marshaler, keeping group order.
func (d Diff) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, gd := range d {
		if i > 0 {
			b.WriteByte(',')
		}
		key, err := json.Marshal(gd.Group)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(gd)
		if err != nil {
			return nil, err
		}
		b.Write(key)
		b.WriteByte(':')
		b.Write(val)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// Verify resolves the selected groups and compares the result with the
// stored deps as sets of canonical forms. It never writes the store.
// An empty Diff means no drift.
func (e *Engine) Verify(ctx context.Context, groups []string) (Diff, error) {
	s, err := e.Load(ctx)
	if err != nil {
		return nil, err
	}
	selected, err := s.Select(groups)
	if err != nil {
		return nil, err
	}

	diff := Diff{}
	for _, g := range selected {
		cands, err := e.Candidates(ctx, g)
		if err != nil {
			return nil, err
		}
		stored, err := canonicalSet(g.Deps)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeConfig, err, "group %q", g.Name)
		}
		fresh := mapset.NewThreadUnsafeSet(cands...)
		if fresh.Equal(stored) {
			continue
		}
		added := fresh.Difference(stored).ToSlice()
		removed := stored.Difference(fresh).ToSlice()
		slices.Sort(added)
		slices.Sort(removed)
		diff = append(diff, GroupDiff{Group: g.Name, Added: nonNil(added), Removed: nonNil(removed)})
	}
	return diff, nil
}

func canonicalSet(deps []string) (mapset.Set[string], error) {
	set := mapset.NewThreadUnsafeSet[string]()
	for _, dep := range deps {
		req, err := pep508.Parse(dep)
		if err != nil {
			return nil, err
		}
		set.Add(req.String())
	}
	return set, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
