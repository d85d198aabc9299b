// Package deps declares, resolves and evaluates groups of Python
// dependency sources.
//
// # Overview
//
// A project keeps its dependency declarations in a store file (see
// [store]). The store holds named groups; each group lists typed sources
// (a pyproject.toml table, a requirements file, a build backend hook, ...)
// and the requirement set last synced from them.
//
// The [Engine] implements the operations on that file:
//
//   - Add, DeleteGroups, DeleteSource, AddFilter, DeleteFilter: edit declarations
//   - Sync: resolve sources and persist the result
//   - Verify: resolve sources and report drift without writing
//   - Eval: evaluate stored requirements against the environment and render them
//   - Show: print the store
//
// # Source Types
//
// Each srctype is a [SourceType] with an argument contract and a
// [Resolver]. The set of types is closed: a [Registry] is built once at
// startup (see the sources subpackage) and unknown types are rejected when
// a source is added and when the store is loaded.
//
// # Resolution
//
// [Engine.Candidates] resolves a group's sources in declared order,
// dedupes by canonical requirement form (first occurrence wins) and then
// applies the group's filters: exclude patterns remove matching names,
// then a non-empty include list keeps only matching names. Patterns are
// regular expressions anchored at the start of the normalized name.
//
// A failing source aborts the whole operation with a [SourceError] naming
// the group and source. Sync saves only after every group resolved, and
// the save is atomic, so a failed sync leaves the store file untouched.
//
// # Drift
//
// Verify compares freshly resolved requirements with the stored ones as
// sets of canonical strings. The resulting [Diff] marshals to
//
//	{"<group>": {"added": [...], "removed": [...]}}
//
// # Rendering
//
// Eval renders requirements with an optional template ([Render]):
// $name is the project name as written, $nname its normalized form and
// $fextra the per-extra template applied to each extra in turn.
//
// [store]: github.com/matzehuels/pyproject/pkg/deps/store
package deps
