// Package pkg provides the libraries behind the pyproject command.
//
// # Overview
//
// pyproject manages named groups of Python requirements for projects that
// build from source in network-isolated environments. The pkg directory is
// organized into these areas:
//
//  1. [pep508] - Requirement strings, environment markers, name normalization
//  2. [deps] - The deps engine: sources, sync, verify and eval
//  3. [deps/store] - The versioned store file (pyproject_deps.json)
//  4. [deps/sources] - Resolvers for every supported source type
//  5. [backend] - PEP 517 build backend hooks run in a Python subprocess
//  6. [metadata] - Core metadata (METADATA, PKG-INFO, wheels)
//
// Supporting packages:
//
//   - [errors] - Error codes shared by all packages
//   - [observability] - Hooks for logging and tracing engine events
//   - [buildinfo] - Version information injected at build time
//
// # Data Flow
//
//	deps add  ──▶  store (groups → sources)
//	                  │
//	deps sync ──▶  sources ──▶ pep508.Requirement ──▶ filters ──▶ store.deps
//	                  │
//	deps eval ──▶  store.deps ──▶ markers(env) ──▶ excludes ──▶ rendered lines
//
// Sources that need the build backend (pep517, metadata) call hooks through
// [backend.HookCaller], which tests replace with fakes.
//
// [pep508]: github.com/matzehuels/pyproject/pkg/pep508
// [deps]: github.com/matzehuels/pyproject/pkg/deps
// [deps/store]: github.com/matzehuels/pyproject/pkg/deps/store
// [deps/sources]: github.com/matzehuels/pyproject/pkg/deps/sources
// [backend]: github.com/matzehuels/pyproject/pkg/backend
// [metadata]: github.com/matzehuels/pyproject/pkg/metadata
// [errors]: github.com/matzehuels/pyproject/pkg/errors
// [observability]: github.com/matzehuels/pyproject/pkg/observability
// [buildinfo]: github.com/matzehuels/pyproject/pkg/buildinfo
package pkg
