// Package backend talks to a project's PEP 517 build backend.
//
// # Overview
//
// The build backend is declared in the [build-system] table of
// pyproject.toml. [LoadBuildSystem] reads that table, applying the PEP 517
// fallback (setuptools' legacy backend) when it is absent.
//
// Hooks run in a separate interpreter process. [Subprocess] spawns the
// configured Python with an embedded helper script, passes the hook
// arguments as JSON on the command line and reads the JSON-encoded result
// from an extra pipe (file descriptor 3), leaving the backend free to print
// to stdout and stderr.
//
// Callers that only need a result depend on the [HookCaller] interface, so
// tests can substitute a fake backend.
//
// # Building
//
// [BuildWheel], [BuildSdist] and [BuildMetadata] wrap the corresponding
// hooks and take care of the output directory layout. [GetRequires] calls
// one of the get_requires_for_build_* hooks.
//
// # Interpreter environment
//
// [QueryEnvironment] runs the interpreter once to obtain its marker
// environment (python_version, sys_platform, ...) for marker evaluation.
package backend
