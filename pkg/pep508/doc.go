// Package pep508 implements the Python dependency specifier model.
//
// # Overview
//
// A dependency specifier ("requirement") names a project and optionally
// constrains it:
//
//	name [extras] specifier ; marker
//	foo[bar,baz] >=1.0, <2 ; python_version >= "3.8"
//
// [Parse] turns one such line into an immutable [Requirement]. Every
// Requirement has a canonical string form ([Requirement.String]) that is
// stable across equivalent spellings: extras are sorted, specifier clauses
// are sorted and stripped of whitespace, and the marker is re-rendered from
// its expression tree. The canonical form is the key used for dedup and
// drift comparison everywhere else in the module.
//
// # Names
//
// [NormalizeName] implements the project-name normalization rule: lowercase,
// with runs of "-", "_" and "." collapsed into a single "-".
//
// # Markers
//
// Environment markers are parsed into a small expression tree by
// [ParseMarker] and evaluated against an [Environment]:
//
//	m, _ := pep508.ParseMarker(`python_version >= "3.8" and extra == "test"`)
//	ok, _ := m.Evaluate(pep508.DefaultEnvironment().WithExtra("test"))
//
// The "extra" variable is empty unless the caller supplies one, so markers
// that test it evaluate to false by default.
//
// Version comparisons use [github.com/hashicorp/go-version]; when either side
// is not a valid version the comparison falls back to plain string ordering.
package pep508
