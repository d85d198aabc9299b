package pep508

import (
	"regexp"
	"strings"
)

var separatorRuns = regexp.MustCompile(`[-_.]+`)

// NormalizeName converts a project name to its normalized form: lowercase,
// with every run of "-", "_" and "." replaced by a single "-".
// NormalizeName is idempotent.
func NormalizeName(name string) string {
	return strings.ToLower(separatorRuns.ReplaceAllString(strings.TrimSpace(name), "-"))
}
