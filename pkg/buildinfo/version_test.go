package buildinfo

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	old := Version
	defer func() { Version = old }()

	Version = "v1.2.3"
	got := String()
	for _, want := range []string{"version: v1.2.3", "commit: ", "built: "} {
		if !strings.Contains(got, want) {
			t.Errorf("String() = %q, missing %q", got, want)
		}
	}
}

func TestTemplate(t *testing.T) {
	old := Version
	defer func() { Version = old }()

	Version = "v0.9.0"
	if got := Template(); !strings.HasPrefix(got, "{{.Name}} version v0.9.0\n") {
		t.Errorf("Template() = %q", got)
	}
}
