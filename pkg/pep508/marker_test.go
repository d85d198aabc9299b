package pep508

import (
	"testing"

	"github.com/matzehuels/pyproject/pkg/errors"
)

func TestParseMarker_String(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`python_version>='3.8'`, `python_version >= "3.8"`},
		{`os_name=="nt" or sys_platform=="win32"`, `os_name == "nt" or sys_platform == "win32"`},
		{`python_version >= "3.8" and (os_name == "nt" or sys_platform == "linux")`, `python_version >= "3.8" and (os_name == "nt" or sys_platform == "linux")`},
		{`((extra == "a"))`, `extra == "a"`},
		{`os.name == 'posix'`, `os_name == "posix"`},
		{`python_implementation == 'CPython'`, `platform_python_implementation == "CPython"`},
		{`"arm" not in platform_machine`, `"arm" not in platform_machine`},
		{`platform_version == 'say "hi"'`, `platform_version == 'say "hi"'`},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m, err := ParseMarker(tt.in)
			if err != nil {
				t.Fatalf("ParseMarker(%q) failed: %v", tt.in, err)
			}
			if got := m.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseMarker_Invalid(t *testing.T) {
	tests := []string{
		`python_version >=`,
		`foo == "1"`,
		`python_version = "3"`,
		`(python_version == "3"`,
		`not python_version`,
		`python_version == "3" and`,
		`python_version == "3`,
		`python_version "3"`,
		`python_version == "3" os_name == "nt"`,
	}

	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			_, err := ParseMarker(in)
			if err == nil {
				t.Fatalf("ParseMarker(%q) succeeded, want error", in)
			}
			if !errors.Is(err, errors.ErrCodeInvalidMarker) {
				t.Errorf("code = %s, want %s", errors.GetCode(err), errors.ErrCodeInvalidMarker)
			}
		})
	}
}

func TestMarker_Evaluate(t *testing.T) {
	env := Environment{
		"python_version":                 "3.12",
		"python_full_version":            "3.12.1",
		"os_name":                        "posix",
		"sys_platform":                   "linux",
		"platform_machine":               "x86_64",
		"platform_python_implementation": "CPython",
		"implementation_name":            "cpython",
		"platform_release":               "",
		"platform_version":               "Darwin Kernel Version 23.1.0",
		"extra":                          "",
	}

	tests := []struct {
		marker string
		extra  string
		want   bool
	}{
		{`python_version >= "3.8"`, "", true},
		{`python_version < "3.10"`, "", false},
		{`python_version > "3.9"`, "", true},
		{`"3.8" <= python_version`, "", true},
		{`python_full_version == "3.12.*"`, "", true},
		{`python_full_version != "3.12.*"`, "", false},
		{`python_full_version ~= "3.11.0"`, "", false},
		{`python_full_version ~= "3.12.0"`, "", true},
		{`sys_platform == "linux" and os_name == "posix"`, "", true},
		{`sys_platform == "win32" or os_name == "nt"`, "", false},
		{`sys_platform == "win32" or (os_name == "posix" and platform_machine == "x86_64")`, "", true},
		{`"linux" in sys_platform`, "", true},
		{`platform_machine not in "arm64 aarch64"`, "", true},
		{`implementation_name < "z"`, "", true},
		{`platform_release != "5.0"`, "", true},
		{`platform_release == "5.0"`, "", false},
		{`platform_version > "1.0"`, "", true},
		{`extra == "test"`, "", false},
		{`extra == "test"`, "test", true},
		{`extra == "Foo.Bar"`, "foo_bar", true},
		{`extra != "test"`, "other", true},
	}

	for _, tt := range tests {
		t.Run(tt.marker+"/"+tt.extra, func(t *testing.T) {
			m, err := ParseMarker(tt.marker)
			if err != nil {
				t.Fatalf("ParseMarker failed: %v", err)
			}
			got, err := m.Evaluate(env.WithExtra(tt.extra))
			if err != nil {
				t.Fatalf("Evaluate failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Evaluate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMarker_EvaluateUndefined(t *testing.T) {
	m, err := ParseMarker(`platform_release >= "5"`)
	if err != nil {
		t.Fatal(err)
	}
	_, err = m.Evaluate(Environment{})
	if !errors.Is(err, errors.ErrCodeInvalidMarker) {
		t.Errorf("Evaluate with empty env: got %v, want %s", err, errors.ErrCodeInvalidMarker)
	}
}

func TestMarker_ReferencesExtra(t *testing.T) {
	tests := []struct {
		marker string
		extra  string
		want   bool
	}{
		{`extra == "test"`, "test", true},
		{`"test" == extra`, "test", true},
		{`python_version >= "3.8" and extra == "Test_Suite"`, "test-suite", true},
		{`extra == "docs"`, "test", false},
		{`extra != "test"`, "test", false},
		{`python_version >= "3.8"`, "test", false},
	}

	for _, tt := range tests {
		t.Run(tt.marker, func(t *testing.T) {
			m, err := ParseMarker(tt.marker)
			if err != nil {
				t.Fatal(err)
			}
			if got := m.ReferencesExtra(tt.extra); got != tt.want {
				t.Errorf("ReferencesExtra(%q) = %v, want %v", tt.extra, got, tt.want)
			}
		})
	}
}
