package pep508

import (
	"maps"
	"runtime"
	"strings"
)

// DefaultPythonVersion is assumed for the python_* variables when no
// interpreter could be queried.
const DefaultPythonVersion = "3.12.0"

// Environment maps marker variable names to their values.
type Environment map[string]string

// WithExtra returns a copy of env with the "extra" variable set.
func (e Environment) WithExtra(extra string) Environment {
	env := maps.Clone(e)
	if env == nil {
		env = Environment{}
	}
	env["extra"] = extra
	return env
}

// Merge returns a copy of env with every non-empty value of other applied on top.
func (e Environment) Merge(other map[string]string) Environment {
	env := maps.Clone(e)
	if env == nil {
		env = Environment{}
	}
	for k, v := range other {
		if v != "" {
			env[k] = v
		}
	}
	return env
}

var goosPlatform = map[string]string{
	"windows": "win32",
	"aix":     "aix",
	"darwin":  "darwin",
	"freebsd": "freebsd",
	"linux":   "linux",
}

var goarchMachine = map[string]string{
	"amd64":   "x86_64",
	"386":     "i686",
	"arm64":   "aarch64",
	"arm":     "armv7l",
	"ppc64le": "ppc64le",
	"s390x":   "s390x",
	"riscv64": "riscv64",
}

// DefaultEnvironment derives a marker environment from the Go runtime.
// The python_* values assume [DefaultPythonVersion] on CPython; callers that
// can run the target interpreter should overlay its values with [Environment.Merge].
func DefaultEnvironment() Environment {
	platform, ok := goosPlatform[runtime.GOOS]
	if !ok {
		platform = runtime.GOOS
	}
	machine, ok := goarchMachine[runtime.GOARCH]
	if !ok {
		machine = runtime.GOARCH
	}
	if runtime.GOOS == "darwin" && runtime.GOARCH == "arm64" {
		machine = "arm64"
	}
	osName := "posix"
	if runtime.GOOS == "windows" {
		osName = "nt"
	}
	system := strings.ToUpper(runtime.GOOS[:1]) + runtime.GOOS[1:]
	if runtime.GOOS == "darwin" {
		system = "Darwin"
	}

	full := DefaultPythonVersion
	short := full
	if parts := strings.SplitN(full, ".", 3); len(parts) >= 2 {
		short = parts[0] + "." + parts[1]
	}

	return Environment{
		"python_version":                 short,
		"python_full_version":            full,
		"os_name":                        osName,
		"sys_platform":                   platform,
		"platform_release":               "",
		"platform_system":                system,
		"platform_version":               "",
		"platform_machine":               machine,
		"platform_python_implementation": "CPython",
		"implementation_name":            "cpython",
		"implementation_version":         full,
		"extra":                          "",
	}
}
