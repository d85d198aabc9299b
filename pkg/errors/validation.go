package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateName validates a group or source name.
// Names end up as JSON object keys and in log lines, so the rules are conservative:
//   - No empty names
//   - No control characters or surrounding whitespace
//   - Maximum length of 128 characters
func ValidateName(kind, name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "%s name cannot be empty", kind)
	}

	if len(name) > 128 {
		return New(ErrCodeInvalidName, "%s name too long (max 128 characters)", kind)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "%s name contains invalid control characters", kind)
		}
	}

	if strings.TrimSpace(name) != name {
		return New(ErrCodeInvalidName, "%s name cannot start or end with whitespace: %q", kind, name)
	}

	return nil
}

// ValidatePath validates a file path given as a source argument.
// Paths may be absolute or relative to the project root.
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidInput, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "path contains invalid characters")
		}
	}

	return nil
}

// pythonPackageNameRegex matches valid Python package names (PEP 508).
var pythonPackageNameRegex = regexp.MustCompile(`^([A-Za-z0-9]|[A-Za-z0-9][A-Za-z0-9._-]*[A-Za-z0-9])$`)

// ValidatePythonPackageName validates a Python package name per PEP 508.
func ValidatePythonPackageName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidRequirement, "package name cannot be empty")
	}

	if !pythonPackageNameRegex.MatchString(name) {
		return New(ErrCodeInvalidRequirement, "invalid Python package name: %q", name)
	}

	return nil
}
