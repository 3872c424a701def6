package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidatePackageName validates a dependency name before it is joined onto
// a filesystem path. It rejects names that could escape node_modules.
//
// The rules are intentionally conservative:
//   - No empty names
//   - No control characters or null bytes
//   - No path traversal sequences (.., //, backslashes)
//   - Maximum length of 256 characters
//   - A "/" is only allowed once, inside a scoped name ("@scope/name")
func ValidatePackageName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "package name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidInput, "package name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "package name contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"//",   // Double slash
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidInput, "package name contains invalid characters: %q", pattern)
		}
	}

	if n := strings.Count(name, "/"); n > 1 || (n == 1 && !strings.HasPrefix(name, "@")) {
		return New(ErrCodeInvalidInput, "package name %q is not a valid scoped name", name)
	}
	if strings.HasPrefix(name, "@") && !strings.Contains(name, "/") {
		return New(ErrCodeInvalidInput, "scoped package name %q is missing a package part", name)
	}

	return nil
}

// packageManagerRegex matches the package.json "packageManager" field, e.g.
// "pnpm@9.12.2" or "yarn@4.5.0+sha512.abc".
var packageManagerRegex = regexp.MustCompile(`^(npm|pnpm|yarn|bun)@[0-9][0-9A-Za-z.+-]*$`)

// ValidatePackageManager validates a "packageManager" field value.
func ValidatePackageManager(field string) error {
	if field == "" {
		return New(ErrCodeInvalidInput, "packageManager field is empty")
	}
	if !packageManagerRegex.MatchString(field) {
		return New(ErrCodeInvalidInput,
			"packageManager field %q must match the format \"toolName@version\" (example: \"pnpm@9.12.2\")", field)
	}
	return nil
}
