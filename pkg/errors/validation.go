package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateCrateName validates a crate name as it appears as a table key.
// It rejects names that could be used for path traversal or injection.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No path traversal sequences (.., //, etc.)
//   - No null bytes
//   - No double quotes (the fragment key delimiter)
//   - Maximum length of 256 characters
func ValidateCrateName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidCrate, "crate name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidCrate, "crate name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidCrate, "crate name contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"//",   // Double slash
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
		`"`,    // Quote (fragment assignment delimiter)
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidCrate, "crate name contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// traitSegmentRegex matches one segment of a :: separated trait path.
var traitSegmentRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateTraitPath validates a fully-qualified trait path such as
// "core::ops::drop::Drop". Each :: separated segment must be a valid
// identifier.
func ValidateTraitPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidTrait, "trait path cannot be empty")
	}

	if len(path) > 512 {
		return New(ErrCodeInvalidTrait, "trait path too long (max 512 characters)")
	}

	for _, segment := range strings.Split(path, "::") {
		if !traitSegmentRegex.MatchString(segment) {
			return New(ErrCodeInvalidTrait, "invalid trait path segment: %q", segment)
		}
	}

	return nil
}

// ValidateDocPath validates a file path within a documentation tree.
// It prevents path traversal attacks and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidateDocPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}
