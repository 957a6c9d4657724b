package errors

import (
	"strings"
	"unicode"
)

// ValidateStructureName validates a structure name supplied by a user,
// for example through `--root`.
//
// GDSII allows up to 32 characters in practice, but many writers exceed
// that, so only a generous upper bound is enforced:
//   - No empty names
//   - No control characters
//   - Maximum length of 256 characters
func ValidateStructureName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "structure name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidInput, "structure name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "structure name contains invalid control characters")
		}
	}

	return nil
}

// ValidatePath validates an object key or relative path for safety.
// It prevents path traversal and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
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

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// ValidateTheme accepts the two viewer themes.
func ValidateTheme(theme string) error {
	switch theme {
	case "light", "dark":
		return nil
	case "":
		return New(ErrCodeInvalidTheme, "theme cannot be empty")
	default:
		return New(ErrCodeInvalidTheme, "unknown theme %q (want light or dark)", theme)
	}
}

// ValidateHexColor validates a "#rrggbb" or "#rrggbbaa" color string.
func ValidateHexColor(s string) error {
	if !strings.HasPrefix(s, "#") || (len(s) != 7 && len(s) != 9) {
		return New(ErrCodeInvalidInput, "invalid color %q (want #rrggbb or #rrggbbaa)", s)
	}
	for _, r := range s[1:] {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return New(ErrCodeInvalidInput, "invalid color %q (want #rrggbb or #rrggbbaa)", s)
		}
	}
	return nil
}
