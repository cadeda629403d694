// Package shared provides common utility functions used across multiple
// packages in the appbundler codebase.
package shared

import (
	"fmt"
	"path/filepath"
	"strings"
)

// CommandError wraps a command execution error with its trimmed output
// for cleaner error messages.
func CommandError(output []byte, err error) error {
	return fmt.Errorf("%s: %w", strings.TrimSpace(string(output)), err)
}

// IsRetina reports whether a path names a high-density icon variant.
// The convention is a file stem ending in "@2x", as specified by the
// Apple developer docs and honored by freedesktop icon themes.
func IsRetina(path string) bool {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return strings.HasSuffix(stem, "@2x")
}

// HasGlobMeta reports whether the path contains glob metacharacters and
// therefore must be expanded rather than stat'ed directly.
func HasGlobMeta(path string) bool {
	return strings.ContainsAny(path, "*?[")
}
