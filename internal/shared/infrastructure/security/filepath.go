// Package security checks file paths that come from configuration before
// they are opened.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// forbiddenChars are shell metacharacters never expected in a config or
// database path.
const forbiddenChars = ";&|$`(){}<>!\n\r"

// ErrEmptyPath is returned for an empty path.
var ErrEmptyPath = errors.New("file path cannot be empty")

// CleanPath returns path cleaned and made absolute, with symlinks resolved
// when the file already exists.
func CleanPath(path string) (string, error) {
	if path == "" {
		return "", ErrEmptyPath
	}
	if i := strings.IndexAny(path, forbiddenChars); i >= 0 {
		return "", fmt.Errorf("file path contains forbidden character %q: %s", path[i], path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve file path: %w", err)
	}

	resolved, err := filepath.EvalSymlinks(abs)
	switch {
	case err == nil:
		return resolved, nil
	case errors.Is(err, os.ErrNotExist):
		return abs, nil
	default:
		return "", fmt.Errorf("failed to resolve file path: %w", err)
	}
}

// ReadFile is os.ReadFile behind CleanPath.
func ReadFile(path string) ([]byte, error) {
	clean, err := CleanPath(path)
	if err != nil {
		return nil, err
	}
	// #nosec G304 - path is checked above
	return os.ReadFile(clean)
}
