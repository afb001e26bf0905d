package paths

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var ErrDirRequired = errors.New("store directory is required")

// NormalizeDir resolves a store directory to an absolute path.
func NormalizeDir(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", ErrDirRequired
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve store dir: %w", err)
	}

	return absPath, nil
}
