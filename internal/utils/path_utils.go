package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// FindUp searches for any of names starting from dir and walking up to parent
// directories, similar to how .gitignore is found.
// Returns the path to the first match, or empty string and nil error if
// nothing is found before the filesystem root.
func FindUp(dir string, names ...string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		for _, name := range names {
			candidate := filepath.Join(dir, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return "", nil
		}
		dir = parent
	}
}

// ResolveRelative joins path onto baseDir unless path is already absolute.
func ResolveRelative(baseDir, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(baseDir, path)
}
