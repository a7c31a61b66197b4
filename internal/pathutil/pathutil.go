package pathutil

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandHomePath resolves a leading "~" against the current user's home
// directory and cleans the result. Paths without the prefix, and paths
// for which no home can be resolved, pass through cleaned.
func ExpandHomePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	if p == "~" {
		if home := homeDir(); home != "" {
			return filepath.Clean(home)
		}
		return p
	}
	if rest, ok := strings.CutPrefix(p, "~/"); ok {
		if home := homeDir(); home != "" {
			return filepath.Clean(filepath.Join(home, rest))
		}
	}
	return filepath.Clean(p)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(home)
}

// EnsureDir creates the directory and any missing parents.
func EnsureDir(dir string, perm os.FileMode) error {
	dir = strings.TrimSpace(dir)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, perm)
}

// EnsureParent creates the parent directory of a file path, so a first
// run works against a fresh location.
func EnsureParent(path string, perm os.FileMode) error {
	return EnsureDir(filepath.Dir(path), perm)
}
