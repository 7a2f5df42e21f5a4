package vcs

import (
	"os"
	"path/filepath"
)

// IsUnderVersionControl reports whether dir itself contains the reserved
// metadata directory. Parent directories are not consulted: a target nested
// inside another repository still gets its own repository.
func IsUnderVersionControl(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, MetadataDir))
	return err == nil && info.IsDir()
}

// IsIgnoredPath reports whether path lies inside a metadata directory.
// Changes there are produced by nbake's own commits and never count as
// user activity.
func IsIgnoredPath(path string) bool {
	for p := filepath.Clean(path); ; {
		if filepath.Base(p) == MetadataDir {
			return true
		}
		parent := filepath.Dir(p)
		if parent == p {
			return false
		}
		p = parent
	}
}
