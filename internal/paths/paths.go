package paths

import (
	"os"
	"path/filepath"
	"strings"
)

// CanonicalizePath converts an absolute path to a root-relative canonical path
// - Resolves symlinks to real paths
// - Makes path relative to root
// - Returns a relative path with forward slashes
func CanonicalizePath(absolutePath string, root string) (string, error) {
	resolved, err := filepath.EvalSymlinks(absolutePath)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", err
		}
		resolved = absolutePath
	}

	rootResolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", err
		}
		rootResolved = root
	}

	relativePath, err := filepath.Rel(rootResolved, resolved)
	if err != nil {
		return "", err
	}

	return filepath.ToSlash(relativePath), nil
}

// IsWithinRoot checks if a path is inside root
func IsWithinRoot(path string, root string) bool {
	canonical, err := CanonicalizePath(path, root)
	if err != nil {
		return false
	}
	return canonical != ".." && !strings.HasPrefix(canonical, "../")
}

// NormalizePath converts backslashes to forward slashes
func NormalizePath(path string) string {
	return filepath.ToSlash(path)
}

// Display renders path relative to root when it lives inside it, and
// unchanged otherwise.
func Display(path string, root string) string {
	if root == "" || !IsWithinRoot(path, root) {
		return path
	}
	rel, err := CanonicalizePath(path, root)
	if err != nil {
		return path
	}
	return rel
}

// IsDir reports whether path exists and is a directory.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Exists reports whether path exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
