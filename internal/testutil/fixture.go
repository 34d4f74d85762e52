// Package testutil provides filesystem fixtures and golden-file helpers.
package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"
)

// Tree is a throwaway directory populated from relative paths.
type Tree struct {
	// Root is the absolute path of the tree
	Root string
}

// NewTree creates an empty tree under t.TempDir().
func NewTree(t *testing.T) *Tree {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to resolve temp dir: %v", err)
	}
	return &Tree{Root: root}
}

// Write creates files from a map of slash-separated relative path to
// contents. A path ending in "/" creates an empty directory.
func (tr *Tree) Write(t *testing.T, files map[string]string) *Tree {
	t.Helper()

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		full := tr.Path(name)
		if name[len(name)-1] == '/' {
			if err := os.MkdirAll(full, 0o755); err != nil {
				t.Fatalf("Failed to create %s: %v", name, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("Failed to create parent of %s: %v", name, err)
		}
		if err := os.WriteFile(full, []byte(files[name]), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	return tr
}

// Path joins a slash-separated relative path onto the tree root.
func (tr *Tree) Path(rel string) string {
	return filepath.Join(tr.Root, filepath.FromSlash(rel))
}

// Remove deletes a file or directory from the tree.
func (tr *Tree) Remove(t *testing.T, rel string) {
	t.Helper()
	if err := os.RemoveAll(tr.Path(rel)); err != nil {
		t.Fatalf("Failed to remove %s: %v", rel, err)
	}
}

// PHPClass renders a minimal PHP source declaring one class.
func PHPClass(namespace, name string) string {
	return "<?php\n\nnamespace " + namespace + ";\n\nclass " + name + "\n{\n}\n"
}

// projectRoot returns the module root, used to locate testdata/.
func projectRoot(t *testing.T) string {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get caller information")
	}
	return filepath.Dir(filepath.Dir(filepath.Dir(thisFile)))
}
