package paths

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCanonicalizePath(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "packages", "blog", "src")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := CanonicalizePath(nested, root)
	if err != nil {
		t.Fatalf("CanonicalizePath failed: %v", err)
	}
	if got != "packages/blog/src" {
		t.Errorf("CanonicalizePath = %q, want packages/blog/src", got)
	}

	// Paths that do not exist yet are still made relative
	got, err = CanonicalizePath(filepath.Join(root, "missing", "file.php"), root)
	if err != nil {
		t.Fatalf("CanonicalizePath on missing path failed: %v", err)
	}
	if got != "missing/file.php" {
		t.Errorf("CanonicalizePath = %q, want missing/file.php", got)
	}
}

func TestIsWithinRoot(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"root itself", root, true},
		{"child", filepath.Join(root, "app"), true},
		{"sibling", filepath.Join(filepath.Dir(root), "other"), false},
		{"dot-dot prefixed name", filepath.Join(root, "..foo"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsWithinRoot(tt.path, root); got != tt.want {
				t.Errorf("IsWithinRoot(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestDisplay(t *testing.T) {
	root := t.TempDir()
	inside := filepath.Join(root, "routes", "api.php")

	if got := Display(inside, root); got != "routes/api.php" {
		t.Errorf("Display inside = %q", got)
	}
	outside := filepath.Join(filepath.Dir(root), "elsewhere")
	if got := Display(outside, root); got != outside {
		t.Errorf("Display outside = %q, want unchanged", got)
	}
	if got := Display(inside, ""); got != inside {
		t.Errorf("Display with empty root = %q", got)
	}
}

func TestNormalizePath(t *testing.T) {
	if got := NormalizePath(filepath.Join("a", "b", "c")); got != "a/b/c" {
		t.Errorf("NormalizePath = %q", got)
	}
}
