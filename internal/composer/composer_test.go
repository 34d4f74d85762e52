package composer

import (
	"os"
	"strings"
	"testing"

	kerrors "starterkit/internal/errors"
	"starterkit/internal/testutil"
)

func TestReadAndFind(t *testing.T) {
	tree := testutil.NewTree(t).Write(t, map[string]string{
		"composer.json":                     `{"name": "acme/blog", "extra": {"laravel": {}}}`,
		"src/Providers/BlogProvider.php":    "<?php",
		"src/Deep/One/Two/Three/Four/x.php": "<?php",
	})

	path, ok := Find(tree.Path("src/Providers"), 3)
	if !ok {
		t.Fatal("composer.json not found")
	}
	if path != tree.Path("composer.json") {
		t.Errorf("Find = %q", path)
	}

	if _, ok := Find(tree.Path("src/Deep/One/Two/Three/Four"), 3); ok {
		t.Error("composer.json should be out of reach at level 6")
	}

	m, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if m.Name() != "acme/blog" {
		t.Errorf("Name = %q", m.Name())
	}
	if m.Dir() != tree.Root {
		t.Errorf("Dir = %q", m.Dir())
	}
	if !m.Has("extra") || m.Has("scripts") {
		t.Error("Has mismatch")
	}
}

func TestRead_Invalid(t *testing.T) {
	tree := testutil.NewTree(t).Write(t, map[string]string{"composer.json": "{"})

	_, err := Read(tree.Path("composer.json"))
	if !kerrors.HasCode(err, kerrors.ManifestInvalid) {
		t.Fatalf("expected MANIFEST_INVALID, got %v", err)
	}
}

func TestSave_PreservesUnknownKeysAndSlashes(t *testing.T) {
	tree := testutil.NewTree(t).Write(t, map[string]string{
		"composer.json": `{"name": "acme/app", "require": {"php": "^8.1"}}`,
	})

	m, err := Read(tree.Path("composer.json"))
	if err != nil {
		t.Fatal(err)
	}
	m.Section("scripts")["cghooks"] = "./vendor/bin/cghooks"
	if err := m.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	raw, err := os.ReadFile(m.Path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(raw)
	if !strings.Contains(out, `"./vendor/bin/cghooks"`) {
		t.Errorf("slashes escaped or value missing:\n%s", out)
	}
	if !strings.Contains(out, `"php": "^8.1"`) {
		t.Errorf("unknown keys lost:\n%s", out)
	}
	if !strings.Contains(out, "\n    \"name\"") {
		t.Errorf("expected four-space indentation:\n%s", out)
	}

	m.Delete("scripts", "cghooks")
	if _, ok := m.Section("scripts")["cghooks"]; ok {
		t.Error("Delete did not remove key")
	}
}
