package settings

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMergeDefaults_ExistingWins(t *testing.T) {
	s := New()
	s.Set("blog", map[string]interface{}{"per_page": 50})

	s.MergeDefaults("blog", map[string]interface{}{
		"per_page": 10,
		"driver":   "database",
	})

	got := s.GetMap("blog")
	if got["per_page"] != 50 {
		t.Errorf("per_page = %v, want existing 50", got["per_page"])
	}
	if got["driver"] != "database" {
		t.Errorf("driver = %v, want default database", got["driver"])
	}
}

func TestMergeDefaults_NewKey(t *testing.T) {
	s := New()
	s.MergeDefaults("shop", map[string]interface{}{"currency": "PHP"})

	if !s.Has("shop") {
		t.Fatal("shop should be set")
	}
	if got := s.Get("shop.currency", nil); got != "PHP" {
		t.Errorf("shop.currency = %v", got)
	}
	if got := s.Get("missing", "fallback"); got != "fallback" {
		t.Errorf("Get default = %v", got)
	}
	if keys := s.Keys(); len(keys) != 1 || keys[0] != "shop" {
		t.Errorf("Keys = %v", keys)
	}
}

func TestCachedFlag(t *testing.T) {
	s := New()
	if s.IsCached() {
		t.Error("new store should not be cached")
	}
	s.MarkCached(true)
	if !s.IsCached() {
		t.Error("MarkCached(true) not applied")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"blog.json": `{"per_page": 10, "tags": ["a", "b"]}`,
		"blog.yaml": "per_page: 10\ntags:\n  - a\n  - b\n",
		"blog.toml": "per_page = 10\ntags = [\"a\", \"b\"]\n",
	}

	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatal(err)
			}
			got, err := LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile failed: %v", err)
			}
			if _, ok := got["per_page"]; !ok {
				t.Errorf("per_page missing: %v", got)
			}
			tags, ok := got["tags"].([]interface{})
			if !ok || len(tags) != 2 {
				t.Errorf("tags = %#v", got["tags"])
			}
		})
	}
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(bad); err == nil {
		t.Error("expected parse error")
	}

	php := filepath.Join(dir, "app.php")
	if err := os.WriteFile(php, []byte("<?php return [];"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(php); err == nil {
		t.Error("expected unsupported format error")
	}
	if Supported(php) || !Supported(bad) {
		t.Error("Supported mismatch")
	}
}
