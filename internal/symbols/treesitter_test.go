//go:build cgo

package symbols

import (
	"context"
	"testing"
)

func TestExtractSource_PHP(t *testing.T) {
	source := []byte(`<?php

namespace Acme\Blog\Models;

abstract class Post
{
    public function author()
    {
        return new class {};
    }
}

interface Publishable {}
`)

	e := NewExtractor()
	decls, err := e.ExtractSource(context.Background(), "Post.php", source)
	if err != nil {
		t.Fatalf("ExtractSource failed: %v", err)
	}

	if len(decls) != 2 {
		for _, d := range decls {
			t.Logf("  %s %s", d.Kind, d.FQCN())
		}
		t.Fatalf("expected 2 declarations, got %d", len(decls))
	}
	if decls[0].FQCN() != `Acme\Blog\Models\Post` || decls[0].Kind != "class" {
		t.Errorf("first = %s %s", decls[0].Kind, decls[0].FQCN())
	}
	if decls[0].Line != 5 {
		t.Errorf("Post line = %d, want 5", decls[0].Line)
	}
	if decls[1].Name != "Publishable" || decls[1].Kind != "interface" {
		t.Errorf("second = %s %s", decls[1].Kind, decls[1].Name)
	}
	for _, d := range decls {
		if d.Source != "treesitter" {
			t.Errorf("%s extracted by %s", d.Name, d.Source)
		}
	}
}

func TestExtractSource_BracedNamespace(t *testing.T) {
	source := []byte(`<?php
namespace Acme\Shop {
    trait HasTotals {}
    class Order {}
}
`)

	decls, err := NewExtractor().ExtractSource(context.Background(), "Order.php", source)
	if err != nil {
		t.Fatalf("ExtractSource failed: %v", err)
	}
	if len(decls) != 2 {
		t.Fatalf("expected 2 declarations, got %d", len(decls))
	}
	if decls[0].FQCN() != `Acme\Shop\HasTotals` || decls[1].FQCN() != `Acme\Shop\Order` {
		t.Errorf("got %s, %s", decls[0].FQCN(), decls[1].FQCN())
	}
}

func TestExtractSource_FallsBackOnSyntaxError(t *testing.T) {
	source := []byte("<?php\nnamespace Broken;\nclass Half {\n    public function (\n")

	decls, err := NewExtractor().ExtractSource(context.Background(), "Half.php", source)
	if err != nil {
		t.Fatalf("ExtractSource failed: %v", err)
	}
	if len(decls) != 1 || decls[0].FQCN() != `Broken\Half` {
		t.Fatalf("decls = %+v", decls)
	}
	if decls[0].Source != "lexer" {
		t.Errorf("expected lexer fallback, got %s", decls[0].Source)
	}
}

func TestIsAvailable(t *testing.T) {
	if !IsAvailable() {
		t.Error("tree-sitter should be available with cgo")
	}
}
