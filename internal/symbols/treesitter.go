//go:build cgo

package symbols

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/php"
)

// declarationKinds maps tree-sitter PHP node types to declaration kinds.
var declarationKinds = map[string]string{
	"class_declaration":     "class",
	"interface_declaration": "interface",
	"trait_declaration":     "trait",
	"enum_declaration":      "enum",
}

// Extractor extracts class-like declarations from PHP files using tree-sitter.
// Files the grammar cannot parse cleanly fall back to the lexical scanner.
type Extractor struct {
	mu     sync.Mutex
	parser *sitter.Parser
}

// NewExtractor creates a new declaration extractor.
func NewExtractor() *Extractor {
	parser := sitter.NewParser()
	parser.SetLanguage(php.GetLanguage())
	return &Extractor{parser: parser}
}

// ExtractFile extracts declarations from a single file.
func (e *Extractor) ExtractFile(ctx context.Context, path string) ([]Declaration, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return e.ExtractSource(ctx, path, source)
}

// ExtractSource extracts declarations from source bytes.
func (e *Extractor) ExtractSource(ctx context.Context, path string, source []byte) ([]Declaration, error) {
	e.mu.Lock()
	tree, err := e.parser.ParseCtx(ctx, nil, source)
	e.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return scanDeclarations(path, source), nil
	}

	var decls []Declaration
	namespace := ""
	walkDeclarations(root, source, path, &namespace, &decls)
	return decls, nil
}

// walkDeclarations visits children in source order. A statement-form
// namespace ("namespace Foo;") applies to the following siblings; a braced
// namespace applies only to its body.
func walkDeclarations(node *sitter.Node, source []byte, path string, namespace *string, decls *[]Declaration) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}

		switch child.Type() {
		case "namespace_definition":
			name := ""
			if n := child.ChildByFieldName("name"); n != nil {
				name = strings.Trim(n.Content(source), `\`)
			}
			if body := child.ChildByFieldName("body"); body != nil {
				inner := name
				walkDeclarations(body, source, path, &inner, decls)
				continue
			}
			*namespace = name
		case "function_definition", "method_declaration", "anonymous_function_creation_expression":
			continue
		default:
			if kind, ok := declarationKinds[child.Type()]; ok {
				if n := child.ChildByFieldName("name"); n != nil {
					*decls = append(*decls, Declaration{
						Name:      n.Content(source),
						Namespace: *namespace,
						Kind:      kind,
						Path:      path,
						Line:      int(child.StartPoint().Row) + 1,
						Source:    "treesitter",
					})
				}
				continue
			}
			ns := *namespace
			walkDeclarations(child, source, path, &ns, decls)
		}
	}
}

// IsAvailable returns whether tree-sitter extraction is compiled in.
func IsAvailable() bool {
	return true
}
