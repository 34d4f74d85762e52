//go:build !cgo

package symbols

import (
	"context"
	"os"
)

// Extractor extracts class-like declarations from PHP files.
// Without cgo only the lexical scanner is available.
type Extractor struct{}

// NewExtractor creates a new declaration extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
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
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return scanDeclarations(path, source), nil
}

// IsAvailable returns whether tree-sitter extraction is compiled in.
func IsAvailable() bool {
	return false
}
