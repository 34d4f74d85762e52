package manifest

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"starterkit/internal/logging"
	"starterkit/internal/symbols"
)

// ProviderSuffix marks classes picked up by convention discovery.
const ProviderSuffix = "ServiceProvider"

// ProvidersDir is the directory name scanned for providers.
const ProvidersDir = "Providers"

// Scanner discovers providers by convention: every class ending in
// ServiceProvider declared under a Providers directory.
type Scanner struct {
	indexer *symbols.Indexer
	ignore  map[string]bool
	logger  *logging.Logger
}

// NewScanner creates a scanner. ignore names directories never descended
// into, in addition to dot directories.
func NewScanner(indexer *symbols.Indexer, ignore []string, logger *logging.Logger) *Scanner {
	if logger == nil {
		logger = logging.NewNop()
	}
	skip := make(map[string]bool, len(ignore))
	for _, name := range ignore {
		skip[name] = true
	}
	return &Scanner{indexer: indexer, ignore: skip, logger: logger}
}

// Discover walks root and returns declarations sorted by type. Only Type
// and Location are filled in.
func (s *Scanner) Discover(ctx context.Context, root string) ([]Declaration, error) {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != root && (strings.HasPrefix(name, ".") || s.ignore[name]) {
			return filepath.SkipDir
		}
		if name == ProvidersDir {
			dirs = append(dirs, path)
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var decls []Declaration
	for _, dir := range dirs {
		classes, err := s.indexer.BuildClassMap(ctx, dir)
		if err != nil {
			s.logger.Debug("Skipping providers directory", map[string]interface{}{
				"dir":   dir,
				"error": err.Error(),
			})
			continue
		}
		for fqcn, file := range classes {
			if !strings.HasSuffix(fqcn, ProviderSuffix) || seen[fqcn] {
				continue
			}
			seen[fqcn] = true
			decls = append(decls, Declaration{Type: fqcn, Location: file})
		}
	}

	sort.Slice(decls, func(i, j int) bool { return decls[i].Type < decls[j].Type })

	s.logger.Debug("Discovered providers by convention", map[string]interface{}{
		"root":  root,
		"count": len(decls),
	})
	return decls, nil
}
