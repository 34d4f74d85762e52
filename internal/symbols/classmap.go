package symbols

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	kerrors "starterkit/internal/errors"
	"starterkit/internal/logging"
)

// Indexer maps directories to the classes declared beneath them.
type Indexer struct {
	extractor *Extractor
	logger    *logging.Logger
}

// NewIndexer creates an indexer. A nil logger discards output.
func NewIndexer(logger *logging.Logger) *Indexer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Indexer{
		extractor: NewExtractor(),
		logger:    logger,
	}
}

// BuildClassMap returns fully-qualified class name to source file for every
// declaration under dir. Files are visited in lexical order; a class declared
// twice keeps its last file.
func (ix *Indexer) BuildClassMap(ctx context.Context, dir string) (map[string]string, error) {
	decls, err := ix.declarations(ctx, dir)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(decls))
	for _, d := range decls {
		out[d.FQCN()] = d.Path
	}
	return out, nil
}

// ClassesInPath returns short key to fully-qualified name for classes under
// dir. suffix is trimmed from each short name and empty keys are dropped.
// Colliding keys are overwritten in scan order.
func (ix *Indexer) ClassesInPath(ctx context.Context, dir, suffix string) (map[string]string, error) {
	decls, err := ix.declarations(ctx, dir)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(decls))
	for _, d := range decls {
		key := ShortKey(d.FQCN(), suffix)
		if key == "" {
			continue
		}
		out[key] = d.FQCN()
	}
	return out, nil
}

// IndexPath is ClassesInPath keeping every class per key so collisions stay
// visible.
func (ix *Indexer) IndexPath(ctx context.Context, dir, suffix string) (ClassIndex, error) {
	decls, err := ix.declarations(ctx, dir)
	if err != nil {
		return nil, err
	}
	index := make(ClassIndex, len(decls))
	for _, d := range decls {
		key := ShortKey(d.FQCN(), suffix)
		if key == "" {
			continue
		}
		index.Add(key, d.FQCN())
	}
	if amb := index.Ambiguous(); len(amb) > 0 {
		ix.logger.Debug("Colliding class keys", map[string]interface{}{
			"dir":  dir,
			"keys": amb,
		})
	}
	return index, nil
}

// declarations walks dir and extracts declarations from every source file.
// Unreadable or unparsable files are skipped.
func (ix *Indexer) declarations(ctx context.Context, dir string) ([]Declaration, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, kerrors.NewKitError(kerrors.DirectoryNotFound, "directory not found: "+dir, err, nil)
	}

	var decls []Declaration
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsSourceFile(path) {
			return nil
		}

		found, err := ix.extractor.ExtractFile(ctx, path)
		if err != nil {
			ix.logger.Debug("Skipping unreadable source", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
			return nil
		}
		decls = append(decls, found...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return decls, nil
}
