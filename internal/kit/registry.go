// Package kit keeps the table of registered packages and domains, the
// directories discovered for each, and the convention that links resource
// classes to models.
package kit

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"starterkit/internal/cache"
	"starterkit/internal/logging"
	"starterkit/internal/paths"
	"starterkit/internal/symbols"
)

// DefaultMainTag is the tag every registry entry is cached under.
const DefaultMainTag = "starter-kit"

const (
	pathsKey       = "paths"
	providersKey   = "providers"
	directoriesKey = "directories"
)

var errNotRegistered = errors.New("package location not registered")

// Options tunes discovery.
type Options struct {
	// MaxLevels bounds the downward directory search
	MaxLevels int
	// Ignore names directories never descended into
	Ignore []string
	// DomainsDir is the folder holding domains, excluded from package searches
	DomainsDir string
	// TTL expires cached tables; cache.Forever keeps them until flushed
	TTL time.Duration
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		MaxLevels:  paths.DefaultMaxLevels,
		Ignore:     []string{"vendor", "node_modules"},
		DomainsDir: DomainsDir,
	}
}

type populateFunc func(ctx context.Context, r *Registry, entry *DirectoryEntry) error

// populators fills a discovered entry according to its kind. Kinds absent
// from the table only record their path.
var populators = map[DirectoryKind]populateFunc{
	Config:       populateFiles,
	Helpers:      populateFiles,
	Routes:       populateFiles,
	Models:       populateClasses,
	Providers:    populateClasses,
	Repositories: populateClasses,
	Policies:     populateClasses,
	Observers:    populateClasses,
}

// Registry owns every PackageLocation and ProviderRecord of the process.
// The tables are mirrored into the tagged cache so other processes start
// warm.
type Registry struct {
	mu        sync.RWMutex
	cache     *cache.TaggedCache
	indexer   *symbols.Indexer
	logger    *logging.Logger
	opts      Options
	locations map[locationKey]*PackageLocation
	providers map[string]ProviderRecord
}

// New creates a registry and refreshes its tables from the cache.
func New(ctx context.Context, c *cache.TaggedCache, indexer *symbols.Indexer, logger *logging.Logger, opts Options) *Registry {
	if logger == nil {
		logger = logging.NewNop()
	}
	if c == nil {
		c = cache.New(nil, DefaultMainTag, logger)
	}
	if indexer == nil {
		indexer = symbols.NewIndexer(logger)
	}
	if opts.DomainsDir == "" {
		opts.DomainsDir = DomainsDir
	}

	r := &Registry{
		cache:     c,
		indexer:   indexer,
		logger:    logger,
		opts:      opts,
		locations: make(map[locationKey]*PackageLocation),
		providers: make(map[string]ProviderRecord),
	}
	r.load(ctx)
	return r
}

// Cache returns the tagged cache the registry persists into.
func (r *Registry) Cache() *cache.TaggedCache {
	return r.cache
}

func (r *Registry) load(ctx context.Context) {
	locs, _ := cache.Remember(ctx, r.cache, r.cache.Tags(), pathsKey, func() ([]*PackageLocation, error) {
		return []*PackageLocation{}, nil
	})
	for _, loc := range locs {
		if loc == nil {
			continue
		}
		if loc.Directories == nil {
			loc.Directories = make(map[DirectoryKind]*DirectoryEntry)
		}
		r.locations[keyOf(loc.PackageID, loc.DomainName)] = loc
	}

	recs, _ := cache.Remember(ctx, r.cache, r.cache.Tags(), providersKey, func() ([]ProviderRecord, error) {
		return []ProviderRecord{}, nil
	})
	for _, rec := range recs {
		r.providers[rec.TypeName] = rec
	}

	if len(r.locations) > 0 || len(r.providers) > 0 {
		r.logger.Debug("Restored registry from cache", map[string]interface{}{
			"locations": len(r.locations),
			"providers": len(r.providers),
		})
	}
}

// persistPaths stores the full location table. Callers hold r.mu.
func (r *Registry) persistPaths(ctx context.Context) {
	snapshot := r.sortedLocations()
	_, _ = cache.Remember(ctx, r.cache, r.cache.Tags(), pathsKey, func() ([]*PackageLocation, error) {
		return snapshot, nil
	}, cache.Rehydrate(true), cache.TTL(r.opts.TTL))
}

// persistProviders stores the full provider table. Callers hold r.mu.
func (r *Registry) persistProviders(ctx context.Context) {
	snapshot := r.sortedProviders()
	_, _ = cache.Remember(ctx, r.cache, r.cache.Tags(), providersKey, func() ([]ProviderRecord, error) {
		return snapshot, nil
	}, cache.Rehydrate(true), cache.TTL(r.opts.TTL))
}

// AddToProviders records a provider the first time its type is seen. The
// stored record and whether it was newly added are returned.
func (r *Registry) AddToProviders(ctx context.Context, rec ProviderRecord) (ProviderRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.providers[rec.TypeName]; ok {
		return existing, false
	}
	r.providers[rec.TypeName] = rec
	r.persistProviders(ctx)
	return rec, true
}

// Provider returns the record cached for a provider type.
func (r *Registry) Provider(typeName string) (ProviderRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.providers[typeName]
	return rec, ok
}

// Providers returns every provider record sorted by type name.
func (r *Registry) Providers() []ProviderRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedProviders()
}

// ProvidersFor returns the providers registered for one package and domain.
func (r *Registry) ProvidersFor(pkg, domain string) []ProviderRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []ProviderRecord
	for _, rec := range r.sortedProviders() {
		if rec.PackageID == pkg && rec.DomainName == domain {
			out = append(out, rec)
		}
	}
	return out
}

// AddToPaths discovers the directory layout under rec.PackagePath and
// registers it for (PackageID, DomainName). It returns false without
// changes when the pair is already registered.
func (r *Registry) AddToPaths(ctx context.Context, rec ProviderRecord) bool {
	key := keyOf(rec.PackageID, rec.DomainName)

	r.mu.RLock()
	_, exists := r.locations[key]
	r.mu.RUnlock()
	if exists {
		return false
	}

	loc := &PackageLocation{
		PackageID:   rec.PackageID,
		DomainName:  rec.DomainName,
		RootPath:    rec.PackagePath,
		Directories: r.discover(ctx, rec.PackagePath),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.locations[key]; exists {
		return false
	}
	r.locations[key] = loc
	r.persistPaths(ctx)

	r.logger.Debug("Registered package location", map[string]interface{}{
		"package":     rec.PackageID,
		"domain":      rec.DomainName,
		"path":        rec.PackagePath,
		"directories": len(loc.Directories),
	})
	return true
}

// discover guesses every target directory below root and populates the
// entries found.
func (r *Registry) discover(ctx context.Context, root string) map[DirectoryKind]*DirectoryEntry {
	dirs := make(map[DirectoryKind]*DirectoryEntry)
	if root == "" {
		return dirs
	}

	kinds := TargetDirectories()
	targets := make([]string, len(kinds))
	for i, k := range kinds {
		targets[i] = filepath.FromSlash(k.Target())
	}

	ignore := append([]string{r.opts.DomainsDir}, r.opts.Ignore...)
	found := paths.Guess(root, targets, paths.GuessOptions{
		MaxLevels: r.opts.MaxLevels,
		Ignore:    ignore,
	})

	for i, k := range kinds {
		p, ok := found[targets[i]]
		if !ok {
			continue
		}
		entry := &DirectoryEntry{Kind: k, Path: p}
		if fill, ok := populators[k]; ok {
			if err := fill(ctx, r, entry); err != nil {
				r.logger.Warn("Failed to populate directory", map[string]interface{}{
					"kind":  k.String(),
					"path":  p,
					"error": err.Error(),
				})
			}
		}
		dirs[k] = entry
	}
	return dirs
}

func populateClasses(ctx context.Context, r *Registry, entry *DirectoryEntry) error {
	index, err := r.indexer.IndexPath(ctx, entry.Path, entry.Kind.Suffix())
	if err != nil {
		return err
	}
	if len(index) > 0 {
		entry.Classes = index
	}
	return nil
}

// populateFiles lists every regular file under the entry, recursively and
// in lexical order. Paths are resolved through symlinks.
func populateFiles(ctx context.Context, _ *Registry, entry *DirectoryEntry) error {
	var files []FileRecord
	err := filepath.WalkDir(entry.Path, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		resolved, err := filepath.EvalSymlinks(path)
		if err != nil {
			resolved = path
		}
		name := d.Name()
		files = append(files, FileRecord{
			File: name,
			Path: resolved,
			Name: strings.TrimSuffix(name, filepath.Ext(name)),
		})
		return nil
	})
	if err != nil {
		return err
	}
	entry.Files = files
	return nil
}

// Flush clears every cached entry under the main tag and empties the
// in-memory tables, so the next registration rediscovers from disk.
func (r *Registry) Flush(ctx context.Context) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.locations = make(map[locationKey]*PackageLocation)
	r.providers = make(map[string]ProviderRecord)
	ok := r.cache.Flush(ctx)

	r.logger.Info("Flushed starter kit cache", map[string]interface{}{
		"tag":     r.cache.MainTag(),
		"flushed": ok,
	})
	return ok
}

// FlushStore clears every cached entry under the main tag but keeps the
// in-memory tables, so a boot in progress still sees the discovered layout
// while the next process rediscovers from disk.
func (r *Registry) FlushStore(ctx context.Context) bool {
	ok := r.cache.Flush(ctx)

	r.logger.Info("Flushed starter kit cache store", map[string]interface{}{
		"tag":     r.cache.MainTag(),
		"flushed": ok,
	})
	return ok
}

func (r *Registry) sortedLocations() []*PackageLocation {
	out := make([]*PackageLocation, 0, len(r.locations))
	for _, loc := range r.locations {
		out = append(out, loc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PackageID != out[j].PackageID {
			return out[i].PackageID < out[j].PackageID
		}
		return out[i].DomainName < out[j].DomainName
	})
	return out
}

func (r *Registry) sortedProviders() []ProviderRecord {
	out := make([]ProviderRecord, 0, len(r.providers))
	for _, rec := range r.providers {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TypeName < out[j].TypeName })
	return out
}
