package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"starterkit/internal/binder"
	"starterkit/internal/cache"
	"starterkit/internal/config"
	"starterkit/internal/kit"
	"starterkit/internal/logging"
	"starterkit/internal/manifest"
	"starterkit/internal/storage"
	"starterkit/internal/symbols"
)

// kitEnv is everything a command needs to work on one project.
type kitEnv struct {
	root     string
	cfg      *config.Config
	logger   *logging.Logger
	indexer  *symbols.Indexer
	store    cache.Store
	cache    *cache.TaggedCache
	registry *kit.Registry
	closers  []func() error
}

// openKit loads the project configuration and opens the cache store and
// registry it selects.
func openKit(ctx context.Context, root, format string) (*kitEnv, error) {
	cfg, err := config.LoadConfig(root)
	if err != nil {
		newLogger(config.DefaultConfig(), format).Warn("Failed to load config, using defaults", map[string]interface{}{
			"error": err.Error(),
		})
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := newLogger(cfg, format)
	env := &kitEnv{
		root:    root,
		cfg:     cfg,
		logger:  logger,
		indexer: symbols.NewIndexer(logger),
	}

	store, closer, err := newStore(cfg, root, logger)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		env.closers = append(env.closers, closer)
	}
	env.store = store
	env.cache = cache.New(store, cfg.MainTag, logger)
	env.registry = kit.New(ctx, env.cache, env.indexer, logger, kitOptions(cfg))
	return env, nil
}

// Close releases the cache store.
func (e *kitEnv) Close() {
	for _, closeFn := range e.closers {
		if err := closeFn(); err != nil {
			e.logger.Warn("Failed to close cache store", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
	e.closers = nil
}

func kitOptions(cfg *config.Config) kit.Options {
	return kit.Options{
		MaxLevels:  cfg.Discovery.MaxLevels,
		Ignore:     cfg.Discovery.Ignore,
		DomainsDir: cfg.Discovery.DomainsDir,
		TTL:        time.Duration(cfg.Cache.TTLSeconds) * time.Second,
	}
}

// newStore builds the configured cache store. The returned closer may be
// nil.
func newStore(cfg *config.Config, root string, logger *logging.Logger) (cache.Store, func() error, error) {
	switch cfg.Cache.Driver {
	case "sqlite":
		path := config.ResolvePath(root, cfg.Cache.Path)
		if path == "" {
			path = storage.DefaultPath(root)
		}
		db, err := storage.Open(path, logger)
		if err != nil {
			return nil, nil, err
		}
		store, err := storage.NewCacheStore(db, cfg.Cache.CompressThresholdBytes, logger)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		closeAll := func() error {
			if err := store.Close(); err != nil {
				db.Close()
				return err
			}
			return db.Close()
		}
		return store, closeAll, nil
	case "memory":
		return cache.NewMemoryStore(time.Minute), nil, nil
	case "lru":
		store, err := cache.NewLRUStore(cfg.Cache.LRUSize)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	case "none":
		return nil, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache driver %q", cfg.Cache.Driver)
	}
}

// declarations returns the providers declared in the providers file, or
// discovered by convention when the project has none.
func (e *kitEnv) declarations(ctx context.Context) ([]manifest.Declaration, error) {
	decls, err := manifest.LoadDeclaredProviders(e.root, e.cfg.Discovery.ProvidersFile)
	if err != nil {
		return nil, err
	}
	if decls != nil {
		return decls, nil
	}

	e.logger.Debug("No providers file, discovering by convention", map[string]interface{}{
		"file": e.cfg.Discovery.ProvidersFile,
	})
	return manifest.NewScanner(e.indexer, e.cfg.Discovery.Ignore, e.logger).Discover(ctx, e.root)
}

// providers returns the project's providers ready for binding.
func (e *kitEnv) providers(ctx context.Context) ([]*binder.Provider, error) {
	decls, err := e.declarations(ctx)
	if err != nil {
		return nil, err
	}
	return binder.FromDeclarations(decls), nil
}

// register runs the register phase of every provider without host
// collaborators, filling the registry.
func (e *kitEnv) register(ctx context.Context) ([]*binder.PackageDomain, error) {
	providers, err := e.providers(ctx)
	if err != nil {
		return nil, err
	}
	b := binder.New(e.registry, binder.Collaborators{}, binder.OptionsFromConfig(e.cfg), e.logger)
	domains := b.Domains(providers)
	for _, d := range domains {
		if err := d.Register(ctx); err != nil {
			return nil, err
		}
	}
	return domains, nil
}

// newLogger creates a logger from the configuration. JSON output switches
// logs to JSON as well.
func newLogger(cfg *config.Config, format string) *logging.Logger {
	logFormat := logging.Format(cfg.Logging.Format)
	if format == "json" {
		logFormat = logging.JSONFormat
	}
	if logFormat != logging.JSONFormat {
		logFormat = logging.HumanFormat
	}

	level := logging.ParseLevel(cfg.Logging.Level)
	if verboseFlag {
		level = logging.DebugLevel
	}
	return logging.NewLogger(logging.Config{
		Format: logFormat,
		Level:  level,
	})
}

// getRoot returns the absolute project root.
func getRoot() (string, error) {
	root := rootFlag
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		root = wd
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	return abs, nil
}

// mustGetRoot returns the project root or exits on error.
func mustGetRoot() string {
	root, err := getRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return root
}

// mustOpenKit opens the project or exits on error.
func mustOpenKit(ctx context.Context, root, format string) *kitEnv {
	env, err := openKit(ctx, root, format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing starter kit: %v\n", err)
		os.Exit(1)
	}
	return env
}

// newContext creates a new context for command execution.
func newContext() context.Context {
	return context.Background()
}
