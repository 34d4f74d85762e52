package binder

import (
	"context"
	"strings"
	"sync"

	"starterkit/internal/config"
	kerrors "starterkit/internal/errors"
	"starterkit/internal/kit"
	"starterkit/internal/logging"
	"starterkit/internal/paths"
)

// Options configures every PackageDomain created by a Binder.
type Options struct {
	Features config.FeaturesConfig
	Identify IdentifyOptions

	// Middleware added to every API or web route group
	APIMiddleware []string
	WebMiddleware []string

	// PublishEnv appends provider env defaults to the environment file
	PublishEnv bool
	// RoutesCached skips route loading, as when the host caches routes
	RoutesCached bool
}

// OptionsFromConfig maps the project configuration onto binder options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Features: cfg.Features,
		Identify: IdentifyOptions{
			DomainsDir:   cfg.Discovery.DomainsDir,
			RootPackages: cfg.Discovery.RootPackages,
			MaxLevels:    cfg.Discovery.MaxLevels,
		},
		APIMiddleware: cfg.Routes.APIMiddleware,
		WebMiddleware: cfg.Routes.WebMiddleware,
		PublishEnv:    cfg.Env.Publish,
	}
}

// Binder holds what every provider of a process shares: the registry, the
// host collaborators and the set of helper files already loaded.
type Binder struct {
	kit    *kit.Registry
	collab Collaborators
	opts   Options
	logger *logging.Logger

	mu      sync.Mutex
	helpers map[string]bool
}

// New creates a binder.
func New(registry *kit.Registry, collab Collaborators, opts Options, logger *logging.Logger) *Binder {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Binder{
		kit:     registry,
		collab:  collab,
		opts:    opts,
		logger:  logger,
		helpers: make(map[string]bool),
	}
}

// Domain wraps one provider.
func (b *Binder) Domain(p *Provider) *PackageDomain {
	return &PackageDomain{
		binder:   b,
		provider: p,
		collab:   b.collab,
		logger:   b.logger.With(map[string]interface{}{"provider": p.TypeName}),
	}
}

// Domains wraps every provider, preserving order.
func (b *Binder) Domains(providers []*Provider) []*PackageDomain {
	out := make([]*PackageDomain, 0, len(providers))
	for _, p := range providers {
		out = append(out, b.Domain(p))
	}
	return out
}

// PackageDomain runs the register and boot phases for one provider.
type PackageDomain struct {
	binder   *Binder
	provider *Provider
	collab   Collaborators
	logger   *logging.Logger

	registered bool
	record     kit.ProviderRecord
	existing   map[kit.DirectoryKind]string
}

// Provider returns the wrapped provider.
func (d *PackageDomain) Provider() *Provider {
	return d.provider
}

// Record returns the resolved identity, valid after Register.
func (d *PackageDomain) Record() kit.ProviderRecord {
	return d.record
}

// ExistingDirectories returns the directories taking part in this
// provider's phases, valid after Register.
func (d *PackageDomain) ExistingDirectories() map[kit.DirectoryKind]string {
	return d.existing
}

// excluded returns the kinds disabled by feature flags or the provider's
// except list.
func (d *PackageDomain) excluded() []kit.DirectoryKind {
	f := d.binder.opts.Features
	except := append([]kit.DirectoryKind(nil), d.provider.ExceptDirectories...)
	gates := []struct {
		on   bool
		kind kit.DirectoryKind
	}{
		{f.Routes, kit.Routes},
		{f.Repositories, kit.Repositories},
		{f.Policies, kit.Policies},
		{f.Observers, kit.Observers},
		{f.Migrations, kit.Migrations},
		{f.Configs, kit.Config},
		{f.Translations, kit.Lang},
		{f.Helpers, kit.Helpers},
	}
	for _, g := range gates {
		if !g.on {
			except = append(except, g.kind)
		}
	}
	return except
}

// Register identifies the provider, registers its location and loads its
// translations, configs and helpers.
func (d *PackageDomain) Register(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	k := d.binder.kit

	rec, ok := k.Provider(d.provider.TypeName)
	if !ok {
		rec = Identify(d.provider, d.binder.opts.Identify, d.logger)
		var added bool
		rec, added = k.AddToProviders(ctx, rec)
		if added && d.binder.opts.PublishEnv {
			d.publishEnv(rec)
		}
	}
	d.record = rec

	k.AddToPaths(ctx, rec)
	d.existing = k.ExistingDirectories(ctx, rec.PackageID, rec.DomainName, d.excluded())
	d.registered = true

	d.loadTranslations()
	d.loadConfigs()
	d.loadHelpers()
	return nil
}

// Boot wires morph map, migrations, routes, observers, policies and
// repositories. Rejected bindings flush the cache and boot carries on.
func (d *PackageDomain) Boot(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !d.registered {
		d.logger.Warn("Boot called before Register, skipping", nil)
		return nil
	}

	d.loadMorphMap()
	d.loadMigrations()
	if !d.binder.opts.RoutesCached {
		d.loadRoutes()
	}

	d.loadBindings(ctx, kit.Observers, d.provider.ObserverMap, func(model, resource string) error {
		if d.collab.Observers == nil {
			return nil
		}
		return d.collab.Observers.Observe(model, resource)
	})
	d.loadBindings(ctx, kit.Policies, d.provider.PolicyMap, func(model, resource string) error {
		if d.collab.Policies == nil {
			return nil
		}
		return d.collab.Policies.Policy(model, resource)
	})
	d.loadBindings(ctx, kit.Repositories, d.provider.RepositoryMap, func(model, resource string) error {
		if d.collab.Repositories == nil {
			return nil
		}
		return d.collab.Repositories.BindRepository(resource, model)
	})
	return nil
}

func (d *PackageDomain) publishEnv(rec kit.ProviderRecord) {
	if d.collab.Env == nil || len(d.provider.EnvVars) == 0 {
		return
	}
	title := rec.PackageID
	if title == "" {
		title = "Laravel"
	}
	if rec.DomainName != "" {
		title += " (" + rec.DomainName + ")"
	}
	if _, err := d.collab.Env.Publish(title, d.provider.EnvVars); err != nil {
		d.logger.Warn("Failed to publish env vars", map[string]interface{}{
			"title": title,
			"error": err.Error(),
		})
	}
}

func (d *PackageDomain) translationNamespace() string {
	var parts []string
	if pkg := d.record.PackageID; pkg != "" {
		parts = append(parts, pkg[strings.LastIndex(pkg, "/")+1:])
	}
	if d.record.DomainName != "" {
		parts = append(parts, d.record.DomainName)
	}
	return strings.ToLower(strings.Join(parts, "."))
}

func (d *PackageDomain) loadTranslations() {
	p, ok := d.existing[kit.Lang]
	if !ok || d.collab.Translations == nil {
		return
	}
	d.collab.Translations.AddTranslations(d.translationNamespace(), p)
}

// loadConfigs merges every config file into the live store under its file
// name. Existing values win. Nothing is merged when the store was restored
// from a configuration cache.
func (d *PackageDomain) loadConfigs() {
	if _, ok := d.existing[kit.Config]; !ok {
		return
	}
	if d.collab.Config == nil || d.collab.ConfigLoader == nil || d.collab.Config.IsCached() {
		return
	}

	for _, f := range d.binder.kit.Configs(d.record.PackageID, d.record.DomainName) {
		if !paths.Exists(f.Path) {
			continue
		}
		values, err := d.collab.ConfigLoader.LoadConfig(f.Path)
		if err != nil {
			d.logger.Debug("Skipping config file", map[string]interface{}{
				"path":  f.Path,
				"error": err.Error(),
			})
			continue
		}
		d.collab.Config.MergeDefaults(f.Name, values)
	}
}

// loadHelpers loads each helper file once per process.
func (d *PackageDomain) loadHelpers() {
	if _, ok := d.existing[kit.Helpers]; !ok || d.collab.Helpers == nil {
		return
	}

	for _, f := range d.binder.kit.Helpers(d.record.PackageID, d.record.DomainName) {
		if !paths.Exists(f.Path) || !d.binder.claimHelper(f.Path) {
			continue
		}
		if err := d.collab.Helpers.LoadHelper(f.Path); err != nil {
			d.logger.Warn("Failed to load helper", map[string]interface{}{
				"path":  f.Path,
				"error": err.Error(),
			})
		}
	}
}

func (b *Binder) claimHelper(path string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.helpers[path] {
		return false
	}
	b.helpers[path] = true
	return true
}

func (d *PackageDomain) loadMorphMap() {
	if !d.binder.opts.Features.MorphMap || d.collab.MorphMap == nil || len(d.provider.MorphMap) == 0 {
		return
	}
	d.collab.MorphMap.EnforceMorphMap(d.provider.MorphMap)
}

func (d *PackageDomain) loadMigrations() {
	p, ok := d.existing[kit.Migrations]
	if !ok || d.collab.Migrations == nil || !paths.Exists(p) {
		return
	}
	d.collab.Migrations.AddMigrationPath(p)
}

// loadBindings binds every resource of kind to its model. Unresolved or
// ambiguous resources are skipped. A failing bind flushes the cache store so
// the next boot rediscovers from disk; the remaining bindings still run.
func (d *PackageDomain) loadBindings(ctx context.Context, kind kit.DirectoryKind, explicit map[string]string, bind func(model, resource string) error) {
	if _, ok := d.existing[kind]; !ok {
		return
	}

	resources := d.binder.kit.ModelRelatedFiles(kind, d.record.PackageID, d.record.DomainName, explicit)
	for _, resource := range resources.Resources() {
		model, ok := resources.Model(resource)
		if !ok {
			d.logger.Debug("No model for resource, skipping", map[string]interface{}{
				"kind":     kind.String(),
				"resource": resource,
			})
			continue
		}
		if err := bind(model, resource); err != nil {
			d.logger.Warn("Binding failed, flushing cache", map[string]interface{}{
				"code":     kerrors.StaleBinding,
				"kind":     kind.String(),
				"resource": resource,
				"model":    model,
				"error":    err.Error(),
			})
			d.binder.kit.FlushStore(ctx)
		}
	}
}

// Bootstrap registers every domain, then boots every domain, so model
// resolution sees the layout of all providers.
func Bootstrap(ctx context.Context, domains ...*PackageDomain) error {
	for _, d := range domains {
		if err := d.Register(ctx); err != nil {
			return err
		}
	}
	for _, d := range domains {
		if err := d.Boot(ctx); err != nil {
			return err
		}
	}
	return nil
}
