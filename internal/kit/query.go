package kit

import (
	"context"
	"sort"

	"starterkit/internal/cache"
	kerrors "starterkit/internal/errors"
	"starterkit/internal/symbols"
)

// Location returns the layout registered for a package and domain.
func (r *Registry) Location(pkg, domain string) (*PackageLocation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	loc, ok := r.locations[keyOf(pkg, domain)]
	return loc, ok
}

// Locations returns every registered layout ordered by package, then domain.
func (r *Registry) Locations() []*PackageLocation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedLocations()
}

// Root returns the host application's layout.
func (r *Registry) Root() (*PackageLocation, bool) {
	return r.Location("", "")
}

// Packages returns the ids of registered packages, sorted.
func (r *Registry) Packages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var out []string
	for key := range r.locations {
		if key.pkg != "" && !seen[key.pkg] {
			seen[key.pkg] = true
			out = append(out, key.pkg)
		}
	}
	sort.Strings(out)
	return out
}

// Domains returns domain name to root path for the domains of pkg ("" for
// the host application).
func (r *Registry) Domains(pkg string) map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string)
	for key, loc := range r.locations {
		if key.pkg == pkg && key.domain != "" {
			out[key.domain] = loc.RootPath
		}
	}
	return out
}

// Directory returns one discovered directory of a package and domain.
func (r *Registry) Directory(pkg, domain string, kind DirectoryKind) (*DirectoryEntry, bool) {
	loc, ok := r.Location(pkg, domain)
	if !ok {
		return nil, false
	}
	return loc.Directory(kind)
}

func (r *Registry) files(pkg, domain string, kind DirectoryKind) []FileRecord {
	entry, ok := r.Directory(pkg, domain, kind)
	if !ok {
		return nil
	}
	return entry.Files
}

func (r *Registry) path(pkg, domain string, kind DirectoryKind) (string, bool) {
	entry, ok := r.Directory(pkg, domain, kind)
	if !ok {
		return "", false
	}
	return entry.Path, true
}

// Configs returns the config files of a package and domain.
func (r *Registry) Configs(pkg, domain string) []FileRecord {
	return r.files(pkg, domain, Config)
}

// Helpers returns the helper files of a package and domain.
func (r *Registry) Helpers(pkg, domain string) []FileRecord {
	return r.files(pkg, domain, Helpers)
}

// Routes returns the route files of a package and domain.
func (r *Registry) Routes(pkg, domain string) []FileRecord {
	return r.files(pkg, domain, Routes)
}

// MigrationsPath returns the migrations directory of a package and domain.
func (r *Registry) MigrationsPath(pkg, domain string) (string, bool) {
	return r.path(pkg, domain, Migrations)
}

// TranslationsPath returns the lang directory of a package and domain.
func (r *Registry) TranslationsPath(pkg, domain string) (string, bool) {
	return r.path(pkg, domain, Lang)
}

// ViewsPath returns the views directory of a package and domain.
func (r *Registry) ViewsPath(pkg, domain string) (string, bool) {
	return r.path(pkg, domain, Views)
}

// Models returns the model classes of a package and domain, grouped by
// short name.
func (r *Registry) Models(pkg, domain string) symbols.ClassIndex {
	entry, ok := r.Directory(pkg, domain, Models)
	if !ok {
		return nil
	}
	return entry.Classes
}

// ExistingDirectories returns kind to path for every directory discovered
// for a package and domain, minus except. The full table is memoized under
// the package and domain tags.
func (r *Registry) ExistingDirectories(ctx context.Context, pkg, domain string, except []DirectoryKind) map[DirectoryKind]string {
	all, err := cache.Remember(ctx, r.cache, r.cache.Tags(pkg, domain), directoriesKey, func() (map[DirectoryKind]string, error) {
		loc, ok := r.Location(pkg, domain)
		if !ok {
			return nil, errNotRegistered
		}
		out := make(map[DirectoryKind]string, len(loc.Directories))
		for kind, entry := range loc.Directories {
			out[kind] = entry.Path
		}
		return out, nil
	}, cache.TTL(r.opts.TTL))
	if err != nil {
		return map[DirectoryKind]string{}
	}

	skip := make(map[DirectoryKind]bool, len(except))
	for _, k := range except {
		skip[k] = true
	}
	out := make(map[DirectoryKind]string, len(all))
	for kind, p := range all {
		if !skip[kind] {
			out[kind] = p
		}
	}
	return out
}

// levels lists the locations consulted for model resolution, most specific
// first: the domain, its package, then the host application.
func levels(pkg, domain string) []locationKey {
	var keys []locationKey
	if domain != "" {
		keys = append(keys, keyOf(pkg, domain))
	}
	if pkg != "" {
		keys = append(keys, keyOf(pkg, ""))
	}
	return append(keys, keyOf("", ""))
}

// ResolveModelFor finds the model whose short name equals key. The first
// level with any candidate decides: one candidate is returned, several are
// ambiguous and yield nothing.
func (r *Registry) ResolveModelFor(key, pkg, domain string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolveModelFor(key, pkg, domain)
}

func (r *Registry) resolveModelFor(key, pkg, domain string) []string {
	for _, lk := range levels(pkg, domain) {
		loc, ok := r.locations[lk]
		if !ok {
			continue
		}
		entry, ok := loc.Directory(Models)
		if !ok {
			continue
		}
		candidates := entry.Classes[key]
		switch len(candidates) {
		case 0:
			continue
		case 1:
			return []string{candidates[0]}
		default:
			r.logger.Debug("Ambiguous model match", map[string]interface{}{
				"code":       kerrors.AmbiguousConventionMatch,
				"key":        key,
				"package":    lk.pkg,
				"domain":     lk.domain,
				"candidates": candidates,
			})
			return []string{}
		}
	}
	return []string{}
}

// ModelRelatedFiles maps every resource class discovered in the kind's
// directory to its model. Explicit entries, keyed by resource class, short
// class name or short key, win over convention. Resources whose short key
// collides with another resource are never matched by convention.
func (r *Registry) ModelRelatedFiles(kind DirectoryKind, pkg, domain string, explicit map[string]string) ResourceMap {
	r.mu.RLock()
	defer r.mu.RUnlock()

	loc, ok := r.locations[keyOf(pkg, domain)]
	if !ok {
		return nil
	}
	entry, ok := loc.Directory(kind)
	if !ok || len(entry.Classes) == 0 {
		return nil
	}

	out := make(ResourceMap)
	for _, key := range entry.Classes.Keys() {
		resources := entry.Classes[key]
		for _, resource := range resources {
			if model, ok := explicitModel(explicit, resource, key, len(resources) == 1); ok {
				out[resource] = []string{model}
				continue
			}
			if len(resources) > 1 {
				r.logger.Debug("Ambiguous resource key", map[string]interface{}{
					"code":      kerrors.AmbiguousConventionMatch,
					"kind":      kind.String(),
					"key":       key,
					"resources": resources,
				})
				out[resource] = []string{}
				continue
			}
			out[resource] = r.resolveModelFor(key, pkg, domain)
		}
	}
	return out
}

func explicitModel(explicit map[string]string, resource, key string, uniqueKey bool) (string, bool) {
	if len(explicit) == 0 {
		return "", false
	}
	if m, ok := explicit[resource]; ok && m != "" {
		return m, true
	}
	if m, ok := explicit[symbols.ShortName(resource)]; ok && m != "" {
		return m, true
	}
	if uniqueKey {
		if m, ok := explicit[key]; ok && m != "" {
			return m, true
		}
	}
	return "", false
}

// Repositories returns the repository to model map of a package and domain.
func (r *Registry) Repositories(pkg, domain string, explicit map[string]string) ResourceMap {
	return r.ModelRelatedFiles(Repositories, pkg, domain, explicit)
}

// Policies returns the policy to model map of a package and domain.
func (r *Registry) Policies(pkg, domain string, explicit map[string]string) ResourceMap {
	return r.ModelRelatedFiles(Policies, pkg, domain, explicit)
}

// Observers returns the observer to model map of a package and domain.
func (r *Registry) Observers(pkg, domain string, explicit map[string]string) ResourceMap {
	return r.ModelRelatedFiles(Observers, pkg, domain, explicit)
}
