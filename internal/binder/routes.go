package binder

import (
	"path/filepath"
	"regexp"
	"strings"

	"starterkit/internal/kit"
	"starterkit/internal/paths"
)

// RouteGroup is the configuration a route file is loaded under.
type RouteGroup struct {
	Middleware []string `json:"middleware"`
	Prefix     string   `json:"prefix,omitempty"`
	Name       string   `json:"name,omitempty"`
}

// apiRoutePattern marks a route file as API routes when it matches the
// file name.
var apiRoutePattern = regexp.MustCompile(`api.`)

// reservedRouteFiles never contribute their name to the prefix.
var reservedRouteFiles = map[string]bool{
	"api":      true,
	"web":      true,
	"console":  true,
	"channels": true,
}

var routeSlugReplacer = strings.NewReplacer(" ", "-", ".", "-", "_", "-")

// IsAPIRoute reports whether a route file belongs to the API group.
func IsAPIRoute(file string) bool {
	return apiRoutePattern.MatchString(file)
}

// RouteConfiguration builds the group for API or web routes. appendToPrefix
// segments are joined with "/" after the provider's route prefix.
func (d *PackageDomain) RouteConfiguration(isAPI bool, appendToPrefix []string) RouteGroup {
	return routeConfiguration(d.provider, d.binder.opts, isAPI, appendToPrefix)
}

func routeConfiguration(p *Provider, opts Options, isAPI bool, appendToPrefix []string) RouteGroup {
	own, defaults, group := p.WebMiddleware, opts.WebMiddleware, "web"
	if isAPI {
		own, defaults, group = p.APIMiddleware, opts.APIMiddleware, "api"
	}

	middleware := uniqueAppend(nil, own...)
	middleware = uniqueAppend(middleware, defaults...)
	middleware = uniqueAppend(middleware, group)

	var prefixes []string
	if isAPI {
		prefixes = append(prefixes, "api")
	}
	prefixes = append(prefixes, p.RoutePrefix, strings.Join(appendToPrefix, "/"))

	var kept []string
	for _, s := range prefixes {
		if s != "" {
			kept = append(kept, s)
		}
	}
	prefix := strings.Join(kept, "/")

	return RouteGroup{
		Middleware: middleware,
		Prefix:     prefix,
		Name:       routeName(prefix),
	}
}

// routeName derives the route name prefix: the group prefix without its
// leading api segment, in dot notation.
func routeName(prefix string) string {
	segments := strings.Split(strings.Trim(prefix, "/"), "/")
	if len(segments) > 0 && segments[0] == "api" {
		segments = segments[1:]
	}

	var kept []string
	for _, s := range segments {
		if s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, ".")
}

func uniqueAppend(list []string, items ...string) []string {
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		found := false
		for _, existing := range list {
			if existing == item {
				found = true
				break
			}
		}
		if !found {
			list = append(list, item)
		}
	}
	return list
}

// routePrefixSegments computes what a route file appends to its group
// prefix: its directory below routesDir and, unless reserved, a slug of
// its name.
func routePrefixSegments(p *Provider, routesDir string, file kit.FileRecord) []string {
	var segments []string

	if p.PrefixRouteWithDirectory {
		if rel, err := filepath.Rel(routesDir, filepath.Dir(file.Path)); err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
			segments = append(segments, strings.Trim(filepath.ToSlash(rel), "/"))
		}
	}

	if p.PrefixRouteWithFileName && !reservedRouteFiles[file.Name] {
		slug := routeSlugReplacer.Replace(file.Name)
		if strings.HasSuffix(slug, "api") {
			slug = strings.TrimSuffix(slug, "api")
		}
		slug = strings.TrimRight(slug, "-")
		if slug != "" {
			segments = append(segments, slug)
		}
	}
	return segments
}

// loadRoutes registers every existing route file, API files first.
func (d *PackageDomain) loadRoutes() {
	if d.collab.Routes == nil {
		return
	}
	routesDir, ok := d.existing[kit.Routes]
	if !ok {
		return
	}
	if resolved, err := filepath.EvalSymlinks(routesDir); err == nil {
		routesDir = resolved
	}

	var api, web []kit.FileRecord
	for _, f := range d.binder.kit.Routes(d.record.PackageID, d.record.DomainName) {
		if !paths.Exists(f.Path) {
			continue
		}
		if IsAPIRoute(f.File) {
			api = append(api, f)
		} else {
			web = append(web, f)
		}
	}

	for _, f := range api {
		group := d.RouteConfiguration(true, routePrefixSegments(d.provider, routesDir, f))
		d.collab.Routes.Group(group, f.Path)
	}
	for _, f := range web {
		group := d.RouteConfiguration(false, routePrefixSegments(d.provider, routesDir, f))
		d.collab.Routes.Group(group, f.Path)
	}
}
