// Package binder wires one provider's discovered resources into the host
// application through injected collaborators, in two phases: register,
// then boot.
package binder

import (
	"encoding/json"
	"fmt"

	"starterkit/internal/kit"
	"starterkit/internal/manifest"
)

// Provider is a registration unit. Location is the file or directory that
// declares it and seeds every path search.
type Provider struct {
	TypeName string
	Location string

	// Explicit resource to model bindings, keyed by resource class or short key
	RepositoryMap map[string]string
	PolicyMap     map[string]string
	ObserverMap   map[string]string

	MorphMap map[string]string
	EnvVars  map[string]string

	RoutePrefix              string
	APIMiddleware            []string
	WebMiddleware            []string
	PrefixRouteWithFileName  bool
	PrefixRouteWithDirectory bool

	// ExceptDirectories opts the provider out of directory kinds
	ExceptDirectories []kit.DirectoryKind
}

// FromDeclaration builds a provider from a PROVIDERS.toml entry. Non-string
// env values are JSON encoded.
func FromDeclaration(d manifest.Declaration) *Provider {
	p := &Provider{
		TypeName:                 d.Type,
		Location:                 d.Location,
		RepositoryMap:            d.Repositories,
		PolicyMap:                d.Policies,
		ObserverMap:              d.Observers,
		MorphMap:                 d.MorphMap,
		RoutePrefix:              d.RoutePrefix,
		APIMiddleware:            d.APIMiddleware,
		WebMiddleware:            d.WebMiddleware,
		PrefixRouteWithFileName:  d.PrefixRouteWithFileName,
		PrefixRouteWithDirectory: d.PrefixRouteWithDirectory,
		ExceptDirectories:        kit.ParseKinds(d.ExceptDirectories),
	}

	if len(d.Env) > 0 {
		p.EnvVars = make(map[string]string, len(d.Env))
		for k, v := range d.Env {
			p.EnvVars[k] = envValue(v)
		}
	}
	return p
}

// FromDeclarations converts every declaration, preserving order.
func FromDeclarations(decls []manifest.Declaration) []*Provider {
	out := make([]*Provider, 0, len(decls))
	for _, d := range decls {
		out = append(out, FromDeclaration(d))
	}
	return out
}

func envValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(raw)
}

