// Package manifest locates the providers of a project, either from a
// PROVIDERS.toml declaration file or by convention.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	toml "github.com/pelletier/go-toml/v2"

	kerrors "starterkit/internal/errors"
)

// DeclarationFile is the default filename for provider declarations
const DeclarationFile = "PROVIDERS.toml"

// Declaration represents a declared provider in PROVIDERS.toml
type Declaration struct {
	// Type is the fully-qualified class name of the provider
	Type string `toml:"type"`

	// Location is the root-relative path of the file declaring the provider
	Location string `toml:"location"`

	// RoutePrefix is prepended to every route group of the provider
	RoutePrefix string `toml:"route_prefix,omitempty"`

	// PrefixRouteWithFileName appends the route file name to the prefix
	PrefixRouteWithFileName bool `toml:"prefix_route_with_file_name,omitempty"`

	// PrefixRouteWithDirectory appends the route file's directory to the prefix
	PrefixRouteWithDirectory bool `toml:"prefix_route_with_directory,omitempty"`

	APIMiddleware []string `toml:"api_middleware,omitempty"`
	WebMiddleware []string `toml:"web_middleware,omitempty"`

	// ExceptDirectories are directory kinds the provider opts out of
	ExceptDirectories []string `toml:"except_directories,omitempty"`

	// Explicit resource to model bindings, keyed by resource class or short key
	Repositories map[string]string `toml:"repositories,omitempty"`
	Policies     map[string]string `toml:"policies,omitempty"`
	Observers    map[string]string `toml:"observers,omitempty"`

	// MorphMap maps morph aliases to model classes
	MorphMap map[string]string `toml:"morph_map,omitempty"`

	// Env holds defaults published to the project's .env file
	Env map[string]interface{} `toml:"env,omitempty"`
}

// ProvidersFile represents the root structure of PROVIDERS.toml
type ProvidersFile struct {
	// Version is the schema version
	Version int `toml:"version"`

	// Providers is the list of declared providers
	Providers []Declaration `toml:"provider"`
}

// ParseProvidersFile parses a PROVIDERS.toml file from the given path
func ParseProvidersFile(filePath string) (*ProvidersFile, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(filePath), err)
	}

	var file ProvidersFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, kerrors.NewKitError(kerrors.ManifestInvalid,
			fmt.Sprintf("failed to parse %s", filepath.Base(filePath)), err, nil)
	}

	if file.Version < 1 {
		file.Version = 1
	}

	for i, decl := range file.Providers {
		if decl.Type == "" {
			return nil, kerrors.NewKitError(kerrors.ManifestInvalid,
				fmt.Sprintf("provider #%d is missing required 'type' field", i+1), nil, nil)
		}
		if decl.Location == "" {
			return nil, kerrors.NewKitError(kerrors.ManifestInvalid,
				fmt.Sprintf("provider %s is missing required 'location' field", decl.Type), nil, nil)
		}
	}

	return &file, nil
}

// LoadDeclaredProviders loads declarations from the declaration file if it
// exists. Locations are resolved against root. A missing file returns nil.
func LoadDeclaredProviders(root, declarationFile string) ([]Declaration, error) {
	if declarationFile == "" {
		declarationFile = DeclarationFile
	}

	filePath := filepath.Join(root, declarationFile)
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, nil
	}

	file, err := ParseProvidersFile(filePath)
	if err != nil {
		return nil, err
	}

	decls := file.Providers
	for i := range decls {
		if !filepath.IsAbs(decls[i].Location) {
			decls[i].Location = filepath.Join(root, filepath.FromSlash(decls[i].Location))
		}
	}
	return decls, nil
}

// WriteProvidersFile writes declarations to path, sorted by type.
func WriteProvidersFile(path string, decls []Declaration) error {
	sorted := make([]Declaration, len(decls))
	copy(sorted, decls)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Type < sorted[j].Type })

	data, err := toml.Marshal(ProvidersFile{Version: 1, Providers: sorted})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
