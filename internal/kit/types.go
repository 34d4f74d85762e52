package kit

import (
	"sort"

	"starterkit/internal/symbols"
)

// FileRecord describes one config, helper or route file.
type FileRecord struct {
	File string `json:"file"` // basename
	Path string `json:"path"` // absolute
	Name string `json:"name"` // basename without extension
}

// DirectoryEntry is a discovered directory. Files is set for config,
// helpers and routes; Classes for models, providers and the resource kinds.
type DirectoryEntry struct {
	Kind    DirectoryKind      `json:"kind"`
	Path    string             `json:"path"`
	Files   []FileRecord       `json:"files,omitempty"`
	Classes symbols.ClassIndex `json:"classes,omitempty"`
}

// PackageLocation is the discovered layout of one package or domain.
// ("", "") is the host application.
type PackageLocation struct {
	PackageID   string                             `json:"package,omitempty"`
	DomainName  string                             `json:"domain,omitempty"`
	RootPath    string                             `json:"path"`
	Directories map[DirectoryKind]*DirectoryEntry `json:"directories"`
}

// Directory returns the entry for kind.
func (l *PackageLocation) Directory(kind DirectoryKind) (*DirectoryEntry, bool) {
	if l == nil {
		return nil, false
	}
	e, ok := l.Directories[kind]
	return e, ok
}

// ProviderRecord is the resolved identity of a registration unit.
type ProviderRecord struct {
	TypeName     string `json:"class"`
	ComposerPath string `json:"composer,omitempty"`
	PackagePath  string `json:"path,omitempty"`
	PackageID    string `json:"package,omitempty"`
	DomainName   string `json:"domain,omitempty"`
}

// ResourceMap maps a resource class (repository, policy or observer) to
// the model classes it binds to. An empty list means no binding.
type ResourceMap map[string][]string

// Resources returns the resource classes, sorted.
func (m ResourceMap) Resources() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Model returns the model bound to resource, taking the first entry of a
// list. It reports false when there is nothing to bind.
func (m ResourceMap) Model(resource string) (string, bool) {
	models := m[resource]
	if len(models) == 0 || models[0] == "" {
		return "", false
	}
	return models[0], true
}

type locationKey struct {
	pkg    string
	domain string
}

func keyOf(pkg, domain string) locationKey {
	return locationKey{pkg: pkg, domain: domain}
}
