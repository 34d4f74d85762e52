package kit

import (
	"fmt"
	"strings"

	"github.com/go-openapi/inflect"
)

// DirectoryKind identifies one of the conventional directories discovered
// for every package and domain.
type DirectoryKind int

const (
	Config DirectoryKind = iota
	Migrations
	Helpers
	Lang
	Views
	Tests
	Routes
	Models
	Providers
	Repositories
	Policies
	Observers
)

// DomainsDir is the default folder holding a package's domains.
const DomainsDir = "domains"

var kindTargets = [...]string{
	Config:       "config",
	Migrations:   "database/migrations",
	Helpers:      "helpers",
	Lang:         "lang",
	Views:        "resources/views",
	Tests:        "tests",
	Routes:       "routes",
	Models:       "Models",
	Providers:    "Providers",
	Repositories: "Repositories",
	Policies:     "Policies",
	Observers:    "Observers",
}

var kindNames = [...]string{
	Config:       "config",
	Migrations:   "migrations",
	Helpers:      "helpers",
	Lang:         "lang",
	Views:        "views",
	Tests:        "tests",
	Routes:       "routes",
	Models:       "models",
	Providers:    "providers",
	Repositories: "repositories",
	Policies:     "policies",
	Observers:    "observers",
}

// TargetDirectories returns every kind in discovery order.
func TargetDirectories() []DirectoryKind {
	kinds := make([]DirectoryKind, len(kindTargets))
	for i := range kindTargets {
		kinds[i] = DirectoryKind(i)
	}
	return kinds
}

// Valid reports whether k is a known kind.
func (k DirectoryKind) Valid() bool {
	return k >= 0 && int(k) < len(kindTargets)
}

// Target returns the directory searched for, relative to a package root.
func (k DirectoryKind) Target() string {
	if !k.Valid() {
		return ""
	}
	return kindTargets[k]
}

// String returns the lowercase kind name.
func (k DirectoryKind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("DirectoryKind(%d)", int(k))
	}
	return kindNames[k]
}

// Suffix returns the class-name suffix stripped when indexing the kind:
// the singular of the directory name for Repositories, Policies and
// Observers, empty otherwise.
func (k DirectoryKind) Suffix() string {
	switch k {
	case Repositories, Policies, Observers:
		return inflect.Camelize(inflect.Singularize(k.Target()))
	}
	return ""
}

// ParseKind accepts a kind name or its target directory, case-insensitively.
func ParseKind(s string) (DirectoryKind, bool) {
	s = strings.TrimSpace(s)
	for i := range kindTargets {
		if strings.EqualFold(s, kindNames[i]) || strings.EqualFold(s, kindTargets[i]) {
			return DirectoryKind(i), true
		}
	}
	return 0, false
}

// ParseKinds parses a list, silently skipping unknown names.
func ParseKinds(names []string) []DirectoryKind {
	var kinds []DirectoryKind
	for _, name := range names {
		if k, ok := ParseKind(name); ok {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// MarshalText encodes the kind as its target directory so cached tables
// read naturally.
func (k DirectoryKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid directory kind %d", int(k))
	}
	return []byte(k.Target()), nil
}

// UnmarshalText decodes a kind name or target directory.
func (k *DirectoryKind) UnmarshalText(text []byte) error {
	parsed, ok := ParseKind(string(text))
	if !ok {
		return fmt.Errorf("unknown directory kind %q", string(text))
	}
	*k = parsed
	return nil
}
