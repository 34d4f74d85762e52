// Package symbols finds the PHP types declared under a directory and derives
// the short keys used for convention matching.
package symbols

import (
	"path/filepath"
	"sort"
	"strings"
)

// Declaration is a class-like type found in a source file.
type Declaration struct {
	Name      string `json:"name"`
	Namespace string `json:"namespace,omitempty"`
	Kind      string `json:"kind"` // "class", "interface", "trait", "enum"
	Path      string `json:"path"`
	Line      int    `json:"line"`
	Source    string `json:"source"` // "treesitter" or "lexer"
}

// FQCN returns the fully-qualified name of the declaration.
func (d Declaration) FQCN() string {
	if d.Namespace == "" {
		return d.Name
	}
	return d.Namespace + `\` + d.Name
}

// ClassIndex groups fully-qualified names by short key. A key with more than
// one entry is an ambiguous convention match.
type ClassIndex map[string][]string

// Add records fqcn under key, keeping the slice sorted and unique.
func (ci ClassIndex) Add(key, fqcn string) {
	list := ci[key]
	i := sort.SearchStrings(list, fqcn)
	if i < len(list) && list[i] == fqcn {
		return
	}
	list = append(list, "")
	copy(list[i+1:], list[i:])
	list[i] = fqcn
	ci[key] = list
}

// Unique returns the single class for key, or false when it is missing or
// ambiguous.
func (ci ClassIndex) Unique(key string) (string, bool) {
	list := ci[key]
	if len(list) != 1 {
		return "", false
	}
	return list[0], true
}

// Ambiguous returns the keys that map to more than one class, sorted.
func (ci ClassIndex) Ambiguous() []string {
	var keys []string
	for k, list := range ci {
		if len(list) > 1 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Keys returns all short keys, sorted.
func (ci ClassIndex) Keys() []string {
	keys := make([]string, 0, len(ci))
	for k := range ci {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Flat collapses the index to one class per key. The lexically last class
// wins, mirroring a last-write-wins scan.
func (ci ClassIndex) Flat() map[string]string {
	out := make(map[string]string, len(ci))
	for k, list := range ci {
		if len(list) > 0 {
			out[k] = list[len(list)-1]
		}
	}
	return out
}

// ShortName returns the final namespace segment of fqcn.
func ShortName(fqcn string) string {
	fqcn = strings.TrimRight(fqcn, `\`)
	if i := strings.LastIndex(fqcn, `\`); i >= 0 {
		return fqcn[i+1:]
	}
	return fqcn
}

// ShortKey derives the convention key of fqcn: its short name with suffix
// removed from the end. An empty result means the class has no usable key.
func ShortKey(fqcn, suffix string) string {
	name := ShortName(fqcn)
	if suffix == "" {
		return name
	}
	return strings.TrimSuffix(name, suffix)
}

// sourceExtensions lists the file extensions scanned for declarations.
var sourceExtensions = map[string]bool{
	".php": true,
	".inc": true,
	".hh":  true,
}

// IsSourceFile reports whether path has a scanned extension.
func IsSourceFile(path string) bool {
	return sourceExtensions[strings.ToLower(filepath.Ext(path))]
}

// skippedDirs are never descended into while indexing.
var skippedDirs = map[string]bool{
	"vendor":       true,
	"node_modules": true,
}

func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || skippedDirs[name]
}
