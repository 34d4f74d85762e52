// Package settings is the live configuration store that package config
// files are merged into during registration.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Store is a key-value configuration repository backed by viper. Keys are
// case-insensitive and dot-separated.
type Store struct {
	mu     sync.RWMutex
	v      *viper.Viper
	cached bool
}

// New returns an empty store.
func New() *Store {
	return &Store{v: viper.New()}
}

// Get returns the value at key, or def when unset.
func (s *Store) Get(key string, def interface{}) interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.v.IsSet(key) {
		return def
	}
	return s.v.Get(key)
}

// GetMap returns the map stored at key, or an empty map.
func (s *Store) GetMap(key string) map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.v.IsSet(key) {
		return map[string]interface{}{}
	}
	return s.v.GetStringMap(key)
}

// Set stores value at key.
func (s *Store) Set(key string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.v.Set(key, value)
}

// Has reports whether key is set.
func (s *Store) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v.IsSet(key)
}

// Keys returns all top-level keys, sorted.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.v.AllSettings()
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// All returns every setting as nested maps.
func (s *Store) All() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v.AllSettings()
}

// MarkCached flags the store as restored from a configuration cache, in
// which case package config files are not merged.
func (s *Store) MarkCached(cached bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached = cached
}

// IsCached reports whether the configuration came from a cache.
func (s *Store) IsCached() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cached
}

// MergeDefaults sets key to defaults overlaid by whatever is already stored,
// so existing values win on conflicts. Only top-level keys are merged.
func (s *Store) MergeDefaults(key string, defaults map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := make(map[string]interface{}, len(defaults))
	for k, v := range defaults {
		merged[strings.ToLower(k)] = v
	}
	if s.v.IsSet(key) {
		for k, v := range s.v.GetStringMap(key) {
			merged[k] = v
		}
	}
	s.v.Set(key, merged)
}

// LoadFile decodes a package config file into a map. The format follows
// the extension: .json, .yaml/.yml or .toml.
func LoadFile(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	out := map[string]interface{}{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &out)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &out)
	case ".toml":
		err = toml.Unmarshal(data, &out)
	default:
		return nil, fmt.Errorf("unsupported config format: %s", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return out, nil
}

// Supported reports whether LoadFile can decode path.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml", ".toml":
		return true
	}
	return false
}
