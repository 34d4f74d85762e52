package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Dir is the per-project configuration directory.
const Dir = ".starterkit"

// EnvPrefix prefixes environment overrides, e.g. SK_FEATURES_ROUTES=true.
const EnvPrefix = "SK"

// Config represents the complete starter kit configuration
type Config struct {
	Version int    `json:"version" mapstructure:"version"`
	MainTag string `json:"mainTag" mapstructure:"mainTag"`

	Features  FeaturesConfig  `json:"features" mapstructure:"features"`
	Routes    RoutesConfig    `json:"routes" mapstructure:"routes"`
	Discovery DiscoveryConfig `json:"discovery" mapstructure:"discovery"`
	Cache     CacheConfig     `json:"cache" mapstructure:"cache"`
	Env       EnvConfig       `json:"env" mapstructure:"env"`
	GitHooks  GitHooksConfig  `json:"gitHooks" mapstructure:"gitHooks"`
	Watch     WatchConfig     `json:"watch" mapstructure:"watch"`
	Logging   LoggingConfig   `json:"logging" mapstructure:"logging"`
}

// FeaturesConfig gates which directory kinds take part in register and boot
type FeaturesConfig struct {
	Routes       bool `json:"routes" mapstructure:"routes"`
	Repositories bool `json:"repositories" mapstructure:"repositories"`
	Policies     bool `json:"policies" mapstructure:"policies"`
	Observers    bool `json:"observers" mapstructure:"observers"`
	Migrations   bool `json:"migrations" mapstructure:"migrations"`
	Configs      bool `json:"configs" mapstructure:"configs"`
	Translations bool `json:"translations" mapstructure:"translations"`
	Helpers      bool `json:"helpers" mapstructure:"helpers"`
	MorphMap     bool `json:"morphMap" mapstructure:"morphMap"`
}

// RoutesConfig holds the middleware added to every route group
type RoutesConfig struct {
	APIMiddleware []string `json:"apiMiddleware" mapstructure:"apiMiddleware"`
	WebMiddleware []string `json:"webMiddleware" mapstructure:"webMiddleware"`
}

// DiscoveryConfig tunes filesystem discovery
type DiscoveryConfig struct {
	MaxLevels     int      `json:"maxLevels" mapstructure:"maxLevels"`
	Ignore        []string `json:"ignore" mapstructure:"ignore"`
	RootPackages  []string `json:"rootPackages" mapstructure:"rootPackages"`
	ManifestName  string   `json:"manifestName" mapstructure:"manifestName"`
	DomainsDir    string   `json:"domainsDir" mapstructure:"domainsDir"`
	ProvidersFile string   `json:"providersFile" mapstructure:"providersFile"`
}

// CacheConfig selects and tunes the cache store
type CacheConfig struct {
	Driver                 string `json:"driver" mapstructure:"driver"` // sqlite, memory, lru, none
	Path                   string `json:"path" mapstructure:"path"`
	TTLSeconds             int    `json:"ttlSeconds" mapstructure:"ttlSeconds"`
	CompressThresholdBytes int    `json:"compressThresholdBytes" mapstructure:"compressThresholdBytes"`
	LRUSize                int    `json:"lruSize" mapstructure:"lruSize"`
}

// EnvConfig controls publishing provider env defaults
type EnvConfig struct {
	Publish bool   `json:"publish" mapstructure:"publish"`
	Path    string `json:"path" mapstructure:"path"`
}

// GitHooksConfig locates the hook script definitions
type GitHooksConfig struct {
	File string `json:"file" mapstructure:"file"`
}

// WatchConfig tunes the watch command
type WatchConfig struct {
	DebounceMs int `json:"debounceMs" mapstructure:"debounceMs"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// Valid cache drivers.
var cacheDrivers = map[string]bool{
	"sqlite": true,
	"memory": true,
	"lru":    true,
	"none":   true,
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		MainTag: "starter-kit",
		Features: FeaturesConfig{
			Routes:       false,
			Repositories: true,
			Policies:     true,
			Observers:    true,
			Migrations:   true,
			Configs:      true,
			Translations: true,
			Helpers:      true,
			MorphMap:     false,
		},
		Routes: RoutesConfig{
			APIMiddleware: []string{},
			WebMiddleware: []string{},
		},
		Discovery: DiscoveryConfig{
			MaxLevels:     3,
			Ignore:        []string{"vendor", "node_modules"},
			RootPackages:  []string{"laravel/laravel"},
			ManifestName:  "composer.json",
			DomainsDir:    "domains",
			ProvidersFile: "PROVIDERS.toml",
		},
		Cache: CacheConfig{
			Driver:                 "sqlite",
			Path:                   filepath.Join(Dir, "cache.db"),
			TTLSeconds:             0,
			CompressThresholdBytes: 4096,
			LRUSize:                1024,
		},
		Env: EnvConfig{
			Publish: false,
			Path:    ".env",
		},
		GitHooks: GitHooksConfig{
			File: filepath.Join(Dir, "git-hooks.toml"),
		},
		Watch: WatchConfig{
			DebounceMs: 500,
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// LoadConfig loads configuration from .starterkit/config.{json,yaml,toml}
// on top of the defaults, then applies SK_* environment overrides.
func LoadConfig(root string) (*Config, error) {
	v := viper.New()

	if err := setDefaults(v, DefaultConfig()); err != nil {
		return nil, err
	}

	v.SetConfigName("config")
	v.AddConfigPath(filepath.Join(root, Dir))
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every field of cfg with viper so environment
// overrides apply to keys the config file does not mention.
func setDefaults(v *viper.Viper, cfg *Config) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	var tree map[string]interface{}
	if err := json.Unmarshal(data, &tree); err != nil {
		return err
	}
	flattenDefaults(v, "", tree)
	return nil
}

func flattenDefaults(v *viper.Viper, prefix string, tree map[string]interface{}) {
	for k, val := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := val.(map[string]interface{}); ok {
			flattenDefaults(v, key, sub)
			continue
		}
		v.SetDefault(key, val)
	}
}

// Save writes the configuration to .starterkit/config.json
func (c *Config) Save(root string) error {
	dir := filepath.Join(root, Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0o644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != 1 {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	if strings.TrimSpace(c.MainTag) == "" {
		return &ConfigError{Field: "mainTag", Message: "must not be empty"}
	}
	if c.Discovery.MaxLevels < 0 {
		return &ConfigError{Field: "discovery.maxLevels", Message: "must not be negative"}
	}
	if c.Discovery.ManifestName == "" {
		return &ConfigError{Field: "discovery.manifestName", Message: "must not be empty"}
	}
	if c.Discovery.DomainsDir == "" {
		return &ConfigError{Field: "discovery.domainsDir", Message: "must not be empty"}
	}
	if !cacheDrivers[c.Cache.Driver] {
		return &ConfigError{Field: "cache.driver", Message: "must be one of sqlite, memory, lru, none"}
	}
	if c.Cache.TTLSeconds < 0 {
		return &ConfigError{Field: "cache.ttlSeconds", Message: "must not be negative"}
	}
	return nil
}

// ResolvePath joins a configured relative path onto root.
func ResolvePath(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
