package binder

// ConfigRepository is the live configuration store package defaults are
// merged into. Existing values win over defaults.
type ConfigRepository interface {
	MergeDefaults(key string, defaults map[string]interface{})
	IsCached() bool
}

// ConfigLoader decodes one package config file.
type ConfigLoader interface {
	LoadConfig(path string) (map[string]interface{}, error)
}

// HelperLoader loads a helper file into the host runtime.
type HelperLoader interface {
	LoadHelper(path string) error
}

// MigrationRegistrar hands migration directories to the migration runner.
type MigrationRegistrar interface {
	AddMigrationPath(path string)
}

// TranslationRegistrar registers a translation namespace.
type TranslationRegistrar interface {
	AddTranslations(namespace, path string)
}

// RouteRegistrar registers one route file under a group configuration.
type RouteRegistrar interface {
	Group(group RouteGroup, file string)
}

// ObserverRegistrar attaches an observer to a model.
type ObserverRegistrar interface {
	Observe(model, observer string) error
}

// PolicyRegistrar registers a policy for a model.
type PolicyRegistrar interface {
	Policy(model, policy string) error
}

// RepositoryBinder gives a repository its model's query builder.
type RepositoryBinder interface {
	BindRepository(repository, model string) error
}

// MorphMapEnforcer enforces a polymorphic alias map.
type MorphMapEnforcer interface {
	EnforceMorphMap(aliases map[string]string)
}

// EnvPublisher appends missing variables to the environment file under a
// titled block.
type EnvPublisher interface {
	Publish(title string, vars map[string]string) (bool, error)
}

// Collaborators bundles the host application hooks. A nil member disables
// the step that needs it.
type Collaborators struct {
	Config       ConfigRepository
	ConfigLoader ConfigLoader
	Helpers      HelperLoader
	Migrations   MigrationRegistrar
	Translations TranslationRegistrar
	Routes       RouteRegistrar
	Observers    ObserverRegistrar
	Policies     PolicyRegistrar
	Repositories RepositoryBinder
	MorphMap     MorphMapEnforcer
	Env          EnvPublisher
}
