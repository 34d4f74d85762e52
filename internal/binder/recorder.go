package binder

import (
	"fmt"
	"sort"

	kerrors "starterkit/internal/errors"
	"starterkit/internal/settings"
)

// Binding is one resource to model wiring.
type Binding struct {
	Resource string `json:"resource"`
	Model    string `json:"model"`
}

// RouteRegistration is one route file and the group it was loaded under.
type RouteRegistration struct {
	File  string     `json:"file"`
	Group RouteGroup `json:"group"`
}

// Translation is a registered translation namespace.
type Translation struct {
	Namespace string `json:"namespace"`
	Path      string `json:"path"`
}

// EnvBlock is a set of variables published under one title.
type EnvBlock struct {
	Title string            `json:"title"`
	Vars  map[string]string `json:"vars"`
}

// Failure is a binding the host rejected.
type Failure struct {
	Kind     string `json:"kind"`
	Resource string `json:"resource"`
	Model    string `json:"model"`
	Error    string `json:"error"`
}

// Plan is everything a boot wired, in call order.
type Plan struct {
	Configs      []string            `json:"configs,omitempty"`
	Helpers      []string            `json:"helpers,omitempty"`
	Migrations   []string            `json:"migrations,omitempty"`
	Translations []Translation       `json:"translations,omitempty"`
	Routes       []RouteRegistration `json:"routes,omitempty"`
	Observers    []Binding           `json:"observers,omitempty"`
	Policies     []Binding           `json:"policies,omitempty"`
	Repositories []Binding           `json:"repositories,omitempty"`
	MorphMap     map[string]string   `json:"morphMap,omitempty"`
	Env          []EnvBlock          `json:"env,omitempty"`
	Failures     []Failure           `json:"failures,omitempty"`
}

// Recorder implements every collaborator by recording the calls into a
// Plan. With ClassExists set, bindings naming an unknown class fail with
// STALE_BINDING the way a real container would.
type Recorder struct {
	Plan        Plan
	ClassExists func(fqcn string) bool
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Collaborators wires the recorder into every slot except the config
// repository, which stays live.
func (r *Recorder) Collaborators(config ConfigRepository) Collaborators {
	return Collaborators{
		Config:       config,
		ConfigLoader: r,
		Helpers:      r,
		Migrations:   r,
		Translations: r,
		Routes:       r,
		Observers:    r,
		Policies:     r,
		Repositories: r,
		MorphMap:     r,
		Env:          r,
	}
}

// LoadConfig decodes the file and records its path.
func (r *Recorder) LoadConfig(path string) (map[string]interface{}, error) {
	values, err := settings.LoadFile(path)
	if err != nil {
		return nil, err
	}
	r.Plan.Configs = append(r.Plan.Configs, path)
	return values, nil
}

// LoadHelper records a helper file.
func (r *Recorder) LoadHelper(path string) error {
	r.Plan.Helpers = append(r.Plan.Helpers, path)
	return nil
}

// AddMigrationPath records a migrations directory.
func (r *Recorder) AddMigrationPath(path string) {
	r.Plan.Migrations = append(r.Plan.Migrations, path)
}

// AddTranslations records a translation namespace.
func (r *Recorder) AddTranslations(namespace, path string) {
	r.Plan.Translations = append(r.Plan.Translations, Translation{Namespace: namespace, Path: path})
}

// Group records a route file registration.
func (r *Recorder) Group(group RouteGroup, file string) {
	r.Plan.Routes = append(r.Plan.Routes, RouteRegistration{File: file, Group: group})
}

// Observe records an observer binding.
func (r *Recorder) Observe(model, observer string) error {
	return r.bind("observer", &r.Plan.Observers, observer, model)
}

// Policy records a policy binding.
func (r *Recorder) Policy(model, policy string) error {
	return r.bind("policy", &r.Plan.Policies, policy, model)
}

// BindRepository records a repository binding.
func (r *Recorder) BindRepository(repository, model string) error {
	return r.bind("repository", &r.Plan.Repositories, repository, model)
}

func (r *Recorder) bind(kind string, into *[]Binding, resource, model string) error {
	if r.ClassExists != nil {
		for _, class := range []string{model, resource} {
			if r.ClassExists(class) {
				continue
			}
			err := kerrors.NewKitError(kerrors.StaleBinding,
				fmt.Sprintf("class %s no longer exists", class), nil, nil)
			r.Plan.Failures = append(r.Plan.Failures, Failure{
				Kind:     kind,
				Resource: resource,
				Model:    model,
				Error:    err.Error(),
			})
			return err
		}
	}
	*into = append(*into, Binding{Resource: resource, Model: model})
	return nil
}

// EnforceMorphMap merges aliases into the recorded morph map.
func (r *Recorder) EnforceMorphMap(aliases map[string]string) {
	if r.Plan.MorphMap == nil {
		r.Plan.MorphMap = make(map[string]string, len(aliases))
	}
	for alias, model := range aliases {
		r.Plan.MorphMap[alias] = model
	}
}

// Publish records an env block without touching any file.
func (r *Recorder) Publish(title string, vars map[string]string) (bool, error) {
	if len(vars) == 0 {
		return false, nil
	}
	copied := make(map[string]string, len(vars))
	for k, v := range vars {
		copied[k] = v
	}
	r.Plan.Env = append(r.Plan.Env, EnvBlock{Title: title, Vars: copied})
	return true, nil
}

// Bindings returns the number of successful bindings of every kind.
func (p Plan) Bindings() int {
	return len(p.Observers) + len(p.Policies) + len(p.Repositories)
}

// RouteFiles returns the recorded route files, sorted.
func (p Plan) RouteFiles() []string {
	files := make([]string, 0, len(p.Routes))
	for _, r := range p.Routes {
		files = append(files, r.File)
	}
	sort.Strings(files)
	return files
}
