package binder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"starterkit/internal/cache"
	"starterkit/internal/config"
	"starterkit/internal/kit"
	"starterkit/internal/settings"
	"starterkit/internal/symbols"
	"starterkit/internal/testutil"
)

const (
	appProvider     = `App\Providers\AppServiceProvider`
	billingProvider = `Domains\Billing\Providers\BillingServiceProvider`
)

// blogApp is a host application with one domain.
func blogApp(t *testing.T) *testutil.Tree {
	t.Helper()
	return testutil.NewTree(t).Write(t, map[string]string{
		"composer.json":                        `{"name": "laravel/laravel"}`,
		"app/Providers/AppServiceProvider.php": testutil.PHPClass(`App\Providers`, "AppServiceProvider"),
		"app/Models/User.php":                  testutil.PHPClass(`App\Models`, "User"),
		"app/Models/Post.php":                  testutil.PHPClass(`App\Models`, "Post"),
		"app/Repositories/UserRepository.php":  testutil.PHPClass(`App\Repositories`, "UserRepository"),
		"app/Policies/PostPolicy.php":          testutil.PHPClass(`App\Policies`, "PostPolicy"),
		"app/Observers/UserObserver.php":       testutil.PHPClass(`App\Observers`, "UserObserver"),
		"config/blog.json":                     `{"per_page": 10, "driver": "file"}`,
		"helpers/functions.php":                "<?php",
		"routes/api.php":                       "<?php",
		"routes/web.php":                       "<?php",
		"database/migrations/":                 "",
		"lang/":                                "",

		"domains/Billing/Providers/BillingServiceProvider.php":  testutil.PHPClass(`Domains\Billing\Providers`, "BillingServiceProvider"),
		"domains/Billing/Models/Invoice.php":                    testutil.PHPClass(`Domains\Billing\Models`, "Invoice"),
		"domains/Billing/Repositories/InvoiceRepository.php":    testutil.PHPClass(`Domains\Billing\Repositories`, "InvoiceRepository"),
		"domains/Billing/Repositories/PostRepository.php":       testutil.PHPClass(`Domains\Billing\Repositories`, "PostRepository"),
		"domains/Billing/Policies/InvoicePolicy.php":            testutil.PHPClass(`Domains\Billing\Policies`, "InvoicePolicy"),
		"domains/Billing/lang/":                                 "",
	})
}

func allFeatures() config.FeaturesConfig {
	f := config.DefaultConfig().Features
	f.Routes = true
	f.MorphMap = true
	return f
}

func newKit(t *testing.T) *kit.Registry {
	t.Helper()
	c := cache.New(cache.NewMemoryStore(time.Minute), kit.DefaultMainTag, nil)
	return kit.New(context.Background(), c, symbols.NewIndexer(nil), nil, kit.DefaultOptions())
}

func newBinder(t *testing.T, opts Options) (*Binder, *kit.Registry, *Recorder, *settings.Store) {
	t.Helper()
	registry := newKit(t)
	rec := NewRecorder()
	store := settings.New()
	return New(registry, rec.Collaborators(store), opts, nil), registry, rec, store
}

func appDomain(tree *testutil.Tree) *Provider {
	return &Provider{TypeName: appProvider, Location: tree.Path("app/Providers/AppServiceProvider.php")}
}

func billingDomain(tree *testutil.Tree) *Provider {
	return &Provider{TypeName: billingProvider, Location: tree.Path("domains/Billing/Providers/BillingServiceProvider.php")}
}

func TestBoot_Plan(t *testing.T) {
	tree := blogApp(t)
	b, _, rec, _ := newBinder(t, Options{Features: allFeatures()})

	require.NoError(t, Bootstrap(context.Background(), b.Domain(appDomain(tree))))

	testutil.CompareGolden(t, tree.Root, "boot_plan", rec.Plan)
}

func TestRegister_MergesConfigsExistingWins(t *testing.T) {
	tree := blogApp(t)
	b, _, rec, store := newBinder(t, Options{Features: allFeatures()})
	store.Set("blog", map[string]interface{}{"driver": "redis"})

	require.NoError(t, b.Domain(appDomain(tree)).Register(context.Background()))

	blog := store.GetMap("blog")
	assert.Equal(t, "redis", blog["driver"])
	assert.EqualValues(t, 10, blog["per_page"])
	assert.Equal(t, []string{tree.Path("config/blog.json")}, rec.Plan.Configs)
}

func TestRegister_SkipsConfigsWhenCached(t *testing.T) {
	tree := blogApp(t)
	b, _, rec, store := newBinder(t, Options{Features: allFeatures()})
	store.MarkCached(true)

	require.NoError(t, b.Domain(appDomain(tree)).Register(context.Background()))

	assert.Empty(t, rec.Plan.Configs)
	assert.False(t, store.Has("blog"))
}

func TestRegister_HelpersLoadedOnce(t *testing.T) {
	tree := blogApp(t)
	b, _, rec, _ := newBinder(t, Options{Features: allFeatures()})
	ctx := context.Background()

	require.NoError(t, b.Domain(appDomain(tree)).Register(ctx))
	require.NoError(t, b.Domain(appDomain(tree)).Register(ctx))

	assert.Equal(t, []string{tree.Path("helpers/functions.php")}, rec.Plan.Helpers)
}

func TestRegister_IdentifiesOnce(t *testing.T) {
	tree := blogApp(t)
	b, registry, _, _ := newBinder(t, Options{Features: allFeatures()})
	ctx := context.Background()

	d := b.Domain(billingDomain(tree))
	require.NoError(t, d.Register(ctx))

	got, ok := registry.Provider(billingProvider)
	require.True(t, ok)
	assert.Equal(t, "Billing", got.DomainName)
	assert.Equal(t, tree.Path("domains/Billing"), got.PackagePath)
	assert.Equal(t, got, d.Record())

	_, ok = registry.Location("", "Billing")
	assert.True(t, ok)
}

func TestRegister_PublishesEnvOnFirstSight(t *testing.T) {
	tree := blogApp(t)
	opts := Options{Features: allFeatures(), PublishEnv: true}
	b, _, rec, _ := newBinder(t, opts)
	ctx := context.Background()

	p := billingDomain(tree)
	p.EnvVars = map[string]string{"BILLING_CURRENCY": "EUR"}

	require.NoError(t, b.Domain(p).Register(ctx))
	require.NoError(t, b.Domain(p).Register(ctx))

	require.Len(t, rec.Plan.Env, 1)
	assert.Equal(t, "Laravel (Billing)", rec.Plan.Env[0].Title)
	assert.Equal(t, map[string]string{"BILLING_CURRENCY": "EUR"}, rec.Plan.Env[0].Vars)
}

func TestRegister_TranslationNamespace(t *testing.T) {
	tree := blogApp(t)
	b, _, rec, _ := newBinder(t, Options{Features: allFeatures()})

	require.NoError(t, Bootstrap(context.Background(),
		b.Domain(appDomain(tree)),
		b.Domain(billingDomain(tree)),
	))

	assert.Equal(t, []Translation{
		{Namespace: "", Path: tree.Path("lang")},
		{Namespace: "billing", Path: tree.Path("domains/Billing/lang")},
	}, rec.Plan.Translations)
}

func TestBootstrap_DomainFallsBackToRootModels(t *testing.T) {
	tree := blogApp(t)
	b, _, rec, _ := newBinder(t, Options{Features: allFeatures()})

	// billing registers first; the root models must still be visible at boot
	require.NoError(t, Bootstrap(context.Background(),
		b.Domain(billingDomain(tree)),
		b.Domain(appDomain(tree)),
	))

	assert.ElementsMatch(t, []Binding{
		{Resource: `Domains\Billing\Repositories\InvoiceRepository`, Model: `Domains\Billing\Models\Invoice`},
		{Resource: `Domains\Billing\Repositories\PostRepository`, Model: `App\Models\Post`},
		{Resource: `App\Repositories\UserRepository`, Model: `App\Models\User`},
	}, rec.Plan.Repositories)
	assert.ElementsMatch(t, []Binding{
		{Resource: `Domains\Billing\Policies\InvoicePolicy`, Model: `Domains\Billing\Models\Invoice`},
		{Resource: `App\Policies\PostPolicy`, Model: `App\Models\Post`},
	}, rec.Plan.Policies)
}

func TestBoot_ExplicitMapWins(t *testing.T) {
	tree := blogApp(t)
	b, _, rec, _ := newBinder(t, Options{Features: allFeatures()})

	p := appDomain(tree)
	p.RepositoryMap = map[string]string{"User": `App\Models\Post`}

	require.NoError(t, Bootstrap(context.Background(), b.Domain(p)))

	assert.Equal(t, []Binding{
		{Resource: `App\Repositories\UserRepository`, Model: `App\Models\Post`},
	}, rec.Plan.Repositories)
}

func TestBoot_FeatureGatesAndExceptions(t *testing.T) {
	tree := blogApp(t)
	features := allFeatures()
	features.Policies = false
	features.Routes = false
	features.MorphMap = false
	b, _, rec, _ := newBinder(t, Options{Features: features})

	p := appDomain(tree)
	p.ExceptDirectories = []kit.DirectoryKind{kit.Repositories, kit.Migrations}
	p.MorphMap = map[string]string{"user": `App\Models\User`}

	d := b.Domain(p)
	require.NoError(t, Bootstrap(context.Background(), d))

	assert.Empty(t, rec.Plan.Policies)
	assert.Empty(t, rec.Plan.Routes)
	assert.Empty(t, rec.Plan.Repositories)
	assert.Empty(t, rec.Plan.Migrations)
	assert.Empty(t, rec.Plan.MorphMap)
	assert.Len(t, rec.Plan.Observers, 1)

	for _, k := range []kit.DirectoryKind{kit.Policies, kit.Routes, kit.Repositories, kit.Migrations} {
		assert.NotContains(t, d.ExistingDirectories(), k)
	}
	assert.Contains(t, d.ExistingDirectories(), kit.Observers)
}

func TestBoot_MorphMapAndCachedRoutes(t *testing.T) {
	tree := blogApp(t)
	b, _, rec, _ := newBinder(t, Options{Features: allFeatures(), RoutesCached: true})

	p := appDomain(tree)
	p.MorphMap = map[string]string{"user": `App\Models\User`}

	require.NoError(t, Bootstrap(context.Background(), b.Domain(p)))

	assert.Equal(t, p.MorphMap, rec.Plan.MorphMap)
	assert.Empty(t, rec.Plan.Routes)
}

func TestBoot_StaleBindingFlushesAndContinues(t *testing.T) {
	tree := blogApp(t)
	b, registry, rec, _ := newBinder(t, Options{Features: allFeatures()})
	ctx := context.Background()

	rec.ClassExists = func(fqcn string) bool { return fqcn != `App\Models\Post` }
	require.NoError(t, Bootstrap(ctx, b.Domain(appDomain(tree))))

	require.Len(t, rec.Plan.Failures, 1)
	assert.Equal(t, "policy", rec.Plan.Failures[0].Kind)
	assert.Equal(t, `App\Policies\PostPolicy`, rec.Plan.Failures[0].Resource)
	assert.Len(t, rec.Plan.Observers, 1, "bindings before the failure stay")
	assert.Equal(t, []Binding{
		{Resource: `App\Repositories\UserRepository`, Model: `App\Models\User`},
	}, rec.Plan.Repositories, "bindings after the failure still run")
	assert.Len(t, rec.Plan.Routes, 2)

	// the in-memory tables survive for the rest of the process
	assert.Len(t, registry.Providers(), 1)
	_, ok := registry.Root()
	assert.True(t, ok)

	// the store is flushed, so the next process rediscovers from disk
	fresh := kit.New(ctx, registry.Cache(), symbols.NewIndexer(nil), nil, kit.DefaultOptions())
	assert.Empty(t, fresh.Providers())
	assert.Empty(t, fresh.Locations())
}

func TestBootstrap_StaleBindingDoesNotStopLaterProviders(t *testing.T) {
	tests := []struct {
		name  string
		order func(tree *testutil.Tree) []*Provider
	}{
		{"domain first", func(tree *testutil.Tree) []*Provider { return []*Provider{billingDomain(tree), appDomain(tree)} }},
		{"application first", func(tree *testutil.Tree) []*Provider { return []*Provider{appDomain(tree), billingDomain(tree)} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := blogApp(t)
			b, _, rec, _ := newBinder(t, Options{Features: allFeatures()})
			rec.ClassExists = func(fqcn string) bool { return fqcn != `App\Models\Post` }

			require.NoError(t, Bootstrap(context.Background(), b.Domains(tt.order(tree))...))

			// PostPolicy and the billing PostRepository both point at the missing model
			require.Len(t, rec.Plan.Failures, 2)
			assert.ElementsMatch(t, []string{
				`App\Policies\PostPolicy`,
				`Domains\Billing\Repositories\PostRepository`,
			}, []string{rec.Plan.Failures[0].Resource, rec.Plan.Failures[1].Resource})

			assert.ElementsMatch(t, []string{tree.Path("routes/api.php"), tree.Path("routes/web.php")}, rec.Plan.RouteFiles())
			assert.Equal(t, []Binding{
				{Resource: `Domains\Billing\Policies\InvoicePolicy`, Model: `Domains\Billing\Models\Invoice`},
			}, rec.Plan.Policies)
			assert.ElementsMatch(t, []Binding{
				{Resource: `Domains\Billing\Repositories\InvoiceRepository`, Model: `Domains\Billing\Models\Invoice`},
				{Resource: `App\Repositories\UserRepository`, Model: `App\Models\User`},
			}, rec.Plan.Repositories)
			assert.Len(t, rec.Plan.Observers, 1)
		})
	}
}

func TestBoot_BeforeRegisterIsNoop(t *testing.T) {
	tree := blogApp(t)
	b, _, rec, _ := newBinder(t, Options{Features: allFeatures()})

	require.NoError(t, b.Domain(appDomain(tree)).Boot(context.Background()))
	assert.Zero(t, rec.Plan.Bindings())
}

func TestBootstrap_Cancelled(t *testing.T) {
	tree := blogApp(t)
	b, registry, _, _ := newBinder(t, Options{Features: allFeatures()})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Bootstrap(ctx, b.Domain(appDomain(tree)))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, registry.Providers())
}
