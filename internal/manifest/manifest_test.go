package manifest

import (
	"context"
	"path/filepath"
	"testing"

	kerrors "starterkit/internal/errors"
	"starterkit/internal/symbols"
	"starterkit/internal/testutil"
)

const providersToml = `version = 1

[[provider]]
type = 'Acme\Blog\Providers\BlogServiceProvider'
location = "packages/acme/blog/src/Providers/BlogServiceProvider.php"
route_prefix = "blog"
prefix_route_with_file_name = true
api_middleware = ["auth:sanctum"]
except_directories = ["tests"]

[provider.repositories]
PostRepository = 'Acme\Blog\Models\Article'

[provider.morph_map]
post = 'Acme\Blog\Models\Post'

[provider.env]
BLOG_PER_PAGE = 10
BLOG_DRIVER = "database"

[[provider]]
type = 'App\Providers\AppServiceProvider'
location = "/abs/app/Providers/AppServiceProvider.php"
`

func TestLoadDeclaredProviders(t *testing.T) {
	tree := testutil.NewTree(t).Write(t, map[string]string{
		DeclarationFile: providersToml,
	})

	decls, err := LoadDeclaredProviders(tree.Root, "")
	if err != nil {
		t.Fatalf("LoadDeclaredProviders failed: %v", err)
	}
	if len(decls) != 2 {
		t.Fatalf("expected 2 providers, got %d", len(decls))
	}

	blog := decls[0]
	if blog.Type != `Acme\Blog\Providers\BlogServiceProvider` {
		t.Errorf("Type = %q", blog.Type)
	}
	if want := tree.Path("packages/acme/blog/src/Providers/BlogServiceProvider.php"); blog.Location != want {
		t.Errorf("Location = %q, want %q", blog.Location, want)
	}
	if blog.RoutePrefix != "blog" || !blog.PrefixRouteWithFileName || blog.PrefixRouteWithDirectory {
		t.Errorf("route settings = %+v", blog)
	}
	if blog.Repositories["PostRepository"] != `Acme\Blog\Models\Article` {
		t.Errorf("Repositories = %v", blog.Repositories)
	}
	if blog.MorphMap["post"] != `Acme\Blog\Models\Post` {
		t.Errorf("MorphMap = %v", blog.MorphMap)
	}
	if len(blog.Env) != 2 {
		t.Errorf("Env = %v", blog.Env)
	}

	if decls[1].Location != "/abs/app/Providers/AppServiceProvider.php" {
		t.Errorf("absolute location rewritten: %q", decls[1].Location)
	}
}

func TestLoadDeclaredProviders_Missing(t *testing.T) {
	decls, err := LoadDeclaredProviders(t.TempDir(), "")
	if err != nil || decls != nil {
		t.Errorf("expected nil, nil; got %v, %v", decls, err)
	}
}

func TestParseProvidersFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", "[[provider]\ntype = "},
		{"missing type", "[[provider]]\nlocation = \"x.php\"\n"},
		{"missing location", "[[provider]]\ntype = 'A\\B'\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := testutil.NewTree(t).Write(t, map[string]string{DeclarationFile: tt.content})
			_, err := ParseProvidersFile(tree.Path(DeclarationFile))
			if !kerrors.HasCode(err, kerrors.ManifestInvalid) {
				t.Errorf("expected MANIFEST_INVALID, got %v", err)
			}
		})
	}
}

func TestWriteProvidersFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", DeclarationFile)
	decls := []Declaration{
		{Type: `Z\Providers\ZServiceProvider`, Location: "/z.php"},
		{Type: `A\Providers\AServiceProvider`, Location: "/a.php", RoutePrefix: "a"},
	}
	if err := WriteProvidersFile(path, decls); err != nil {
		t.Fatalf("WriteProvidersFile failed: %v", err)
	}

	file, err := ParseProvidersFile(path)
	if err != nil {
		t.Fatalf("ParseProvidersFile failed: %v", err)
	}
	if len(file.Providers) != 2 || file.Providers[0].Type != `A\Providers\AServiceProvider` {
		t.Errorf("providers = %+v", file.Providers)
	}
	if file.Providers[0].RoutePrefix != "a" {
		t.Errorf("RoutePrefix lost: %+v", file.Providers[0])
	}
}

func TestScanner_Discover(t *testing.T) {
	tree := testutil.NewTree(t).Write(t, map[string]string{
		"app/Providers/AppServiceProvider.php":                         testutil.PHPClass(`App\Providers`, "AppServiceProvider"),
		"app/Providers/Helper.php":                                     testutil.PHPClass(`App\Providers`, "Helper"),
		"domains/Billing/Providers/BillingServiceProvider.php":         testutil.PHPClass(`Domains\Billing\Providers`, "BillingServiceProvider"),
		"vendor/acme/x/src/Providers/XServiceProvider.php":             testutil.PHPClass(`Acme\X\Providers`, "XServiceProvider"),
		".cache/Providers/HiddenServiceProvider.php":                   testutil.PHPClass(`Hidden\Providers`, "HiddenServiceProvider"),
		"packages/acme/blog/src/Providers/BlogServiceProvider.php":     testutil.PHPClass(`Acme\Blog\Providers`, "BlogServiceProvider"),
		"packages/acme/blog/src/Providers/Nested/InnerServiceProvider.php": testutil.PHPClass(`Acme\Blog\Providers\Nested`, "InnerServiceProvider"),
	})

	scanner := NewScanner(symbols.NewIndexer(nil), []string{"vendor", "node_modules"}, nil)
	decls, err := scanner.Discover(context.Background(), tree.Root)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}

	want := []string{
		`Acme\Blog\Providers\BlogServiceProvider`,
		`Acme\Blog\Providers\Nested\InnerServiceProvider`,
		`App\Providers\AppServiceProvider`,
		`Domains\Billing\Providers\BillingServiceProvider`,
	}
	if len(decls) != len(want) {
		t.Fatalf("got %d providers: %+v", len(decls), decls)
	}
	for i, w := range want {
		if decls[i].Type != w {
			t.Errorf("decls[%d].Type = %q, want %q", i, decls[i].Type, w)
		}
	}
	if decls[2].Location != tree.Path("app/Providers/AppServiceProvider.php") {
		t.Errorf("Location = %q", decls[2].Location)
	}
}

func TestScanner_Cancelled(t *testing.T) {
	tree := testutil.NewTree(t).Write(t, map[string]string{"app/Providers/": ""})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scanner := NewScanner(symbols.NewIndexer(nil), nil, nil)
	if _, err := scanner.Discover(ctx, tree.Root); err == nil {
		t.Error("expected context error")
	}
}
