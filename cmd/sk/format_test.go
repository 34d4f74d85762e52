package main

import (
	"strings"
	"testing"

	"starterkit/internal/binder"
	"starterkit/internal/storage"
)

func TestFormatResponse_JSON(t *testing.T) {
	resp := map[string]interface{}{
		"key": "value",
		"num": 42,
	}

	result, err := FormatResponse(resp, FormatJSON)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(result, `"key": "value"`) {
		t.Error("JSON output missing expected key")
	}
	if !strings.Contains(result, `"num": 42`) {
		t.Error("JSON output missing expected number")
	}
}

func TestFormatResponse_UnsupportedFormat(t *testing.T) {
	resp := map[string]string{"key": "value"}

	_, err := FormatResponse(resp, "xml")
	if err == nil {
		t.Error("expected error for unsupported format")
	}
	if !strings.Contains(err.Error(), "unsupported format") {
		t.Errorf("error should mention unsupported format, got: %v", err)
	}
}

func TestFormatHuman_UnknownFallsBackToJSON(t *testing.T) {
	result, err := FormatResponse(struct {
		Name string `json:"name"`
	}{Name: "test"}, FormatHuman)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result, `"name": "test"`) {
		t.Errorf("expected JSON fallback, got %q", result)
	}
}

func TestLocationTitle(t *testing.T) {
	tests := []struct {
		pkg, domain string
		expected    string
	}{
		{"", "", "(application)"},
		{"", "Billing", "(application) [Billing]"},
		{"acme/blog", "", "acme/blog"},
		{"acme/blog", "Tax", "acme/blog [Tax]"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := locationTitle(tt.pkg, tt.domain); got != tt.expected {
				t.Errorf("locationTitle(%q, %q) = %q, want %q", tt.pkg, tt.domain, got, tt.expected)
			}
		})
	}
}

func TestFormatPathsHuman(t *testing.T) {
	resp := &PathsResponseCLI{
		Root: "/srv/app",
		Locations: []LocationCLI{{
			Domain: "Billing",
			Path:   "domains/Billing",
			Directories: map[string]string{
				"models": "domains/Billing/Models",
				"routes": "domains/Billing/routes",
			},
			Files:   2,
			Classes: 3,
		}},
		Providers: []ProviderCLI{{Class: `Domains\Billing\Providers\BillingServiceProvider`, Domain: "Billing"}},
	}

	result, err := FormatResponse(resp, FormatHuman)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		"Root: /srv/app",
		"(application) [Billing]  domains/Billing",
		"domains/Billing/Models",
		"(2 files, 3 classes)",
		"Providers (1):",
	} {
		if !strings.Contains(result, want) {
			t.Errorf("output missing %q:\n%s", want, result)
		}
	}
	// routes are listed before models
	if strings.Index(result, "routes") > strings.Index(result, "Models") {
		t.Errorf("directories not in target order:\n%s", result)
	}
}

func TestFormatPathsHuman_Empty(t *testing.T) {
	result, err := formatPathsHuman(&PathsResponseCLI{Root: "/srv/app"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result, "No packages registered.") {
		t.Errorf("expected empty notice, got:\n%s", result)
	}
}

func TestFormatBootHuman(t *testing.T) {
	resp := &BootResponseCLI{
		Root: "/srv/app",
		Plan: binder.Plan{
			Configs:      []string{"config/blog.json"},
			Translations: []binder.Translation{{Namespace: "", Path: "lang"}},
			Routes: []binder.RouteRegistration{{
				File:  "routes/api.php",
				Group: binder.RouteGroup{Middleware: []string{"api"}, Prefix: "api"},
			}},
			Repositories: []binder.Binding{{Resource: `App\Repositories\UserRepository`, Model: `App\Models\User`}},
			Failures:     []binder.Failure{{Kind: "observer", Resource: `App\Observers\Gone`, Model: `App\Models\User`, Error: "missing"}},
		},
	}

	result, err := FormatResponse(resp, FormatHuman)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		"0 providers, 1 bindings, 1 route files",
		"(default): lang",
		"routes/api.php  prefix=/api",
		`App\Repositories\UserRepository -> App\Models\User`,
		"Stale bindings (1), cache flushed:",
	} {
		if !strings.Contains(result, want) {
			t.Errorf("output missing %q:\n%s", want, result)
		}
	}
}

func TestFormatCacheHuman(t *testing.T) {
	tests := []struct {
		name string
		resp *CacheResponseCLI
		want []string
	}{
		{
			name: "clear",
			resp: &CacheResponseCLI{Action: "clear", Driver: "sqlite", Tag: "kit", Flushed: true},
			want: []string{`Cache driver: sqlite (tag "kit")`, "Flushed."},
		},
		{
			name: "clear without tags",
			resp: &CacheResponseCLI{Action: "clear", Driver: "none", Tag: "kit"},
			want: []string{"Nothing flushed"},
		},
		{
			name: "prune with stats",
			resp: &CacheResponseCLI{
				Action: "prune", Driver: "sqlite", Tag: "kit", Pruned: 4,
				Stats: &storage.Stats{Entries: 10, Compressed: 2, Bytes: 2048},
			},
			want: []string{"Pruned 4 expired entries.", "Entries: 10 (2 compressed), 2048 bytes"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := FormatResponse(tt.resp, FormatHuman)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(result, want) {
					t.Errorf("output missing %q:\n%s", want, result)
				}
			}
		})
	}
}

func TestFormatProvidersHuman(t *testing.T) {
	resp := &ProvidersResponseCLI{
		Source:    "convention",
		Providers: []ProviderDeclCLI{{Class: `App\Providers\AppServiceProvider`, Location: "app/Providers/AppServiceProvider.php"}},
		Written:   "PROVIDERS.toml",
	}

	result, err := FormatResponse(resp, FormatHuman)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"Providers (1, from convention):", "app/Providers/AppServiceProvider.php", "Wrote PROVIDERS.toml"} {
		if !strings.Contains(result, want) {
			t.Errorf("output missing %q:\n%s", want, result)
		}
	}
}

func TestFormatHooksHuman(t *testing.T) {
	result, err := FormatResponse(&HooksResponseCLI{Message: "Applied git hooks.", Hooks: []string{"pre-commit", "pre-push"}}, FormatHuman)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "Applied git hooks.\n  pre-commit\n  pre-push\n" {
		t.Errorf("unexpected output: %q", result)
	}
}
