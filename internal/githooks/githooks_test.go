package githooks

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"starterkit/internal/composer"
	"starterkit/internal/testutil"
)

func readManifest(t *testing.T, content string) *composer.Manifest {
	t.Helper()
	tree := testutil.NewTree(t).Write(t, map[string]string{"composer.json": content})
	m, err := composer.Read(tree.Path("composer.json"))
	require.NoError(t, err)
	return m
}

func TestPublishAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".starterkit", "git-hooks.toml")

	wrote, err := Publish(path, false)
	require.NoError(t, err)
	assert.True(t, wrote)

	hooks, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultHooks(), hooks)
	assert.Equal(t, []string{"pre-commit", "pre-push"}, hooks.Names())

	require.NoError(t, os.WriteFile(path, []byte(`pre-push = ["make test"]`), 0o644))
	wrote, err = Publish(path, false)
	require.NoError(t, err)
	assert.False(t, wrote, "existing file must be kept")

	hooks, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, Hooks{"pre-push": {"make test"}}, hooks)

	wrote, err = Publish(path, true)
	require.NoError(t, err)
	assert.True(t, wrote)
}

func TestLoad_MissingAndInvalid(t *testing.T) {
	dir := t.TempDir()

	hooks, err := Load(filepath.Join(dir, "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultHooks(), hooks)

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("pre-push = ["), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	tests := []struct {
		name    string
		scripts string
		update  interface{}
		install interface{}
	}{
		{
			name:    "no scripts",
			scripts: `{}`,
			update:  "cghooks update",
			install: "cghooks add --ignore-lock",
		},
		{
			name:    "different string becomes list",
			scripts: `{"post-update-cmd": "@php artisan optimize"}`,
			update:  []interface{}{"@php artisan optimize", "cghooks update"},
			install: "cghooks add --ignore-lock",
		},
		{
			name:    "list gets appended once",
			scripts: `{"post-install-cmd": ["cghooks add --ignore-lock", "@php artisan key:generate"]}`,
			update:  "cghooks update",
			install: []interface{}{"cghooks add --ignore-lock", "@php artisan key:generate"},
		},
		{
			name:    "same string kept",
			scripts: `{"post-update-cmd": "cghooks update"}`,
			update:  "cghooks update",
			install: "cghooks add --ignore-lock",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := readManifest(t, `{"name": "laravel/laravel", "scripts": `+tt.scripts+`}`)

			Apply(m, DefaultHooks())
			Apply(m, DefaultHooks())

			scripts := m.Section("scripts")
			assert.Equal(t, "./vendor/bin/cghooks", scripts["cghooks"])
			assert.Equal(t, tt.update, scripts["post-update-cmd"])
			assert.Equal(t, tt.install, scripts["post-install-cmd"])

			hooks := m.Section("extra")["hooks"].(map[string]interface{})
			assert.Len(t, hooks["pre-commit"], 5)
		})
	}
}

func TestApplySaveRoundTrip(t *testing.T) {
	m := readManifest(t, `{"name": "laravel/laravel"}`)
	Apply(m, Hooks{"pre-push": {"./vendor/bin/phpunit"}})
	require.NoError(t, m.Save())

	data, err := os.ReadFile(m.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"./vendor/bin/phpunit"`)

	reread, err := composer.Read(m.Path)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"./vendor/bin/phpunit"}, reread.Section("extra")["hooks"].(map[string]interface{})["pre-push"])
}

func TestClearAndRemove(t *testing.T) {
	m := readManifest(t, `{"name": "laravel/laravel", "scripts": {"post-update-cmd": ["@php artisan optimize"]}}`)
	assert.False(t, Clear(m))

	Apply(m, DefaultHooks())
	require.True(t, Clear(m))
	hooks := m.Section("extra")["hooks"].(map[string]interface{})
	assert.Equal(t, []interface{}{}, hooks["pre-commit"])

	Remove(m)
	assert.NotContains(t, m.Section("extra"), "hooks")
	scripts := m.Section("scripts")
	assert.NotContains(t, scripts, "cghooks")
	assert.NotContains(t, scripts, "post-install-cmd")
	assert.Equal(t, []interface{}{"@php artisan optimize"}, scripts["post-update-cmd"])
}

func TestInstallerSkipsWithoutBinary(t *testing.T) {
	ran, err := NewInstaller(nil).Update(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.False(t, ran)
}
