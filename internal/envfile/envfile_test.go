package envfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublish_AppendsOnlyMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("APP_NAME=demo"), 0o644))

	p := NewPublisher(path, nil)
	wrote, err := p.Publish("acme/billing (Invoices)", map[string]string{
		"APP_NAME":         "ignored",
		"BILLING_CURRENCY": "EUR",
		"BILLING_RETRIES":  "3",
	})
	require.NoError(t, err)
	assert.True(t, wrote)

	env, err := p.Read()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"APP_NAME":         "demo",
		"BILLING_CURRENCY": "EUR",
		"BILLING_RETRIES":  "3",
	}, env)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "APP_NAME=demo\n\n# acme/billing (Invoices)\n"), string(data))
}

func TestPublish_NothingMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	p := NewPublisher(path, nil)

	wrote, err := p.Publish("Laravel", map[string]string{"A": "1"})
	require.NoError(t, err)
	assert.True(t, wrote)

	before, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(before), "# Laravel\n"))

	wrote, err = p.Publish("Laravel", map[string]string{"A": "2"})
	require.NoError(t, err)
	assert.False(t, wrote)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRead_MissingFile(t *testing.T) {
	env, err := NewPublisher(filepath.Join(t.TempDir(), ".env"), nil).Read()
	require.NoError(t, err)
	assert.Empty(t, env)
}
