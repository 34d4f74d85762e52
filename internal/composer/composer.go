// Package composer reads and writes composer.json manifests.
package composer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	kerrors "starterkit/internal/errors"
	"starterkit/internal/paths"
)

// FileName is the manifest file searched for above a provider.
const FileName = "composer.json"

// Manifest is a decoded composer.json. Unknown keys are preserved.
type Manifest struct {
	Path string
	data map[string]interface{}
}

// Read loads the manifest at path.
func Read(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	data := map[string]interface{}{}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, kerrors.NewKitError(kerrors.ManifestInvalid,
				fmt.Sprintf("failed to parse %s", path), err, nil)
		}
	}
	return &Manifest{Path: path, data: data}, nil
}

// Find searches upward from dir for a composer.json, checking at most
// maxLevels ancestors, and returns its path.
func Find(dir string, maxLevels int) (string, bool) {
	return paths.GuessOne(dir, FileName, paths.GuessOptions{Up: true, MaxLevels: maxLevels})
}

// Name returns the "name" field, or "" when absent.
func (m *Manifest) Name() string {
	name, _ := m.data["name"].(string)
	return name
}

// Dir returns the directory holding the manifest.
func (m *Manifest) Dir() string {
	return filepath.Dir(m.Path)
}

// Section returns the object at key, creating it when absent or not an
// object.
func (m *Manifest) Section(key string) map[string]interface{} {
	sec, ok := m.data[key].(map[string]interface{})
	if !ok {
		sec = map[string]interface{}{}
		m.data[key] = sec
	}
	return sec
}

// Has reports whether the top-level key exists.
func (m *Manifest) Has(key string) bool {
	_, ok := m.data[key]
	return ok
}

// Delete removes sub from the object at key. Empty parents are kept.
func (m *Manifest) Delete(key, sub string) {
	if sec, ok := m.data[key].(map[string]interface{}); ok {
		delete(sec, sub)
	}
}

// Encode renders the manifest with four-space indentation and unescaped
// slashes, the layout composer itself writes.
func (m *Manifest) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(m.data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the manifest back to its path.
func (m *Manifest) Save() error {
	out, err := m.Encode()
	if err != nil {
		return err
	}
	return os.WriteFile(m.Path, out, 0o644)
}
