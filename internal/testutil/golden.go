package testutil

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// updateGolden controls whether golden files should be rewritten.
// Use: go test ./... -run TestGolden -update
var updateGolden = flag.Bool("update", false, "update golden files")

// ShouldUpdate returns true if golden files should be updated.
func ShouldUpdate() bool {
	return *updateGolden
}

// GoldenPath returns testdata/golden/<name>.json under the module root.
func GoldenPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(projectRoot(t), "testdata", "golden", name+".json")
}

// CompareGolden normalizes got against root and compares it with the golden
// file, failing with a diff on mismatch. With -update the file is rewritten.
func CompareGolden(t *testing.T, root string, name string, got any) {
	t.Helper()

	normalized := MarshalNormalized(t, root, got)
	goldenPath := GoldenPath(t, name)

	if *updateGolden {
		if err := os.MkdirAll(filepath.Dir(goldenPath), 0o755); err != nil {
			t.Fatalf("Failed to create golden directory: %v", err)
		}
		if err := os.WriteFile(goldenPath, normalized, 0o644); err != nil {
			t.Fatalf("Failed to write golden file: %v", err)
		}
		t.Logf("Updated golden: %s", goldenPath)
		return
	}

	expected, err := os.ReadFile(goldenPath)
	if err != nil {
		if os.IsNotExist(err) {
			t.Fatalf("Golden file missing: %s\n\nGot:\n%s\n\nRun with -update to create:\n  go test ./... -run %s -update",
				goldenPath, string(normalized), t.Name())
		}
		t.Fatalf("Failed to read golden file: %v", err)
	}

	if !bytes.Equal(normalized, expected) {
		t.Fatalf("Golden mismatch for %s:\n%s\n\nRun with -update to refresh:\n  go test ./... -run %s -update",
			name, lineDiff(string(expected), string(normalized), goldenPath), t.Name())
	}
}

// MarshalNormalized returns indented JSON with root-relative paths and a
// trailing newline.
func MarshalNormalized(t *testing.T, root string, v any) []byte {
	t.Helper()

	data, err := json.MarshalIndent(Normalize(t, root, v), "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal golden data: %v", err)
	}
	return append(data, '\n')
}

// lineDiff reports the differing lines of two texts.
func lineDiff(expected, got, path string) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "--- %s (expected)\n+++ %s (got)\n", path, path)

	expLines := strings.Split(expected, "\n")
	gotLines := strings.Split(got, "\n")
	n := len(expLines)
	if len(gotLines) > n {
		n = len(gotLines)
	}
	for i := 0; i < n; i++ {
		var e, g string
		if i < len(expLines) {
			e = expLines[i]
		}
		if i < len(gotLines) {
			g = gotLines[i]
		}
		if e == g {
			continue
		}
		fmt.Fprintf(&buf, "@@ line %d @@\n-%s\n+%s\n", i+1, e, g)
	}
	return buf.String()
}
