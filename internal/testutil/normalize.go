package testutil

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
)

// RootPlaceholder replaces the fixture root in normalized output.
const RootPlaceholder = "$ROOT"

// Normalize deep-copies v through JSON and rewrites every string that
// mentions root so golden files do not depend on the temp directory.
func Normalize(t *testing.T, root string, v any) any {
	t.Helper()

	jsonBytes, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Failed to marshal data for normalization: %v", err)
	}

	var generic any
	if err := json.Unmarshal(jsonBytes, &generic); err != nil {
		t.Fatalf("Failed to unmarshal data for normalization: %v", err)
	}

	return normalizeValue(generic, root)
}

func normalizeValue(v any, root string) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[normalizeString(k, root)] = normalizeValue(item, root)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item, root)
		}
		return out
	case string:
		return normalizeString(val, root)
	default:
		return v
	}
}

func normalizeString(s, root string) string {
	if root != "" {
		s = strings.ReplaceAll(s, root, RootPlaceholder)
	}
	if strings.Contains(s, RootPlaceholder) {
		s = filepath.ToSlash(s)
	}
	return s
}
