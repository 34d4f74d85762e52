package version

import (
	"strings"
	"testing"
)

func stamp(t *testing.T, version, commit, built string) {
	t.Helper()
	v, c, b := Version, Commit, BuildDate
	t.Cleanup(func() { Version, Commit, BuildDate = v, c, b })
	Version, Commit, BuildDate = version, commit, built
}

func TestInfo(t *testing.T) {
	tests := []struct {
		commit string
		want   string
	}{
		{"unknown", "0.9.1"},
		{"abc", "0.9.1"},
		{"1234567", "0.9.1"},
		{"12345678", "0.9.1 (1234567)"},
		{"abc1234567890", "0.9.1 (abc1234)"},
	}

	for _, tt := range tests {
		t.Run(tt.commit, func(t *testing.T) {
			stamp(t, "0.9.1", tt.commit, "unknown")
			if got := Info(); got != tt.want {
				t.Errorf("Info() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFull(t *testing.T) {
	stamp(t, "1.2.3", "abcdef123456", "2026-03-02")

	lines := strings.Split(Full(), "\n")
	if len(lines) != 4 {
		t.Fatalf("Full() has %d lines, want 4: %q", len(lines), lines)
	}
	if lines[0] != "sk version 1.2.3" {
		t.Errorf("first line = %q", lines[0])
	}
	if lines[1] != "Commit: abcdef123456" || lines[2] != "Built: 2026-03-02" {
		t.Errorf("build lines = %q", lines[1:3])
	}
	if !strings.HasPrefix(lines[3], "Go: go") {
		t.Errorf("go line = %q", lines[3])
	}
}

func TestDefaultVersionIsSemver(t *testing.T) {
	if parts := strings.Split(Version, "."); len(parts) != 3 {
		t.Errorf("Version %q is not major.minor.patch", Version)
	}
}
