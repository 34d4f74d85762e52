// Package version holds the build information reported by sk version.
package version

import "runtime"

// Set at build time:
// go build -ldflags "-X starterkit/internal/version.Version=0.4.0 -X starterkit/internal/version.Commit=abc123"
var (
	// Version is the semantic version of the starter kit
	Version = "0.4.0"

	// Commit is the git commit hash (set at build time)
	Commit = "unknown"

	// BuildDate is the build timestamp (set at build time)
	BuildDate = "unknown"
)

// Info returns the version, with the short commit when one was stamped.
func Info() string {
	if Commit != "unknown" && len(Commit) > 7 {
		return Version + " (" + Commit[:7] + ")"
	}
	return Version
}

// Full returns every build detail, one per line.
func Full() string {
	return "sk version " + Version + "\n" +
		"Commit: " + Commit + "\n" +
		"Built: " + BuildDate + "\n" +
		"Go: " + runtime.Version()
}
