package paths

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultMaxLevels is the depth bound used when callers do not pick one.
const DefaultMaxLevels = 3

// GuessOptions controls a Guess search.
type GuessOptions struct {
	// Up walks ancestors instead of descending into subdirectories.
	Up bool
	// MaxLevels bounds the search; level 0 (the start directory) is always checked.
	MaxLevels int
	// Ignore lists directory basenames never descended into.
	Ignore []string
}

// SourceDir turns a declaring location into the directory a search starts from.
// Directories are returned as-is; files and paths that do not exist resolve to
// their parent directory.
func SourceDir(location string) string {
	location = filepath.Clean(location)
	if IsDir(location) {
		return location
	}
	return filepath.Dir(location)
}

// Guess looks for each target (a relative path such as "routes" or
// "database/migrations") starting at source. Found targets are removed from the
// search, so the shallowest match wins; unfound targets are absent from the
// result.
func Guess(source string, targets []string, opts GuessOptions) map[string]string {
	found := make(map[string]string, len(targets))
	remaining := make([]string, 0, len(targets))
	seen := make(map[string]bool, len(targets))
	for _, t := range targets {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		remaining = append(remaining, t)
	}

	remaining = checkDir(source, remaining, found)
	if len(remaining) == 0 {
		return found
	}

	maxLevels := opts.MaxLevels
	if maxLevels < 0 {
		maxLevels = 0
	}

	if opts.Up {
		dir := source
		for level := 1; level <= maxLevels && len(remaining) > 0; level++ {
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
			remaining = checkDir(dir, remaining, found)
		}
		return found
	}

	ignore := make(map[string]bool, len(opts.Ignore))
	for _, name := range opts.Ignore {
		ignore[name] = true
	}

	frontier := []string{source}
	for level := 1; level <= maxLevels && len(remaining) > 0 && len(frontier) > 0; level++ {
		var next []string
		for _, dir := range frontier {
			next = append(next, subdirectories(dir, ignore)...)
		}
		for _, dir := range next {
			remaining = checkDir(dir, remaining, found)
			if len(remaining) == 0 {
				break
			}
		}
		frontier = next
	}

	return found
}

// GuessOne is Guess for a single target.
func GuessOne(source, target string, opts GuessOptions) (string, bool) {
	found := Guess(source, []string{target}, opts)
	p, ok := found[target]
	return p, ok
}

// checkDir records every remaining target present in dir and returns the
// targets still missing.
func checkDir(dir string, remaining []string, found map[string]string) []string {
	missing := remaining[:0:0]
	for _, target := range remaining {
		candidate := filepath.Join(dir, filepath.FromSlash(target))
		if Exists(candidate) {
			found[target] = candidate
			continue
		}
		missing = append(missing, target)
	}
	return missing
}

// subdirectories lists the non-hidden child directories of dir in
// lexicographic order.
func subdirectories(dir string, ignore map[string]bool) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	dirs := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() || strings.HasPrefix(name, ".") || ignore[name] {
			continue
		}
		dirs = append(dirs, filepath.Join(dir, name))
	}
	sort.Strings(dirs)
	return dirs
}
