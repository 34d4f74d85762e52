// Package githooks manages the git hook scripts a project installs through
// composer's cghooks plugin.
package githooks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"time"

	"github.com/BurntSushi/toml"

	"starterkit/internal/composer"
	"starterkit/internal/logging"
)

// Hooks maps a git hook name to the shell commands it runs.
type Hooks map[string][]string

// DefaultHooks returns the hooks published by default.
func DefaultHooks() Hooks {
	return Hooks{
		"pre-commit": {
			"echo Committing codes as $(git config user.name)",
			"echo Running Laravel Pint...",
			"./vendor/bin/pint",
			"echo Adding changes by Laravel Pint to staging area...",
			"git add .",
		},
		"pre-push": {
			"echo Pushing codes as $(git config user.name)",
			"git fetch",
		},
	}
}

// Names returns the hook names, sorted.
func (h Hooks) Names() []string {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load reads hooks from a TOML file. A missing file yields the defaults.
func Load(path string) (Hooks, error) {
	hooks := Hooks{}
	if _, err := toml.DecodeFile(path, &hooks); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultHooks(), nil
		}
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return hooks, nil
}

// Publish writes the default hooks file. An existing file is kept unless
// force is set. It reports whether the file was written.
func Publish(path string, force bool) (bool, error) {
	if _, err := os.Stat(path); err == nil && !force {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}

	f, err := os.Create(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	fmt.Fprintln(f, "# Git hooks installed through cghooks. Every key is a hook name")
	fmt.Fprintln(f, "# (https://git-scm.com/docs/githooks) listing the commands it runs.")
	fmt.Fprintln(f)
	if err := toml.NewEncoder(f).Encode(DefaultHooks()); err != nil {
		return false, err
	}
	return true, nil
}

const cghooksScript = "./vendor/bin/cghooks"

// lifecycle are the composer script events that keep hooks installed.
var lifecycle = []struct {
	event   string
	command string
}{
	{"post-update-cmd", "cghooks update"},
	{"post-install-cmd", "cghooks add --ignore-lock"},
}

// Apply sets extra.hooks and registers the cghooks scripts in m.
func Apply(m *composer.Manifest, hooks Hooks) {
	extra := m.Section("extra")
	extra["hooks"] = hooksValue(hooks)

	scripts := m.Section("scripts")
	scripts["cghooks"] = cghooksScript

	for _, lc := range lifecycle {
		switch target := scripts[lc.event].(type) {
		case nil:
			scripts[lc.event] = lc.command
		case []interface{}:
			if !containsCommand(target, lc.command) {
				scripts[lc.event] = append(target, lc.command)
			}
		default:
			if target != lc.command {
				scripts[lc.event] = []interface{}{target, lc.command}
			}
		}
	}
}

// Clear empties every hook in extra.hooks, so a cghooks update uninstalls
// them. It reports whether there were hooks to clear.
func Clear(m *composer.Manifest) bool {
	if !m.Has("extra") {
		return false
	}
	hooks, ok := m.Section("extra")["hooks"].(map[string]interface{})
	if !ok {
		return false
	}
	for name := range hooks {
		hooks[name] = []interface{}{}
	}
	return true
}

// Remove drops extra.hooks, the cghooks script and the lifecycle commands
// Apply added.
func Remove(m *composer.Manifest) {
	m.Delete("extra", "hooks")
	m.Delete("scripts", "cghooks")
	if !m.Has("scripts") {
		return
	}

	scripts := m.Section("scripts")
	for _, lc := range lifecycle {
		switch target := scripts[lc.event].(type) {
		case []interface{}:
			kept := make([]interface{}, 0, len(target))
			for _, c := range target {
				if c != lc.command {
					kept = append(kept, c)
				}
			}
			scripts[lc.event] = kept
		case string:
			if target == lc.command {
				delete(scripts, lc.event)
			}
		}
	}
}

func hooksValue(hooks Hooks) map[string]interface{} {
	out := make(map[string]interface{}, len(hooks))
	for name, cmds := range hooks {
		list := make([]interface{}, len(cmds))
		for i, c := range cmds {
			list[i] = c
		}
		out[name] = list
	}
	return out
}

func containsCommand(list []interface{}, command string) bool {
	for _, c := range list {
		if c == command {
			return true
		}
	}
	return false
}

// Installer runs cghooks for the project in dir.
type Installer struct {
	Timeout time.Duration
	logger  *logging.Logger
}

// NewInstaller returns an installer with the default timeout.
func NewInstaller(logger *logging.Logger) *Installer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Installer{Timeout: 30 * time.Second, logger: logger}
}

// Update runs vendor/bin/cghooks update in dir. It reports false without
// error when the binary is not installed.
func (in *Installer) Update(ctx context.Context, dir string) (bool, error) {
	bin := filepath.Join(dir, "vendor", "bin", "cghooks")
	if _, err := os.Stat(bin); err != nil {
		in.logger.Warn("cghooks is not installed, skipping hook update", map[string]interface{}{
			"path": bin,
		})
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, in.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, bin, "update")
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return false, fmt.Errorf("cghooks update: %w: %s", err, out)
	}
	return true, nil
}
