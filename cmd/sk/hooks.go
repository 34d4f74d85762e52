package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"starterkit/internal/composer"
	"starterkit/internal/config"
	"starterkit/internal/githooks"
)

var (
	hooksFormat string
	hooksForce  bool
)

var hooksCmd = &cobra.Command{
	Use:   "hooks",
	Short: "Manage git hooks installed through composer",
}

var hooksPublishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Write the default git hooks file",
	Run:   runHooksPublish,
}

var hooksApplyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Add the git hooks and cghooks scripts to composer.json",
	Run:   runHooksApply,
}

var hooksRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Uninstall the git hooks and remove them from composer.json",
	Run:   runHooksRemove,
}

func init() {
	hooksCmd.PersistentFlags().StringVar(&hooksFormat, "format", "human", "Output format (json, human)")
	hooksPublishCmd.Flags().BoolVar(&hooksForce, "force", false, "Overwrite an existing hooks file")
	hooksCmd.AddCommand(hooksPublishCmd, hooksApplyCmd, hooksRemoveCmd)
	rootCmd.AddCommand(hooksCmd)
}

// HooksResponseCLI reports a hooks operation
type HooksResponseCLI struct {
	Message   string   `json:"message"`
	File      string   `json:"file"`
	Hooks     []string `json:"hooks,omitempty"`
	Installed bool     `json:"installed"`
}

// hooksContext loads the project configuration without opening the cache.
func hooksContext() (string, *config.Config) {
	root := mustGetRoot()
	cfg, err := config.LoadConfig(root)
	if err != nil {
		cfg = config.DefaultConfig()
	}
	return root, cfg
}

func readRootManifest(root string, cfg *config.Config) *composer.Manifest {
	name := cfg.Discovery.ManifestName
	if name == "" {
		name = composer.FileName
	}
	m, err := composer.Read(filepath.Join(root, name))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load contents from %s: %v\n", name, err)
		os.Exit(1)
	}
	return m
}

func printHooks(resp *HooksResponseCLI) {
	output, err := FormatResponse(resp, OutputFormat(hooksFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}

func runHooksPublish(cmd *cobra.Command, args []string) {
	root, cfg := hooksContext()
	path := config.ResolvePath(root, cfg.GitHooks.File)

	wrote, err := githooks.Publish(path, hooksForce)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error publishing hooks file: %v\n", err)
		os.Exit(1)
	}

	msg := "Published git hooks file."
	if !wrote {
		msg = "Git hooks file already exists; use --force to overwrite."
	}
	printHooks(&HooksResponseCLI{Message: msg, File: path})
}

func runHooksApply(cmd *cobra.Command, args []string) {
	root, cfg := hooksContext()
	logger := newLogger(cfg, hooksFormat)

	hooks, err := githooks.Load(config.ResolvePath(root, cfg.GitHooks.File))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading hooks: %v\n", err)
		os.Exit(1)
	}

	m := readRootManifest(root, cfg)
	githooks.Apply(m, hooks)
	if err := m.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving %s: %v\n", m.Path, err)
		os.Exit(1)
	}

	installed, err := githooks.NewInstaller(logger).Update(newContext(), root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	printHooks(&HooksResponseCLI{
		Message:   "Applied git hooks.",
		File:      m.Path,
		Hooks:     hooks.Names(),
		Installed: installed,
	})
}

func runHooksRemove(cmd *cobra.Command, args []string) {
	root, cfg := hooksContext()
	logger := newLogger(cfg, hooksFormat)
	ctx := newContext()
	installer := githooks.NewInstaller(logger)

	m := readRootManifest(root, cfg)

	// empty hooks first so cghooks uninstalls them
	if githooks.Clear(m) {
		if err := m.Save(); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving %s: %v\n", m.Path, err)
			os.Exit(1)
		}
		if _, err := installer.Update(ctx, root); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	githooks.Remove(m)
	if err := m.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving %s: %v\n", m.Path, err)
		os.Exit(1)
	}
	printHooks(&HooksResponseCLI{Message: "Removed git hooks.", File: m.Path})
}
