package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"starterkit/internal/binder"
	"starterkit/internal/config"
	"starterkit/internal/envfile"
	"starterkit/internal/paths"
	"starterkit/internal/settings"
)

var (
	bootFormat      string
	bootCheck       bool
	bootRoutesCache bool
)

var bootCmd = &cobra.Command{
	Use:   "boot",
	Short: "Run register and boot for every provider and print the wiring plan",
	Long: `Run both phases for every provider against recording collaborators and print
what would be wired: configs, helpers, migrations, translations, route groups
and resource bindings. With --check, bindings naming a class that no longer
exists are rejected, which flushes the cache the way a live boot would.
Env defaults are written to the env file when env.publish is enabled.`,
	Run: runBoot,
}

func init() {
	bootCmd.Flags().StringVar(&bootFormat, "format", "human", "Output format (json, human)")
	bootCmd.Flags().BoolVar(&bootCheck, "check", true, "Reject bindings to classes missing from the source tree")
	bootCmd.Flags().BoolVar(&bootRoutesCache, "routes-cached", false, "Skip route loading as if routes were cached")
	rootCmd.AddCommand(bootCmd)
}

func runBoot(cmd *cobra.Command, args []string) {
	ctx := newContext()
	root := mustGetRoot()
	env := mustOpenKit(ctx, root, bootFormat)
	defer env.Close()

	providers, err := env.providers(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading providers: %v\n", err)
		os.Exit(1)
	}

	rec := binder.NewRecorder()
	if bootCheck {
		classes, err := env.indexer.BuildClassMap(ctx, root)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error indexing classes: %v\n", err)
			os.Exit(1)
		}
		rec.ClassExists = func(fqcn string) bool {
			_, ok := classes[fqcn]
			return ok
		}
	}

	collab := rec.Collaborators(settings.New())
	opts := binder.OptionsFromConfig(env.cfg)
	opts.RoutesCached = bootRoutesCache
	if opts.PublishEnv {
		collab.Env = envfile.NewPublisher(config.ResolvePath(root, env.cfg.Env.Path), env.logger)
	}

	b := binder.New(env.registry, collab, opts, env.logger)
	if err := binder.Bootstrap(ctx, b.Domains(providers)...); err != nil {
		fmt.Fprintf(os.Stderr, "Error booting providers: %v\n", err)
		os.Exit(1)
	}

	resp := &BootResponseCLI{
		Root:      root,
		Providers: convertProviders(root, env.registry.Providers()),
		Plan:      relativePlan(rec.Plan, root),
	}
	output, err := FormatResponse(resp, OutputFormat(bootFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)

	if len(rec.Plan.Failures) > 0 {
		env.Close()
		os.Exit(2)
	}
}

// BootResponseCLI is the recorded boot plan
type BootResponseCLI struct {
	Root      string        `json:"root"`
	Providers []ProviderCLI `json:"providers"`
	Plan      binder.Plan   `json:"plan"`
}

// relativePlan rewrites the file paths of plan relative to root.
func relativePlan(plan binder.Plan, root string) binder.Plan {
	rel := func(list []string) []string {
		out := make([]string, len(list))
		for i, p := range list {
			out[i] = paths.Display(p, root)
		}
		return out
	}

	plan.Configs = rel(plan.Configs)
	plan.Helpers = rel(plan.Helpers)
	plan.Migrations = rel(plan.Migrations)

	translations := make([]binder.Translation, len(plan.Translations))
	for i, tr := range plan.Translations {
		tr.Path = paths.Display(tr.Path, root)
		translations[i] = tr
	}
	plan.Translations = translations

	routes := make([]binder.RouteRegistration, len(plan.Routes))
	for i, r := range plan.Routes {
		r.File = paths.Display(r.File, root)
		routes[i] = r
	}
	plan.Routes = routes
	return plan
}
