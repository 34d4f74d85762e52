package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"starterkit/internal/config"
	"starterkit/internal/manifest"
	"starterkit/internal/paths"
)

var (
	providersFormat string
	providersWrite  bool
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List the providers of the project",
	Long: `List the providers declared in the providers file. Without one, providers
are discovered by convention: classes ending in ServiceProvider under a
Providers directory. Use --write to save the discovered list.`,
	Run: runProviders,
}

func init() {
	providersCmd.Flags().StringVar(&providersFormat, "format", "human", "Output format (json, human)")
	providersCmd.Flags().BoolVar(&providersWrite, "write", false, "Write the providers file from the listed providers")
	rootCmd.AddCommand(providersCmd)
}

// ProvidersResponseCLI lists provider declarations
type ProvidersResponseCLI struct {
	Root      string            `json:"root"`
	Source    string            `json:"source"`
	Providers []ProviderDeclCLI `json:"providers"`
	Written   string            `json:"written,omitempty"`
}

// ProviderDeclCLI is one declared provider
type ProviderDeclCLI struct {
	Class    string `json:"class"`
	Location string `json:"location"`
}

func runProviders(cmd *cobra.Command, args []string) {
	ctx := newContext()
	root := mustGetRoot()
	env := mustOpenKit(ctx, root, providersFormat)
	defer env.Close()

	file := env.cfg.Discovery.ProvidersFile
	if file == "" {
		file = manifest.DeclarationFile
	}

	source := file
	decls, err := manifest.LoadDeclaredProviders(root, file)
	if err == nil && decls == nil {
		source = "convention"
		decls, err = manifest.NewScanner(env.indexer, env.cfg.Discovery.Ignore, env.logger).Discover(ctx, root)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading providers: %v\n", err)
		env.Close()
		os.Exit(1)
	}

	resp := &ProvidersResponseCLI{
		Root:      root,
		Source:    source,
		Providers: make([]ProviderDeclCLI, 0, len(decls)),
	}
	for _, d := range decls {
		resp.Providers = append(resp.Providers, ProviderDeclCLI{
			Class:    d.Type,
			Location: paths.Display(d.Location, root),
		})
	}

	if providersWrite {
		target := config.ResolvePath(root, file)
		// locations are stored root-relative
		out := make([]manifest.Declaration, len(decls))
		for i, d := range decls {
			d.Location = paths.Display(d.Location, root)
			out[i] = d
		}
		if err := manifest.WriteProvidersFile(target, out); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", target, err)
			env.Close()
			os.Exit(1)
		}
		resp.Written = paths.Display(target, root)
	}

	output, err := FormatResponse(resp, OutputFormat(providersFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		env.Close()
		os.Exit(1)
	}
	fmt.Println(output)
}
