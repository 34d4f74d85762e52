package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"starterkit/internal/kit"
	"starterkit/internal/paths"
)

var (
	pathsFormat string
)

var pathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Register every provider and show the discovered directories",
	Long: `Identify every declared provider, discover the conventional directories of
its package or domain and print the resulting path table. Results are cached
under the main tag; run "sk cache clear" to rediscover.`,
	Run: runPaths,
}

func init() {
	pathsCmd.Flags().StringVar(&pathsFormat, "format", "human", "Output format (json, human)")
	rootCmd.AddCommand(pathsCmd)
}

func runPaths(cmd *cobra.Command, args []string) {
	start := time.Now()
	ctx := newContext()
	root := mustGetRoot()
	env := mustOpenKit(ctx, root, pathsFormat)
	defer env.Close()

	if _, err := env.register(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error registering providers: %v\n", err)
		os.Exit(1)
	}

	output, err := FormatResponse(buildPathsResponse(root, env.registry), OutputFormat(pathsFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)

	if pathsFormat == "human" {
		fmt.Printf("\n(Discovery took %dms)\n", time.Since(start).Milliseconds())
	}
}

// PathsResponseCLI is the registered path table
type PathsResponseCLI struct {
	Root      string        `json:"root"`
	Locations []LocationCLI `json:"locations"`
	Providers []ProviderCLI `json:"providers"`
}

// LocationCLI describes one registered package or domain. Paths are
// relative to the project root when inside it.
type LocationCLI struct {
	Package     string            `json:"package,omitempty"`
	Domain      string            `json:"domain,omitempty"`
	Path        string            `json:"path"`
	Directories map[string]string `json:"directories"`
	Files       int               `json:"files"`
	Classes     int               `json:"classes"`
}

// ProviderCLI is an identified provider
type ProviderCLI struct {
	Class   string `json:"class"`
	Package string `json:"package,omitempty"`
	Domain  string `json:"domain,omitempty"`
	Path    string `json:"path"`
}

func buildPathsResponse(root string, registry *kit.Registry) *PathsResponseCLI {
	resp := &PathsResponseCLI{
		Root:      root,
		Locations: []LocationCLI{},
		Providers: convertProviders(root, registry.Providers()),
	}

	for _, loc := range registry.Locations() {
		out := LocationCLI{
			Package:     loc.PackageID,
			Domain:      loc.DomainName,
			Path:        paths.Display(loc.RootPath, root),
			Directories: make(map[string]string, len(loc.Directories)),
		}
		for kind, entry := range loc.Directories {
			out.Directories[kind.String()] = paths.Display(entry.Path, root)
			out.Files += len(entry.Files)
			for _, classes := range entry.Classes {
				out.Classes += len(classes)
			}
		}
		resp.Locations = append(resp.Locations, out)
	}
	return resp
}

func convertProviders(root string, recs []kit.ProviderRecord) []ProviderCLI {
	out := make([]ProviderCLI, 0, len(recs))
	for _, rec := range recs {
		out = append(out, ProviderCLI{
			Class:   rec.TypeName,
			Package: rec.PackageID,
			Domain:  rec.DomainName,
			Path:    paths.Display(rec.PackagePath, root),
		})
	}
	return out
}
