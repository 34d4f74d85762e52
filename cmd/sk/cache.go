package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"starterkit/internal/storage"
)

var (
	cacheFormat string
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the discovery cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Flush every entry under the main tag",
	Run: func(cmd *cobra.Command, args []string) {
		runCache("clear")
	},
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache store statistics",
	Run: func(cmd *cobra.Command, args []string) {
		runCache("stats")
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete expired entries from the SQLite store",
	Run: func(cmd *cobra.Command, args []string) {
		runCache("prune")
	},
}

func init() {
	cacheCmd.PersistentFlags().StringVar(&cacheFormat, "format", "human", "Output format (json, human)")
	cacheCmd.AddCommand(cacheClearCmd, cacheStatsCmd, cachePruneCmd)
	rootCmd.AddCommand(cacheCmd)
}

// CacheResponseCLI reports a cache operation
type CacheResponseCLI struct {
	Action  string         `json:"action"`
	Driver  string         `json:"driver"`
	Tag     string         `json:"tag"`
	Flushed bool           `json:"flushed,omitempty"`
	Pruned  int64          `json:"pruned,omitempty"`
	Stats   *storage.Stats `json:"stats,omitempty"`
}

func runCache(action string) {
	ctx := newContext()
	root := mustGetRoot()
	env := mustOpenKit(ctx, root, cacheFormat)
	defer env.Close()

	resp := &CacheResponseCLI{
		Action: action,
		Driver: env.cfg.Cache.Driver,
		Tag:    env.cache.MainTag(),
	}

	sqlite, _ := env.store.(*storage.CacheStore)

	switch action {
	case "clear":
		resp.Flushed = env.registry.Flush(ctx)
	case "prune":
		if sqlite == nil {
			fmt.Fprintf(os.Stderr, "Error: prune needs the sqlite cache driver, not %q\n", env.cfg.Cache.Driver)
			env.Close()
			os.Exit(1)
		}
		n, err := sqlite.Prune(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error pruning cache: %v\n", err)
			env.Close()
			os.Exit(1)
		}
		resp.Pruned = n
	}

	if sqlite != nil {
		stats, err := sqlite.Stats(ctx)
		if err != nil {
			env.logger.Warn("Failed to read cache stats", map[string]interface{}{"error": err.Error()})
		} else {
			resp.Stats = &stats
		}
	}

	output, err := FormatResponse(resp, OutputFormat(cacheFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		env.Close()
		os.Exit(1)
	}
	fmt.Println(output)
}
