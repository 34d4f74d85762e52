package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"starterkit/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rediscover paths whenever the project changes",
	Long: `Watch the project tree and, after each debounced batch of changes, flush
the discovery cache and register every provider again.`,
	Run: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := mustGetRoot()
	env := mustOpenKit(ctx, root, "human")
	defer env.Close()

	if _, err := env.register(ctx); err != nil {
		env.logger.Warn("Initial registration failed", map[string]interface{}{"error": err.Error()})
	}

	cfg := watcher.DefaultConfig()
	if env.cfg.Watch.DebounceMs > 0 {
		cfg.DebounceMs = env.cfg.Watch.DebounceMs
	}

	w, err := watcher.New(cfg, env.logger, func(events []watcher.Event) {
		if ctx.Err() != nil {
			return
		}
		env.registry.Flush(ctx)
		domains, err := env.register(ctx)
		if err != nil {
			env.logger.Error("Rediscovery failed", map[string]interface{}{"error": err.Error()})
			return
		}
		env.logger.Info("Rediscovered paths", map[string]interface{}{
			"changes":   len(events),
			"providers": len(domains),
		})
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating watcher: %v\n", err)
		env.Close()
		os.Exit(1)
	}
	if err := w.Watch(root); err != nil {
		fmt.Fprintf(os.Stderr, "Error watching %s: %v\n", root, err)
		env.Close()
		os.Exit(1)
	}

	env.logger.Info("Watching for changes", w.Stats())
	if err := w.Run(ctx); err != nil {
		env.logger.Error("Watcher stopped", map[string]interface{}{"error": err.Error()})
	}
}
