package main

import (
	"github.com/spf13/cobra"

	"starterkit/internal/version"
)

var (
	// rootFlag is the project root; the working directory when empty
	rootFlag string
	// verboseFlag enables debug logging
	verboseFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "sk",
	Short: "sk - package and domain starter kit",
	Long: `sk discovers the conventional directories of every package and domain in a
modular application, links repositories, policies and observers to their models
by naming convention, and caches the result under one tag so it can be flushed
as a unit.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("sk version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&rootFlag, "root", "", "Project root (default: current directory)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug logging")
}
