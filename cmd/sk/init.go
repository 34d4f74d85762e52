package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"starterkit/internal/config"
	"starterkit/internal/errors"
	"starterkit/internal/logging"
)

var (
	initForce bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize starter kit configuration",
	Long:  "Creates a .starterkit/ directory with default configuration in the project root",
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Force reinitialization (removes existing .starterkit directory)")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	logger := logging.NewLogger(logging.Config{
		Format: logging.HumanFormat,
		Level:  logging.InfoLevel,
	})

	root, err := getRoot()
	if err != nil {
		return errors.NewKitError(errors.InternalError, "Failed to resolve project root", err, nil)
	}

	dir := filepath.Join(root, config.Dir)
	if _, statErr := os.Stat(dir); statErr == nil {
		if !initForce {
			fmt.Println("Starter kit already initialized.")
			fmt.Printf("Configuration at: %s\n", filepath.Join(dir, "config.json"))
			fmt.Println("\nRun 'sk init --force' to reinitialize.")
			return nil
		}
		if removeErr := os.RemoveAll(dir); removeErr != nil {
			return errors.NewKitError(errors.InternalError, "Failed to remove existing .starterkit directory", removeErr, nil)
		}
		logger.Info("Removed existing .starterkit directory", nil)
	}

	if err := config.DefaultConfig().Save(root); err != nil {
		return errors.NewKitError(errors.InternalError, "Failed to write config file", err, nil)
	}

	fmt.Println("Initialized starter kit.")
	fmt.Printf("Configuration at: %s\n", filepath.Join(dir, "config.json"))
	return nil
}
