package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lbvhgo/lbvh/pkg/config"
	"github.com/lbvhgo/lbvh/pkg/utils"
)

var (
	// Global flags
	verbose    bool
	configPath string

	logger utils.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "lbvhctl",
	Short: "Build and inspect GPU-style parallel BVH trees from the command line",
	Long: `lbvhctl is a CLI for the lbvh builder.

It runs the same Morton-code linear BVH construction the scheduler runs
for queued jobs, but against a dataset or a synthetic scene you pick
directly, and prints the resulting counts and per-phase timings.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logLevel := utils.LevelInfo
		if verbose {
			logLevel = utils.LevelDebug
		}
		logger = utils.NewDefaultLogger(logLevel, os.Stdout)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (defaults to built-in defaults)")

	binName := BinName()
	rootCmd.Example = `  # Build a tree over a dataset staged on local disk
  ` + binName + ` build -i datasets/scene.json --leaf-threshold 8

  # Benchmark the builder against a synthetic scene
  ` + binName + ` bench -n 1000000 --dim 3

  # List recent runs recorded by the scheduler
  ` + binName + ` history --limit 20`
}

// GetLogger returns the configured logger.
func GetLogger() utils.Logger {
	return logger
}

// BinName returns the base name of the current executable.
func BinName() string {
	return filepath.Base(os.Args[0])
}

// loadConfig loads the application config from configPath, falling back
// to built-in defaults when no path was given.
func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Load("")
	}
	return config.Load(configPath)
}
