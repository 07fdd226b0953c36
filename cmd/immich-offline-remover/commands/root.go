// Package commands implements the immich-offline-remover CLI.
package commands

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "immich-offline-remover",
	Short: "Trash Immich assets whose original files are gone",
	Long: `immich-offline-remover periodically compares the Immich asset catalog with
the filesystem and moves assets whose original file no longer exists to the
Immich trash. A missing-ratio safety gate aborts a run when too many files
appear to be missing at once.

Settings come from environment variables, optionally layered over a config file.
Running without a subcommand is the same as "serve".`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "optional config file (yaml, toml or json); environment variables override it")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(onceCmd)
	rootCmd.AddCommand(versionCmd)
}
