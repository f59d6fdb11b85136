// Package commands implements the quarry CLI.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	// Global flags.
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "quarry",
	Short: "Quarry - Lightweight Maven repository manager",
	Long: `Quarry is a lightweight Maven artifact repository manager. It serves
and accepts Maven artifacts over HTTP, tracks download statistics, and is
managed through access tokens and a REST API.

Use "quarry [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI. Called by main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/quarry/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(consoleCmd)
	rootCmd.AddCommand(tokenCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
