// Package cli implements the sourcify command line interface.
package cli

import (
	"github.com/spf13/cobra"
)

var cfgFile string

// Execute runs the CLI
func Execute(version string) error {
	rootCmd := &cobra.Command{
		Use:     "sourcify",
		Short:   "Solidity source verification tool",
		Long:    `Sourcify verifies that uploaded source files are the true inputs recorded in a compiled contract's metadata.`,
		Version: version,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: sourcify.toml)")

	rootCmd.AddCommand(createValidateCmd())
	rootCmd.AddCommand(createServeCmd())

	return rootCmd.Execute()
}
