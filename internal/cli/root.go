// Package cli wires the cobra command surface of bronzeload.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "bronzeload",
	Short: "Configuration-driven bulk loader for bronze staging tables",
	Long: `bronzeload ingests flat files into PostgreSQL staging tables.

A YAML registry at the dataset root declares which files go into which
tables and in what order. Each run replaces the previous contents of every
destination table, so reruns are safe and the bronze layer always reflects
the latest delivered files.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration or registry definition
  11 - Database connection failed
  12 - Destination staging table missing or inaccessible
  13 - Bulk ingestion failed
  14 - bronzeload.yaml not found at base path`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo()
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	// Declaring --help without a shorthand frees -h for --host.
	rootCmd.PersistentFlags().Bool("help", false, "Help for bronzeload")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}
