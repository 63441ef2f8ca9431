package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
	version = "dev" // Will be set by build flags
)

var rootCmd = &cobra.Command{
	Use:   "isocalc",
	Short: "Offline isotopic fine-structure calculator",
	Long: `isocalc computes the isotopic fine structure of a molecule without the
HTTP service: give it a molecular formula and either a peak-probability
threshold or a total-probability coverage target, and it prints the
isotopologue peaks.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	rootCmd.AddCommand(calcCmd)
	rootCmd.AddCommand(elementsCmd)
}

// Commands are defined in separate files:
// - calcCmd and elementsCmd in calc.go

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
