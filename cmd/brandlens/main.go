package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var noColor bool

var rootCmd = &cobra.Command{
	Use:           "brandlens",
	Short:         "Brand visibility evaluation across LLM backends",
	Long:          "brandlens runs evaluation objectives against LLM backends and tracks\nhow partner brands show up in the answers: mentions, scores, ranking,\nand competitive positioning.",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(partnersCmd)
	rootCmd.AddCommand(productsCmd)
	rootCmd.AddCommand(objectivesCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(executionsCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
