package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "divsim",
	Short: "Monte Carlo stress testing for a dividend income + margin strategy",
	Long: `Divsim simulates a four-layer portfolio (growth equities, income
buckets, a single growth stock, and a leveraged inverse hedge) month by
month across thousands of market scenarios.

It provides tools for:
  - Running regime-based Monte Carlo simulations from a YAML config
  - Aggregating percentile statistics and milestone probabilities
  - Exporting per-scenario results as CSV and summaries as JSON
  - Generating and validating configuration files`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
