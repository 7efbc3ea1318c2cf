package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	baseURL string
	apiKey  string
	env     string
	format  string
	quiet   bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "expctl",
	Short: "CLI tool for the experiments service",
	Long: `Expctl is a command-line tool for the experiments service.

It computes stable experiment bucket assignments, inspects user metadata
contexts, and manages experiment feature flags.

Examples:
  expctl bucket my_experiment alice --count 10
  expctl metadata alice course-v1:edX+DemoX+Demo --env prod
  expctl flags list --env prod
  expctl flags set experiments.add_programs --enabled --rollout 50 --env prod`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Base URL of the experiments API")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "API key for authentication")
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "Environment (dev, staging, prod)")
	rootCmd.PersistentFlags().StringVar(&format, "format", "table", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Suppress output")
}
