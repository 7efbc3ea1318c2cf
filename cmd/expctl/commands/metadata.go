package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openlearnhq/experiments/internal/cli"
	"github.com/openlearnhq/experiments/internal/client"
)

var metadataCmd = &cobra.Command{
	Use:   "metadata <username> <course-key>",
	Short: "Fetch the experiment metadata context for a user and course",
	Long: `Fetch the metadata context the service would hand to experiment
templates for the given user viewing the given course.

Examples:
  expctl metadata alice course-v1:edX+DemoX+Demo --env prod
  expctl metadata alice course-v1:edX+DemoX+Demo --env prod --format yaml`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		envCfg, _, err := cli.GetEnvConfig(env, baseURL, apiKey)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		c := client.NewClient(envCfg.BaseURL, envCfg.APIKey)
		meta, err := c.UserMetadata(context.Background(), args[0], args[1])
		if err != nil {
			return fmt.Errorf("failed to fetch metadata: %w", err)
		}

		if quiet {
			return nil
		}
		if cli.OutputFormat(format) == cli.FormatYAML {
			return cli.PrintYAML(meta)
		}
		return cli.PrintJSON(meta)
	},
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard <username>",
	Short: "Fetch the dashboard price map for a user",
	Long: `Fetch the course id to display price map for the user's enrollments.

Examples:
  expctl dashboard alice --env prod`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		envCfg, _, err := cli.GetEnvConfig(env, baseURL, apiKey)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		c := client.NewClient(envCfg.BaseURL, envCfg.APIKey)
		prices, err := c.Dashboard(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("failed to fetch dashboard: %w", err)
		}

		if quiet {
			return nil
		}
		if cli.OutputFormat(format) == cli.FormatYAML {
			return cli.PrintYAML(prices)
		}
		return cli.PrintJSON(prices)
	},
}

func init() {
	rootCmd.AddCommand(metadataCmd)
	rootCmd.AddCommand(dashboardCmd)
}
