package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openlearnhq/experiments/internal/cli"
	"github.com/openlearnhq/experiments/internal/client"
	"github.com/openlearnhq/experiments/internal/flags"
)

var (
	flagsEnabledOnly bool

	setDescription string
	setEnabled     bool
	setDisabled    bool
	setRollout     int32
	setAudience    string
)

var flagsCmd = &cobra.Command{
	Use:   "flags",
	Short: "Manage experiment feature flags",
}

var flagsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List experiment flags",
	Long: `List all experiment flags in the specified environment.

Examples:
  expctl flags list --env prod
  expctl flags list --env prod --format json
  expctl flags list --env prod --enabled-only`,
	RunE: func(cmd *cobra.Command, args []string) error {
		envCfg, effectiveEnv, err := cli.GetEnvConfig(env, baseURL, apiKey)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		c := client.NewClient(envCfg.BaseURL, envCfg.APIKey)
		list, err := c.ListFlags(context.Background(), effectiveEnv)
		if err != nil {
			return fmt.Errorf("failed to list flags: %w", err)
		}

		if flagsEnabledOnly {
			var enabled []flags.Flag
			for _, f := range list {
				if f.Enabled {
					enabled = append(enabled, f)
				}
			}
			list = enabled
		}

		if quiet {
			return nil
		}
		if len(list) == 0 {
			fmt.Println("No flags found")
			return nil
		}
		return cli.PrintFlags(list, cli.OutputFormat(format))
	},
}

var flagsGetCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Show a single experiment flag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		envCfg, effectiveEnv, err := cli.GetEnvConfig(env, baseURL, apiKey)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		c := client.NewClient(envCfg.BaseURL, envCfg.APIKey)
		flag, err := c.GetFlag(context.Background(), args[0], effectiveEnv)
		if err != nil {
			return fmt.Errorf("failed to get flag: %w", err)
		}

		if quiet {
			return nil
		}
		return cli.PrintFlag(flag, cli.OutputFormat(format))
	},
}

var flagsSetCmd = &cobra.Command{
	Use:   "set <name>",
	Short: "Create or update an experiment flag",
	Long: `Create or update an experiment flag.

Examples:
  expctl flags set experiments.add_programs --enabled --rollout 50 --env prod
  expctl flags set experiments.add_program_price --disabled --env prod
  expctl flags set holdout --enabled --rollout 100 --audience '{"==": [{"var": "staff"}, true]}'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if setEnabled && setDisabled {
			return fmt.Errorf("--enabled and --disabled are mutually exclusive")
		}

		envCfg, effectiveEnv, err := cli.GetEnvConfig(env, baseURL, apiKey)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		params := client.UpsertFlagParams{
			Description: setDescription,
			Enabled:     setEnabled && !setDisabled,
			Rollout:     setRollout,
			Env:         effectiveEnv,
		}
		if setAudience != "" {
			params.Audience = &setAudience
		}

		c := client.NewClient(envCfg.BaseURL, envCfg.APIKey)
		flag, err := c.UpsertFlag(context.Background(), args[0], params)
		if err != nil {
			return fmt.Errorf("failed to upsert flag: %w", err)
		}

		if quiet {
			return nil
		}
		return cli.PrintFlag(flag, cli.OutputFormat(format))
	},
}

func init() {
	rootCmd.AddCommand(flagsCmd)
	flagsCmd.AddCommand(flagsListCmd)
	flagsCmd.AddCommand(flagsGetCmd)
	flagsCmd.AddCommand(flagsSetCmd)

	flagsListCmd.Flags().BoolVar(&flagsEnabledOnly, "enabled-only", false, "Show only enabled flags")

	flagsSetCmd.Flags().StringVar(&setDescription, "description", "", "Flag description")
	flagsSetCmd.Flags().BoolVar(&setEnabled, "enabled", false, "Enable the flag")
	flagsSetCmd.Flags().BoolVar(&setDisabled, "disabled", false, "Disable the flag")
	flagsSetCmd.Flags().Int32Var(&setRollout, "rollout", 100, "Rollout percentage (0-100)")
	flagsSetCmd.Flags().StringVar(&setAudience, "audience", "", "JSON Logic audience expression")
}
