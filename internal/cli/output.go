// Package cli holds output formatting and configuration for the expctl tool.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/openlearnhq/experiments/internal/flags"
)

// OutputFormat specifies the output format for CLI commands.
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
)

// PrintFlags outputs flags in the specified format.
func PrintFlags(list []flags.Flag, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(list)
	case FormatYAML:
		return printYAML(list)
	case FormatTable:
		return printFlagTable(list)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// PrintFlag outputs a single flag in the specified format.
func PrintFlag(flag *flags.Flag, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(flag)
	case FormatYAML:
		return printYAML(flag)
	case FormatTable:
		return printFlagTable([]flags.Flag{*flag})
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// PrintJSON outputs any value as indented JSON. Used for metadata and
// dashboard payloads that have no table form.
func PrintJSON(data any) error {
	return printJSON(data)
}

// PrintYAML outputs any value as YAML.
func PrintYAML(data any) error {
	return printYAML(data)
}

func printJSON(data any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func printYAML(data any) error {
	encoder := yaml.NewEncoder(os.Stdout)
	defer encoder.Close()
	encoder.SetIndent(2)
	return encoder.Encode(data)
}

func printFlagTable(list []flags.Flag) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Name", "Enabled", "Rollout", "Env", "Description", "Updated At")

	for _, flag := range list {
		enabled := "false"
		if flag.Enabled {
			enabled = "true"
		}

		description := flag.Description
		if len(description) > 40 {
			description = description[:37] + "..."
		}

		table.Append(
			flag.Name,
			enabled,
			fmt.Sprintf("%d%%", flag.Rollout),
			flag.Env,
			description,
			flag.UpdatedAt.Format("2006-01-02 15:04"),
		)
	}

	return table.Render()
}

// PrintBucketTable renders experiment bucket assignments as a table:
// one row per username with its bucket.
func PrintBucketTable(experiment string, count int, assignments map[string]int, usernames []string) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Experiment", "Username", "Bucket")

	for _, username := range usernames {
		table.Append(experiment, username, fmt.Sprintf("%d/%d", assignments[username], count))
	}

	return table.Render()
}
