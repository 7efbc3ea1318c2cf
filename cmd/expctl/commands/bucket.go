package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openlearnhq/experiments/internal/bucketing"
	"github.com/openlearnhq/experiments/internal/cli"
)

var (
	bucketCount  int
	bucketSample int
)

var bucketCmd = &cobra.Command{
	Use:   "bucket <experiment> [username]",
	Short: "Compute a stable experiment bucket assignment",
	Long: `Compute the stable bucket a user lands in for an experiment.

The assignment is computed locally with the same hash the service uses, so
it matches what any server or other platform client would return for the
same experiment, username and group count.

Examples:
  expctl bucket my_experiment alice --count 10
  expctl bucket my_experiment --count 4 --sample 1000`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		experiment := args[0]

		if bucketSample > 0 {
			return runBucketSample(experiment)
		}

		if len(args) < 2 {
			return fmt.Errorf("username is required unless --sample is given")
		}
		username := args[1]

		bucket, err := bucketing.Assign(experiment, username, bucketCount)
		if err != nil {
			return err
		}

		if quiet {
			fmt.Println(bucket)
			return nil
		}

		switch cli.OutputFormat(format) {
		case cli.FormatJSON:
			return cli.PrintJSON(map[string]any{
				"experiment":  experiment,
				"username":    username,
				"group_count": bucketCount,
				"bucket":      bucket,
			})
		case cli.FormatYAML:
			return cli.PrintYAML(map[string]any{
				"experiment":  experiment,
				"username":    username,
				"group_count": bucketCount,
				"bucket":      bucket,
			})
		default:
			return cli.PrintBucketTable(experiment, bucketCount, map[string]int{username: bucket}, []string{username})
		}
	},
}

// runBucketSample assigns synthetic users and prints how many land in each
// bucket, which is handy for eyeballing the split before launching.
func runBucketSample(experiment string) error {
	counts := make([]int, bucketCount)
	for i := 0; i < bucketSample; i++ {
		username := fmt.Sprintf("user%d", i)
		bucket, err := bucketing.Assign(experiment, username, bucketCount)
		if err != nil {
			return err
		}
		counts[bucket]++
	}

	for bucket, n := range counts {
		fmt.Printf("bucket %d: %d (%.1f%%)\n", bucket, n, 100*float64(n)/float64(bucketSample))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(bucketCmd)

	bucketCmd.Flags().IntVar(&bucketCount, "count", 2, "Number of experiment groups")
	bucketCmd.Flags().IntVar(&bucketSample, "sample", 0, "Assign N synthetic users and print the distribution")
}
