package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/pi/api"
)

// maxConcurrentFetches bounds the timeseries requests in flight
const maxConcurrentFetches = 4

// timeseriesCmd represents the timeseries command
var timeseriesCmd = &cobra.Command{
	Use:     "timeseries <id>...",
	Aliases: []string{"ts"},
	Short:   "Summarize the timeseries correlated with questions",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids := make([]int64, len(args))
		for i, arg := range args {
			id, err := parseQuestionID(arg)
			if err != nil {
				return err
			}
			ids[i] = id
		}

		// Each goroutine owns its slot, output keeps argument order
		results := make([][]api.Timeseries, len(ids))

		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(maxConcurrentFetches)

		for i, id := range ids {
			g.Go(func() error {
				series, err := client.ListQuestionTimeseries(ctx, id)
				if err != nil {
					return fmt.Errorf("failed to get timeseries of question %d: %w", id, err)
				}
				logger.Debug().Int64("question_id", id).Int("count", len(series)).Msg("Fetched timeseries")
				results[i] = series
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for i, id := range ids {
			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprint(out, formatter.FormatTimeseries(id, results[i]))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(timeseriesCmd)
}
