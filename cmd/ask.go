package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/s0up4200/pi/api"
)

var (
	askDatasource  string
	askDiscordUser string
	askWait        bool
	askMaxPolls    int
	askInterval    time.Duration
)

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask <prompt>",
	Short: "Ask Pi a question",
	Long: `Submit a question to Pi. By default the question is returned as soon as
it is accepted; use --wait or --max-polls to follow its evaluation.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askDatasource, "datasource", "", "datasource to answer against (default from config)")
	askCmd.Flags().StringVar(&askDiscordUser, "discord-user", "", "ask on behalf of this Discord user id")
	askCmd.Flags().BoolVarP(&askWait, "wait", "w", false, "wait until the question is completed")
	askCmd.Flags().IntVar(&askMaxPolls, "max-polls", 0, "wait for at most this many refreshes")
	askCmd.Flags().DurationVar(&askInterval, "interval", 0, "pause between refreshes (default from config)")

	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	prompt := strings.TrimSpace(strings.Join(args, " "))
	if prompt == "" {
		return errors.New("prompt must not be empty")
	}

	var opts []api.QuestionOption

	datasource := cfg.Ask.Datasource
	if cmd.Flags().Changed("datasource") {
		datasource = askDatasource
	}
	if datasource != "" {
		opts = append(opts, api.WithDatasource(datasource))
	}

	if cmd.Flags().Changed("discord-user") {
		opts = append(opts, api.WithDiscordUser(askDiscordUser))
	}

	wait := api.NoWait
	switch {
	case askMaxPolls > 0:
		wait = api.WaitUpTo(askMaxPolls)
	case askWait:
		wait = api.WaitForever()
	}
	opts = append(opts, api.WithWait(wait))

	interval := cfg.Ask.RefreshInterval
	if cmd.Flags().Changed("interval") {
		interval = askInterval
	}
	opts = append(opts, api.WithRefreshInterval(interval))

	logger.Info().
		Str("datasource", datasource).
		Str("wait", wait.String()).
		Msg("Asking question")

	question, err := client.CreateQuestion(cmd.Context(), prompt, opts...)
	if err != nil {
		var quota *api.DailyQuestionQuotaReachedError
		if errors.As(err, &quota) {
			return fmt.Errorf("daily quota of %d questions reached, try again tomorrow: %w", quota.LimitPerDay, err)
		}
		return fmt.Errorf("failed to ask question: %w", err)
	}

	fmt.Fprint(cmd.OutOrStdout(), formatter.FormatQuestion(*question))
	if !question.IsCompleted() && wait != api.NoWait {
		logger.Warn().Int64("question_id", question.ID).Msg("Question is still being evaluated")
	}
	return nil
}
