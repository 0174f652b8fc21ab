package cmd

import (
	"errors"
	"fmt"
	"iter"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/s0up4200/pi/api"
	"github.com/s0up4200/pi/filter"
	"github.com/s0up4200/pi/format"
)

// questionFlags holds the listing flags shared by list and export
type questionFlags struct {
	successful bool
	userID     int64
	tags       []string
	datasource string
	after      string
	before     string
	vote       string
	sort       string
	page       int
	pageSize   int
	limit      int
	where      string
}

func (qf *questionFlags) register(cmd *cobra.Command, defaultLimit int) {
	cmd.Flags().BoolVar(&qf.successful, "successful", false, "only questions that were answered successfully")
	cmd.Flags().Int64Var(&qf.userID, "user", 0, "only questions asked by this user id")
	cmd.Flags().StringSliceVarP(&qf.tags, "tag", "t", nil, "only questions with these tags (repeatable)")
	cmd.Flags().StringVar(&qf.datasource, "datasource", "", "only questions answered against this datasource")
	cmd.Flags().StringVar(&qf.after, "after", "", "only questions created after this date (2006-01-02 or ISO-8601)")
	cmd.Flags().StringVar(&qf.before, "before", "", "only questions created before this date (2006-01-02 or ISO-8601)")
	cmd.Flags().StringVar(&qf.vote, "vote", "", "only questions voted UP or DOWN")
	cmd.Flags().StringVar(&qf.sort, "sort", "", "sort order (RECENT, HIGHER_SCORE, HIGHER_CORRELATION, HIGHER_REWARDED)")
	cmd.Flags().IntVar(&qf.page, "page", 0, "first page to fetch")
	cmd.Flags().IntVar(&qf.pageSize, "page-size", 0, "questions per page (default from config)")
	cmd.Flags().IntVarP(&qf.limit, "limit", "n", defaultLimit, "maximum number of questions, 0 for all")
	cmd.Flags().StringVarP(&qf.where, "where", "w", "", "filter expression evaluated on each question, e.g. 'Succeeded && UniquenessScore > 0.5'")
}

// build converts the flags into an API filter
func (qf *questionFlags) build(cmd *cobra.Command) (api.QuestionFilter, error) {
	f := api.QuestionFilter{
		Tags:      qf.tags,
		StartPage: qf.page,
		PageSize:  qf.pageSize,
	}

	if cmd.Flags().Changed("successful") {
		f.OnlySuccessful = api.Ptr(qf.successful)
	}
	if cmd.Flags().Changed("user") {
		f.UserID = api.Ptr(qf.userID)
	}
	if qf.datasource != "" {
		f.DatasourceName = api.Ptr(qf.datasource)
	}

	if qf.after != "" {
		after, err := parseDateFlag(qf.after)
		if err != nil {
			return f, fmt.Errorf("invalid --after: %w", err)
		}
		f.CreatedAfter = &after
	}
	if qf.before != "" {
		before, err := parseDateFlag(qf.before)
		if err != nil {
			return f, fmt.Errorf("invalid --before: %w", err)
		}
		f.CreatedBefore = &before
	}

	if qf.vote != "" {
		vote, err := api.ParseVoteDirection(qf.vote)
		if err != nil {
			return f, fmt.Errorf("invalid --vote: %w", err)
		}
		f.VoteDirection = vote
	}
	if qf.sort != "" {
		sort, err := api.ParseQuestionSort(qf.sort)
		if err != nil {
			return f, fmt.Errorf("invalid --sort: %w", err)
		}
		f.SortBy = sort
	}

	if qf.page < 0 {
		return f, fmt.Errorf("invalid --page: must not be negative, got %d", qf.page)
	}
	if qf.limit < 0 {
		return f, fmt.Errorf("invalid --limit: must not be negative, got %d", qf.limit)
	}

	return f, nil
}

// collect lists the questions matching the flags, applying the where
// expression and the limit
func (qf *questionFlags) collect(cmd *cobra.Command) ([]api.Question, error) {
	questionFilter, err := qf.build(cmd)
	if err != nil {
		return nil, err
	}

	var seq iter.Seq2[api.Question, error] = client.ListQuestions(cmd.Context(), questionFilter)
	seq, err = filter.Where(seq, qf.where)
	if err != nil {
		return nil, err
	}

	logger.Debug().
		Str("where", qf.where).
		Int("limit", qf.limit).
		Msg("Listing questions")

	questions, err := api.Collect(seq, qf.limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	return questions, nil
}

// parseDateFlag accepts a plain date or a full ISO-8601 timestamp
func parseDateFlag(value string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t, nil
	}
	ts, err := api.ParseTimestamp(value)
	if err != nil {
		return time.Time{}, err
	}
	return ts.Time, nil
}

func parseQuestionID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid question id %q", arg)
	}
	return id, nil
}

var (
	listFlags   questionFlags
	exportFlags questionFlags
	listDetails bool
)

// questionsCmd represents the questions command
var questionsCmd = &cobra.Command{
	Use:     "questions",
	Aliases: []string{"q"},
	Short:   "Browse questions asked to Pi",
}

// questionsListCmd represents the questions list command
var questionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List questions",
	Long: `List questions, newest pages first as returned by Pi. Pages are fetched
only as far as needed to satisfy --limit.

Filter expression examples:
  - Succeeded && UniquenessScore > 0.8
  - hasTag("weather") && CreatedAt > daysAgo(7)
  - promptContains("rain") || Datasource == "weather"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		questions, err := listFlags.collect(cmd)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), formatter.FormatQuestionList(questions, format.FormatOptions{ShowDetails: listDetails}))
		return nil
	},
}

// questionsGetCmd represents the questions get command
var questionsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a single question",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseQuestionID(args[0])
		if err != nil {
			return err
		}

		question, err := client.GetQuestion(cmd.Context(), id)
		if err != nil {
			var notFound *api.QuestionNotFoundError
			if errors.As(err, &notFound) {
				return fmt.Errorf("question %d does not exist: %w", id, err)
			}
			return fmt.Errorf("failed to get question %d: %w", id, err)
		}

		fmt.Fprint(cmd.OutOrStdout(), formatter.FormatQuestion(*question))
		return nil
	},
}

// questionsExportCmd represents the questions export command
var questionsExportCmd = &cobra.Command{
	Use:   "export <file.xlsx>",
	Short: "Export questions to a spreadsheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		questions, err := exportFlags.collect(cmd)
		if err != nil {
			return err
		}

		path := args[0]
		out, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}

		if err := format.WriteQuestionsXLSX(out, questions); err != nil {
			out.Close()
			return fmt.Errorf("failed to export questions: %w", err)
		}
		if err := out.Close(); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}

		logger.Info().Str("file", path).Int("count", len(questions)).Msg("Exported questions")
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d questions to %s\n", len(questions), path)
		return nil
	},
}

func init() {
	listFlags.register(questionsListCmd, 20)
	questionsListCmd.Flags().BoolVarP(&listDetails, "details", "d", false, "show tags, datasource and author")

	exportFlags.register(questionsExportCmd, 0)

	questionsCmd.AddCommand(questionsListCmd)
	questionsCmd.AddCommand(questionsGetCmd)
	questionsCmd.AddCommand(questionsExportCmd)
	rootCmd.AddCommand(questionsCmd)
}
