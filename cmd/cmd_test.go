package cmd

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/s0up4200/pi/api"
	"github.com/s0up4200/pi/format"
	"github.com/s0up4200/pi/internal/fakeserver"
)

// newServer starts a fake Pi API and points the environment at it
func newServer(t *testing.T) *fakeserver.Server {
	t.Helper()

	srv := fakeserver.New("test-key")
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	t.Setenv("PI_API_KEY", "test-key")
	t.Setenv("PI_BASE_URL", srv.URL)
	t.Setenv("PI_PAGE_SIZE", "")
	t.Setenv("PI_LOG_LEVEL", "error")

	return srv
}

// run executes the root command with args and returns its standard output
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

// resetFlags restores every flag of cmd and its children to its default,
// since the command tree is shared between tests
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, child := range cmd.Commands() {
		resetFlags(child)
	}
}

func TestMeCommand(t *testing.T) {
	newServer(t)

	out, err := run(t, "me")
	require.NoError(t, err)
	assert.Equal(t, "tester (id 1): 100 points\n", out)
}

func TestWrongAPIKey(t *testing.T) {
	newServer(t)
	t.Setenv("PI_API_KEY", "wrong")

	_, err := run(t, "me")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No user found for the given API key")
}

func TestConfigFileFlag(t *testing.T) {
	srv := newServer(t)
	t.Setenv("PI_API_KEY", "")

	path := filepath.Join(t.TempDir(), "pi.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  key: test-key\n"), 0o600))

	out, err := run(t, "--config", path, "me")
	require.NoError(t, err)
	assert.Contains(t, out, "tester")
	assert.Equal(t, 1, srv.CountRequests(http.MethodGet, "/v1/users/@me"))

	_, err = run(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "me")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestDatasourcesCommand(t *testing.T) {
	srv := newServer(t)

	out, err := run(t, "datasources")
	require.NoError(t, err)
	assert.Equal(t, "No datasources found\n", out)

	srv.AddDatasource(fakeserver.Datasource(1, "weather", "ACTIVE"))
	srv.AddDatasource(fakeserver.Datasource(2, "economy", "ARCHIVED"))

	out, err = run(t, "datasources")
	require.NoError(t, err)
	assert.Contains(t, out, "weather (weather) [DEFAULT]")
	assert.Contains(t, out, "economy (economy) [ARCHIVED]")
}

func TestAskCommand(t *testing.T) {
	srv := newServer(t)

	out, err := run(t, "ask", "Will", "it", "rain?")
	require.NoError(t, err)
	assert.Contains(t, out, "#1 Will it rain? [PENDING]")
	assert.Equal(t, 0, srv.CountRequests(http.MethodGet, "/v1/questions/1"))

	requests := srv.Requests()
	last := requests[len(requests)-1]
	assert.Equal(t, "Will it rain?", last.Body["prompt"])
	assert.Nil(t, last.Body["datasourceName"])
}

func TestAskCommandWaits(t *testing.T) {
	srv := newServer(t)
	srv.ScriptCreatedQuestions("PENDING", "PENDING", "COMPLETED")

	out, err := run(t, "ask", "--wait", "--interval", "1ms", "Will it rain?")
	require.NoError(t, err)
	assert.Contains(t, out, "[COMPLETED]")
	assert.Equal(t, 2, srv.CountRequests(http.MethodGet, "/v1/questions/1"))
}

func TestAskCommandMaxPolls(t *testing.T) {
	srv := newServer(t)
	srv.ScriptCreatedQuestions("PENDING", "PENDING", "PENDING", "COMPLETED")

	out, err := run(t, "ask", "--max-polls", "1", "--interval", "1ms", "Will it rain?")
	require.NoError(t, err)
	assert.Contains(t, out, "[PENDING]")
	assert.Equal(t, 1, srv.CountRequests(http.MethodGet, "/v1/questions/1"))
}

func TestAskCommandDatasourceAndDiscordUser(t *testing.T) {
	srv := newServer(t)
	srv.AddDiscordUser("1234")

	_, err := run(t, "ask", "--datasource", "weather", "--discord-user", "1234", "Will it rain?")
	require.NoError(t, err)

	requests := srv.Requests()
	last := requests[len(requests)-1]
	assert.Equal(t, "/v1/discord/questions", last.Path)
	assert.Equal(t, "weather", last.Body["datasourceName"])
	assert.Equal(t, "1234", last.Body["discordUserId"])
}

func TestAskCommandQuota(t *testing.T) {
	srv := newServer(t)
	srv.SetDailyLimit(1)

	_, err := run(t, "ask", "first")
	require.NoError(t, err)

	_, err = run(t, "ask", "second")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "daily quota of 1 questions reached")
}

func TestQuestionsListCommand(t *testing.T) {
	srv := newServer(t)
	srv.AddQuestions(30, "COMPLETED")

	out, err := run(t, "questions", "list", "--page-size", "10", "--limit", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "Questions (5):")
	assert.Contains(t, out, "#1 question 1")
	assert.NotContains(t, out, "#6 question 6")
	assert.Equal(t, 1, srv.CountRequests(http.MethodGet, "/v1/questions"))

	out, err = run(t, "questions", "list", "--page-size", "10", "--limit", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "Questions (30):")
	// three full pages and the empty one ending the listing
	assert.Equal(t, 1+4, srv.CountRequests(http.MethodGet, "/v1/questions"))
}

func TestQuestionsListFlagsReachTheAPI(t *testing.T) {
	srv := newServer(t)

	_, err := run(t, "questions", "list",
		"--successful", "--user", "7", "--tag", "weather", "--tag", "uk",
		"--datasource", "weather", "--after", "2024-01-01", "--vote", "UP", "--sort", "RECENT", "--page", "2")
	require.NoError(t, err)

	requests := srv.Requests()
	query := requests[len(requests)-1].Query
	assert.Equal(t, "true", query.Get("onlySuccessful"))
	assert.Equal(t, "7", query.Get("userId"))
	assert.Equal(t, []string{"weather", "uk"}, query["tags"])
	assert.Equal(t, "weather", query.Get("datasource"))
	assert.Equal(t, "2024-01-01T00:00:00+00:00", query.Get("createdAfter"))
	assert.Equal(t, "UP", query.Get("voteDirection"))
	assert.Equal(t, "RECENT", query.Get("sortBy"))
	assert.Equal(t, "2", query.Get("page"))
}

func TestQuestionsListInvalidFlags(t *testing.T) {
	newServer(t)

	for _, args := range [][]string{
		{"questions", "list", "--vote", "SIDEWAYS"},
		{"questions", "list", "--sort", "OLDEST"},
		{"questions", "list", "--after", "yesterday"},
		{"questions", "list", "--limit", "-1"},
		{"questions", "list", "--where", "Status =="},
		{"questions", "list", "--where", `Statuss == "COMPLETED"`},
	} {
		_, err := run(t, args...)
		assert.Error(t, err, "args %v", args)
	}
}

func TestQuestionsListSortLiterals(t *testing.T) {
	srv := newServer(t)

	for _, sort := range []string{"RECENT", "HIGHER_SCORE", "HIGHER_CORRELATION", "HIGHER_REWARDED"} {
		_, err := run(t, "questions", "list", "--sort", sort)
		require.NoError(t, err, sort)

		requests := srv.Requests()
		assert.Equal(t, sort, requests[len(requests)-1].Query.Get("sortBy"))
	}
}

func TestQuestionsListWhere(t *testing.T) {
	srv := newServer(t)
	for id := int64(1); id <= 6; id++ {
		q := fakeserver.Question(id, "COMPLETED")
		q["success"] = id%2 == 0
		srv.AddQuestion(q)
	}

	out, err := run(t, "questions", "list", "--where", "Succeeded && ID > 2")
	require.NoError(t, err)
	assert.Contains(t, out, "Questions (2):")
	assert.Contains(t, out, "#4 question 4")
	assert.Contains(t, out, "#6 question 6")
	assert.NotContains(t, out, "#2 question 2")
}

func TestQuestionsGetCommand(t *testing.T) {
	srv := newServer(t)
	srv.AddQuestion(fakeserver.Question(3, "COMPLETED"))

	out, err := run(t, "questions", "get", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "#3 question 3 [COMPLETED]")

	_, err = run(t, "questions", "get", "99")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "question 99 does not exist")
	var notFound *api.QuestionNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, int64(99), notFound.QuestionID)

	_, err = run(t, "questions", "get", "abc")
	require.Error(t, err)
}

func TestQuestionsGetWithWrongAPIKey(t *testing.T) {
	srv := newServer(t)
	srv.AddQuestion(fakeserver.Question(1, "COMPLETED"))
	t.Setenv("PI_API_KEY", "wrong-key")

	_, err := run(t, "questions", "get", "1")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "does not exist")
	assert.Contains(t, err.Error(), "failed to get question 1")

	var userErr *api.CurrentUserNotFoundError
	require.ErrorAs(t, err, &userErr)
	assert.ErrorIs(t, err, api.ErrAPI)
}

func TestQuestionsExportCommand(t *testing.T) {
	srv := newServer(t)
	srv.AddQuestions(12, "COMPLETED")

	path := filepath.Join(t.TempDir(), "questions.xlsx")
	out, err := run(t, "questions", "export", path, "--page-size", "5")
	require.NoError(t, err)
	assert.Equal(t, "Exported 12 questions to "+path+"\n", out)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(format.QuestionsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 13)
	assert.Equal(t, format.QuestionColumns, rows[0])
	assert.Equal(t, "12", rows[12][0])
}

func TestTimeseriesCommand(t *testing.T) {
	srv := newServer(t)
	srv.AddQuestion(fakeserver.Question(1, "COMPLETED"))
	srv.AddQuestion(fakeserver.Question(2, "COMPLETED"))
	srv.AddTimeseries(1, map[string]any{
		"id":          10,
		"type":        "CORRELATION",
		"title":       "Umbrella sales",
		"yAxisLabel":  "Sales",
		"correlation": 0.9,
		"data": []map[string]any{
			{"date": "2024-01-01", "value": 1},
			{"date": "2024-01-02", "value": 3},
		},
	})

	out, err := run(t, "timeseries", "2", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "No timeseries for question 2")
	assert.Contains(t, out, "Timeseries of question 1 (1):")
	assert.Contains(t, out, "2 points from 2024-01-01 to 2024-01-02")
	assert.Less(t, bytes.Index([]byte(out), []byte("question 2")), bytes.Index([]byte(out), []byte("question 1")))

	_, err = run(t, "timeseries", "1", "404")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get timeseries of question 404")
}

func TestVersionCommand(t *testing.T) {
	newServer(t)
	SetVersion("1.2.3", "2024-03-01")
	t.Cleanup(func() { SetVersion("dev", "unknown") })

	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "pi 1.2.3 (built 2024-03-01)\n", out)
}
