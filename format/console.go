// Package format renders Pi models for the terminal and for spreadsheets.
package format

import (
	"fmt"
	"strings"

	"github.com/s0up4200/pi/api"
)

const dateLayout = "2006-01-02 15:04"

// FormatOptions contains options for formatting output
type FormatOptions struct {
	ShowDetails bool
}

// ConsoleFormatter provides console output formatting for Pi models
type ConsoleFormatter struct{}

// NewConsoleFormatter creates a new console formatter
func NewConsoleFormatter() *ConsoleFormatter {
	return &ConsoleFormatter{}
}

// FormatCurrentUser formats the user owning the API key
func (f *ConsoleFormatter) FormatCurrentUser(user *api.CurrentUser) string {
	return fmt.Sprintf("%s (id %d): %d points\n", user.Name, user.ID, user.Points)
}

// FormatDatasources formats datasources in server order
func (f *ConsoleFormatter) FormatDatasources(datasources []api.Datasource) string {
	if len(datasources) == 0 {
		return "No datasources found\n"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "\nDatasources (%d):\n\n", len(datasources))

	for i, ds := range datasources {
		prefix, _ := treeBranch(i == len(datasources)-1)

		fmt.Fprintf(&sb, "%s── %s (%s)", prefix, ds.Label, ds.Name)
		if ds.Default {
			sb.WriteString(" [DEFAULT]")
		}
		if !ds.IsActive() {
			sb.WriteString(" [ARCHIVED]")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	return sb.String()
}

// FormatQuestion formats a single question with all of its details
func (f *ConsoleFormatter) FormatQuestion(question api.Question) string {
	var sb strings.Builder
	f.formatQuestion(&sb, question, true, FormatOptions{ShowDetails: true})
	return sb.String()
}

// FormatQuestionList formats a list of questions for console display
func (f *ConsoleFormatter) FormatQuestionList(questions []api.Question, options FormatOptions) string {
	if len(questions) == 0 {
		return "No questions found\n"
	}

	var sb strings.Builder

	sb.WriteString("\nQuestion")
	if len(questions) != 1 {
		sb.WriteString("s")
	}
	fmt.Fprintf(&sb, " (%d):\n\n", len(questions))

	for i, question := range questions {
		isLast := i == len(questions)-1
		f.formatQuestion(&sb, question, isLast, options)

		if !isLast {
			sb.WriteString("│\n")
		}
	}

	sb.WriteString("\n")
	return sb.String()
}

// FormatTimeseries formats the timeseries of a question with their summary statistics
func (f *ConsoleFormatter) FormatTimeseries(questionID int64, series []api.Timeseries) string {
	if len(series) == 0 {
		return fmt.Sprintf("No timeseries for question %d\n", questionID)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "\nTimeseries of question %d (%d):\n\n", questionID, len(series))

	for i, ts := range series {
		isLast := i == len(series)-1
		prefix, indent := treeBranch(isLast)

		fmt.Fprintf(&sb, "%s── %s [%s]\n", prefix, ts.Title, ts.Type)

		axis := ts.YAxisLabel
		if ts.Unit != nil && *ts.Unit != "" {
			axis += " (" + *ts.Unit + ")"
		}
		if axis != "" {
			fmt.Fprintf(&sb, "%sAxis: %s\n", indent, axis)
		}

		if ts.Correlation != nil {
			corr := fmt.Sprintf("Correlation: %.3f", *ts.Correlation)
			if ts.CorrelationType != nil {
				corr += " " + *ts.CorrelationType
			}
			if ts.Strength != nil {
				corr += fmt.Sprintf(" (%s)", strings.ToLower(*ts.Strength))
			}
			fmt.Fprintf(&sb, "%s%s\n", indent, corr)
		}

		summary := SummarizeTimeseries(ts)
		if summary.Count == 0 {
			fmt.Fprintf(&sb, "%sNo data points\n", indent)
		} else {
			fmt.Fprintf(&sb, "%s%d points from %s to %s\n", indent, summary.Count, summary.First, summary.Last)
			fmt.Fprintf(&sb, "%sMin %.2f | Max %.2f | Mean %.2f | Median %.2f | Std dev %.2f\n",
				indent, summary.Min, summary.Max, summary.Mean, summary.Median, summary.StdDev)
		}

		if !isLast {
			sb.WriteString("│\n")
		}
	}

	sb.WriteString("\n")
	return sb.String()
}

func (f *ConsoleFormatter) formatQuestion(sb *strings.Builder, q api.Question, isLast bool, options FormatOptions) {
	prefix, indent := treeBranch(isLast)

	fmt.Fprintf(sb, "%s── #%d %s [%s]\n", prefix, q.ID, q.OriginalPrompt, q.Status)

	if q.RephrasedPrompt != nil && *q.RephrasedPrompt != q.OriginalPrompt {
		fmt.Fprintf(sb, "%sRephrased: %s\n", indent, *q.RephrasedPrompt)
	}

	switch {
	case q.Failed():
		reason := "unknown reason"
		if q.Error != nil {
			reason = *q.Error
		}
		fmt.Fprintf(sb, "%sFailed: %s\n", indent, reason)
	case q.Success != nil:
		sb.WriteString(indent + "Succeeded\n")
	}

	var scores []string
	if q.UniquenessScore != nil {
		scores = append(scores, fmt.Sprintf("Uniqueness: %.2f", *q.UniquenessScore))
	}
	if q.CorrelationScore != nil {
		scores = append(scores, fmt.Sprintf("Correlation: %.2f", *q.CorrelationScore))
	}
	if q.RewardedPoints != nil {
		scores = append(scores, fmt.Sprintf("Points: %.1f", *q.RewardedPoints))
	}
	if len(scores) > 0 {
		fmt.Fprintf(sb, "%s%s\n", indent, strings.Join(scores, " | "))
	}

	if !options.ShowDetails {
		return
	}

	if len(q.Tags) > 0 {
		fmt.Fprintf(sb, "%sTags: %s\n", indent, strings.Join(q.Tags, ", "))
	}
	if q.Datasource != nil {
		fmt.Fprintf(sb, "%sDatasource: %s\n", indent, q.Datasource.Name)
	}
	fmt.Fprintf(sb, "%sAsked by %s on %s\n", indent, q.User.Name, q.CreatedAt.Format(dateLayout))
}

// treeBranch returns the branch glyph and the child indent of a tree entry
func treeBranch(isLast bool) (prefix, indent string) {
	if isLast {
		return "╰", "    "
	}
	return "├", "│   "
}
