package format

import (
	"strings"

	"github.com/s0up4200/pi/api"
)

// QuestionColumns are the flattened column names of a question table.
// Nested objects are spelled with dotted paths.
var QuestionColumns = []string{
	"id",
	"user.id",
	"user.name",
	"number",
	"original_prompt",
	"rephrased_prompt",
	"status",
	"success",
	"error",
	"tags",
	"uniqueness_score",
	"correlation_score",
	"rewarded_points",
	"datasource.id",
	"datasource.name",
	"datasource.label",
	"datasource.status",
	"datasource.display_order",
	"datasource.default",
	"created_at",
}

// Table is a rectangular view of a listing. A nil cell is a missing value.
type Table struct {
	Columns []string
	Rows    [][]any
}

// QuestionTable flattens questions into one row per question
func QuestionTable(questions []api.Question) *Table {
	table := &Table{
		Columns: QuestionColumns,
		Rows:    make([][]any, 0, len(questions)),
	}
	for _, q := range questions {
		table.Rows = append(table.Rows, questionRow(q))
	}
	return table
}

func questionRow(q api.Question) []any {
	row := []any{
		q.ID,
		q.User.ID,
		q.User.Name,
		q.Number,
		q.OriginalPrompt,
		optional(q.RephrasedPrompt),
		string(q.Status),
		optional(q.Success),
		optional(q.Error),
		nil,
		optional(q.UniquenessScore),
		optional(q.CorrelationScore),
		optional(q.RewardedPoints),
		nil, nil, nil, nil, nil, nil,
		q.CreatedAt.Time,
	}

	if q.Tags != nil {
		row[9] = strings.Join(q.Tags, ", ")
	}
	if ds := q.Datasource; ds != nil {
		copy(row[13:19], []any{ds.ID, ds.Name, ds.Label, string(ds.Status), ds.DisplayOrder, ds.Default})
	}
	return row
}

// optional unwraps p, keeping a nil pointer as a nil cell
func optional[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
