package filter

import (
	"errors"
	"iter"
	"strings"
	"testing"
	"time"

	"github.com/s0up4200/pi/api"
)

func testQuestion() api.Question {
	return api.Question{
		ID:              42,
		User:            api.User{ID: 7, Name: "ada"},
		Number:          3,
		OriginalPrompt:  "Will it rain in London next week?",
		RephrasedPrompt: api.Ptr("Rainfall in London over the next 7 days"),
		Status:          api.QuestionStatusCompleted,
		Success:         api.Ptr(true),
		Tags:            []string{"Weather", "uk"},
		UniquenessScore: api.Ptr(0.75),
		Datasource:      &api.Datasource{ID: 1, Name: "weather", Status: api.DatasourceStatusActive},
		CreatedAt:       api.NewTimestamp(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)),
	}
}

func TestCompileFilter(t *testing.T) {
	tests := []struct {
		name        string
		expression  string
		wantErr     bool
		errContains string
	}{
		{
			name:       "valid expression",
			expression: `hasTag("weather")`,
		},
		{
			name:        "empty expression",
			expression:  "   ",
			wantErr:     true,
			errContains: "empty expression",
		},
		{
			name:       "invalid syntax",
			expression: `hasTag("unclosed`,
			wantErr:    true,
		},
		{
			name:       "non boolean result",
			expression: `"weather"`,
			wantErr:    true,
		},
		{
			name:        "misspelled field",
			expression:  `Statuss == "COMPLETED"`,
			wantErr:     true,
			errContains: "Statuss",
		},
		{
			name:        "misspelled helper",
			expression:  `hasTags("weather")`,
			wantErr:     true,
			errContains: "hasTags",
		},
		{
			name:       "complex expression",
			expression: `hasTag("weather") and UniquenessScore > 0.5 and Datasource == "weather"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter, err := Compile(tt.expression)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error but got none")
				}
				var compErr *CompilationError
				if !errors.As(err, &compErr) {
					t.Errorf("expected *CompilationError, got %T", err)
				}
				if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("error %q does not contain %q", err.Error(), tt.errContains)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if filter.Expression() != strings.TrimSpace(tt.expression) {
				t.Errorf("expression = %q, want %q", filter.Expression(), tt.expression)
			}
		})
	}
}

func TestFilterEvaluation(t *testing.T) {
	question := testQuestion()
	bare := api.Question{ID: 1, Status: api.QuestionStatusPending, OriginalPrompt: "p"}

	tests := []struct {
		name       string
		expression string
		question   api.Question
		expected   bool
	}{
		{name: "has tag", expression: `hasTag("weather")`, question: question, expected: true},
		{name: "does not have tag", expression: `hasTag("economy")`, question: question, expected: false},
		{name: "status", expression: `Status == "COMPLETED" and Completed`, question: question, expected: true},
		{name: "succeeded", expression: `Succeeded and not Failed`, question: question, expected: true},
		{name: "score comparison", expression: `UniquenessScore > 0.5`, question: question, expected: true},
		{name: "missing score reads as zero", expression: `RewardedPoints == 0`, question: question, expected: true},
		{name: "datasource", expression: `Datasource == "weather"`, question: question, expected: true},
		{name: "user", expression: `User == "ada" and UserID == 7`, question: question, expected: true},
		{name: "prompt helper", expression: `contains(Prompt, "london")`, question: question, expected: true},
		{name: "rephrased prompt", expression: `promptContains("rainfall")`, question: question, expected: true},
		{name: "date comparison", expression: `CreatedAt < daysAgo(30)`, question: question, expected: true},
		{name: "id comparison", expression: `ID > 40`, question: question, expected: true},
		{name: "question struct", expression: `Question.Number == 3`, question: question, expected: true},
		{name: "no datasource", expression: `Datasource == ""`, question: bare, expected: true},
		{name: "pending question", expression: `Completed or Succeeded`, question: bare, expected: false},
		{name: "no tags", expression: `len(Tags) == 0`, question: bare, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter, err := Compile(tt.expression)
			if err != nil {
				t.Fatalf("failed to compile filter: %v", err)
			}

			result, err := filter.Evaluate(tt.question)
			if err != nil {
				t.Fatalf("unexpected evaluation error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("expected %v but got %v for expression %q", tt.expected, result, tt.expression)
			}
		})
	}
}

func TestEvaluationError(t *testing.T) {
	filter, err := Compile(`Tags[5] == "x"`)
	if err != nil {
		t.Fatalf("failed to compile filter: %v", err)
	}

	_, err = filter.Evaluate(testQuestion())
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected *EvaluationError, got %v", err)
	}
	if evalErr.QuestionID != 42 {
		t.Errorf("question id = %d, want 42", evalErr.QuestionID)
	}
}

func TestCompilerCache(t *testing.T) {
	compiler := NewExprCompiler(WithCache(2))

	first, err := compiler.Compile(`hasTag("a")`)
	if err != nil {
		t.Fatal(err)
	}
	again, err := compiler.Compile(`  hasTag("a")  `)
	if err != nil {
		t.Fatal(err)
	}
	if first != again {
		t.Errorf("expected cached filter to be reused")
	}

	for _, expression := range []string{`hasTag("b")`, `hasTag("c")`} {
		if _, err := compiler.Compile(expression); err != nil {
			t.Fatal(err)
		}
	}
	if compiler.Size() != 2 {
		t.Errorf("cache size = %d, want 2", compiler.Size())
	}

	evicted, err := compiler.Compile(`hasTag("a")`)
	if err != nil {
		t.Fatal(err)
	}
	if evicted == first {
		t.Errorf("expected least recently used filter to be evicted")
	}

	compiler.Clear()
	if compiler.Size() != 0 {
		t.Errorf("cache size after clear = %d, want 0", compiler.Size())
	}

	uncached := NewExprCompiler()
	if _, err := uncached.Compile(`hasTag("a")`); err != nil {
		t.Fatal(err)
	}
	if uncached.Size() != 0 {
		t.Errorf("uncached compiler reported size %d", uncached.Size())
	}
}

func TestCustomFunctions(t *testing.T) {
	compiler := NewExprCompiler(WithCustomFunctions(map[string]any{
		"isLong": func(s string) bool { return len(s) > 20 },
	}))

	filter, err := compiler.Compile(`isLong(Prompt)`)
	if err != nil {
		t.Fatalf("failed to compile filter: %v", err)
	}
	match, err := filter.Evaluate(testQuestion())
	if err != nil || !match {
		t.Errorf("expected match, got %v (err %v)", match, err)
	}
}

func sliceSeq(questions []api.Question, tail error) iter.Seq2[api.Question, error] {
	return func(yield func(api.Question, error) bool) {
		for _, q := range questions {
			if !yield(q, nil) {
				return
			}
		}
		if tail != nil {
			yield(api.Question{}, tail)
		}
	}
}

func generateQuestions(count int) []api.Question {
	questions := make([]api.Question, count)
	for i := range questions {
		q := testQuestion()
		q.ID = int64(i + 1)
		if i%2 == 1 {
			q.Tags = []string{"economy"}
		}
		questions[i] = q
	}
	return questions
}

func TestQuestions(t *testing.T) {
	filter, err := Compile(`hasTag("weather")`)
	if err != nil {
		t.Fatal(err)
	}

	var ids []int64
	for q, err := range Questions(sliceSeq(generateQuestions(6), nil), filter) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		ids = append(ids, q.ID)
	}
	if len(ids) != 3 || ids[0] != 1 || ids[1] != 3 || ids[2] != 5 {
		t.Errorf("matched ids = %v, want [1 3 5]", ids)
	}
}

func TestQuestionsPassesErrorsThrough(t *testing.T) {
	boom := errors.New("page fetch failed")
	filter, err := Compile(`true`)
	if err != nil {
		t.Fatal(err)
	}

	var seen int
	var gotErr error
	for _, err := range Questions(sliceSeq(generateQuestions(2), boom), filter) {
		if err != nil {
			gotErr = err
			continue
		}
		seen++
	}
	if seen != 2 || !errors.Is(gotErr, boom) {
		t.Errorf("seen %d questions and error %v", seen, gotErr)
	}
}

func TestQuestionsStopsEarly(t *testing.T) {
	var pulled int
	source := func(yield func(api.Question, error) bool) {
		for _, q := range generateQuestions(10) {
			pulled++
			if !yield(q, nil) {
				return
			}
		}
	}

	filter, err := Compile(`true`)
	if err != nil {
		t.Fatal(err)
	}
	for range Questions(source, filter) {
		break
	}
	if pulled != 1 {
		t.Errorf("pulled %d questions from the source, want 1", pulled)
	}
}

func TestWhere(t *testing.T) {
	source := sliceSeq(generateQuestions(4), nil)

	seq, err := Where(source, "")
	if err != nil {
		t.Fatal(err)
	}
	var count int
	for range seq {
		count++
	}
	if count != 4 {
		t.Errorf("empty expression kept %d questions, want 4", count)
	}

	if _, err := Where(source, `hasTag(`); err == nil {
		t.Errorf("expected compilation error")
	}

	seq, err = Where(source, `not hasTag("weather")`)
	if err != nil {
		t.Fatal(err)
	}
	count = 0
	for range seq {
		count++
	}
	if count != 2 {
		t.Errorf("filtered %d questions, want 2", count)
	}
}
