package api

import (
	"context"
	"iter"
)

// API defines the interface for Pi operations
type API interface {
	// GetCurrentUser retrieves the user owning the API key
	GetCurrentUser(ctx context.Context) (*CurrentUser, error)

	// ListDatasources retrieves every datasource
	ListDatasources(ctx context.Context) ([]Datasource, error)

	// CreateQuestion submits a question, optionally waiting for its answer
	CreateQuestion(ctx context.Context, prompt string, opts ...QuestionOption) (*Question, error)

	// ListQuestions lazily lists questions across pages
	ListQuestions(ctx context.Context, filter QuestionFilter) iter.Seq2[Question, error]

	// GetQuestion retrieves a single question
	GetQuestion(ctx context.Context, questionID int64) (*Question, error)

	// ListQuestionTimeseries retrieves the timeseries of a question
	ListQuestionTimeseries(ctx context.Context, questionID int64) ([]Timeseries, error)
}

var _ API = (*Client)(nil)
