package api

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// createQuestionRequest is the body of the question creation endpoints
type createQuestionRequest struct {
	Prompt         string  `json:"prompt"`
	DatasourceName *string `json:"datasourceName"`
	DiscordUserID  *string `json:"discordUserId,omitempty"`
}

// CreateQuestion submits a new question.
//
// With WithWait the call blocks, re-fetching the question every refresh
// interval until it completes or the wait budget is spent, and returns the
// latest state. Cancelling ctx interrupts the wait.
func (c *Client) CreateQuestion(ctx context.Context, prompt string, opts ...QuestionOption) (*Question, error) {
	o := defaultQuestionOptions()
	for _, opt := range opts {
		opt(&o)
	}

	path := "/v1/questions"
	if o.discordUserID != nil {
		path = "/v1/discord/questions"
	}

	body, err := c.doRequest(ctx, http.MethodPost, path, nil, createQuestionRequest{
		Prompt:         prompt,
		DatasourceName: o.datasourceName,
		DiscordUserID:  o.discordUserID,
	})
	if err != nil {
		return nil, err
	}

	question, err := Decode[Question](body)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Int64("question_id", question.ID).
		Str("status", string(question.Status)).
		Str("wait", o.wait.String()).
		Msg("Created question")

	return c.waitForCompletion(ctx, &question, o.wait, o.refreshInterval)
}

// waitForCompletion polls question until it completes or wait is exhausted
func (c *Client) waitForCompletion(ctx context.Context, question *Question, wait Wait, interval time.Duration) (*Question, error) {
	for polls := 0; !question.IsCompleted() && wait.allows(polls); polls++ {
		if err := sleep(ctx, interval); err != nil {
			return nil, err
		}

		next, err := c.GetQuestion(ctx, question.ID)
		if err != nil {
			return nil, err
		}
		question = next

		c.logger.Debug().
			Int64("question_id", question.ID).
			Int("poll", polls+1).
			Str("status", string(question.Status)).
			Msg("Polled question")
	}
	return question, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// QuestionFilter narrows a question listing. Nil and zero fields are left
// out of the request.
type QuestionFilter struct {
	OnlySuccessful *bool
	UserID         *int64
	Tags           []string
	DatasourceName *string
	CreatedAfter   *time.Time
	CreatedBefore  *time.Time
	VoteDirection  VoteDirection
	SortBy         QuestionSort

	// StartPage is the first page fetched
	StartPage int
	// PageSize overrides the client page size when positive
	PageSize int
}

// Values encodes the filter as query parameters
func (f QuestionFilter) Values() url.Values {
	params := url.Values{}
	if f.OnlySuccessful != nil {
		params.Set("onlySuccessful", strconv.FormatBool(*f.OnlySuccessful))
	}
	if f.UserID != nil {
		params.Set("userId", strconv.FormatInt(*f.UserID, 10))
	}
	for _, tag := range f.Tags {
		params.Add("tags", tag)
	}
	if f.DatasourceName != nil {
		params.Set("datasource", *f.DatasourceName)
	}
	if f.CreatedAfter != nil {
		params.Set("createdAfter", FormatISO(*f.CreatedAfter))
	}
	if f.CreatedBefore != nil {
		params.Set("createdBefore", FormatISO(*f.CreatedBefore))
	}
	if f.VoteDirection != "" {
		params.Set("voteDirection", string(f.VoteDirection))
	}
	if f.SortBy != "" {
		params.Set("sortBy", string(f.SortBy))
	}
	return params
}

// ListQuestions returns a lazy sequence over every question matching filter.
// Pages are requested as the sequence is consumed; stop ranging over it to
// stop fetching.
func (c *Client) ListQuestions(ctx context.Context, filter QuestionFilter) iter.Seq2[Question, error] {
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = c.pageSize
	}
	params := filter.Values()

	fetch := func(ctx context.Context, req PageRequest) (*PageResponse[Question], error) {
		query := url.Values{}
		for key, values := range params {
			query[key] = values
		}
		query.Set("page", strconv.Itoa(req.Number))
		query.Set("size", strconv.Itoa(req.Size))

		body, err := c.doRequest(ctx, http.MethodGet, "/v1/questions", query, nil)
		if err != nil {
			return nil, err
		}

		var page PageResponse[Question]
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("decode questions page %d: %w", req.Number, err)
		}

		c.logger.Debug().
			Int("page", req.Number).
			Int("count", len(page.Content)).
			Int("page_size", page.PageSize).
			Msg("Retrieved questions page")
		return &page, nil
	}

	return Paginate(ctx, fetch, PageRequest{Number: filter.StartPage, Size: pageSize})
}
