package api

import (
	"net/http"
	"time"
)

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithPageSize sets the default page size of paginated listings.
// Non-positive sizes are ignored.
func WithPageSize(size int) Option {
	return func(c *Client) {
		if size > 0 {
			c.pageSize = size
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithUserAgent sets a custom user agent string.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// QuestionOption configures CreateQuestion.
type QuestionOption func(*questionOptions)

type questionOptions struct {
	datasourceName  *string
	discordUserID   *string
	wait            Wait
	refreshInterval time.Duration
}

// DefaultRefreshInterval is the pause between two polls of a pending question.
const DefaultRefreshInterval = 500 * time.Millisecond

func defaultQuestionOptions() questionOptions {
	return questionOptions{
		wait:            NoWait,
		refreshInterval: DefaultRefreshInterval,
	}
}

// WithDatasource asks the question against the named datasource.
func WithDatasource(name string) QuestionOption {
	return func(o *questionOptions) {
		o.datasourceName = &name
	}
}

// WithDiscordUser asks the question on behalf of a Discord user. The id is
// sent as given, so an empty id is left for the server to reject.
func WithDiscordUser(discordUserID string) QuestionOption {
	return func(o *questionOptions) {
		o.discordUserID = &discordUserID
	}
}

// WithWait makes CreateQuestion poll the question until it completes.
func WithWait(wait Wait) QuestionOption {
	return func(o *questionOptions) {
		o.wait = wait
	}
}

// WithRefreshInterval sets the pause between two polls.
func WithRefreshInterval(interval time.Duration) QuestionOption {
	return func(o *questionOptions) {
		if interval >= 0 {
			o.refreshInterval = interval
		}
	}
}
