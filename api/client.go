package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// EnvAPIKey names the environment variable holding the API key
	EnvAPIKey = "PI_API_KEY"
	// EnvBaseURL names the environment variable holding the base URL
	EnvBaseURL = "PI_BASE_URL"
	// DefaultBaseURL is used when no base URL is given
	DefaultBaseURL = "https://api.askpi.io"

	defaultUserAgent = "pi-go"
)

// Client represents a Pi API client
type Client struct {
	baseURL    *url.URL
	apiKey     string
	pageSize   int
	userAgent  string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a new Pi client. An empty apiKey or baseURL is read from
// PI_API_KEY or PI_BASE_URL; the base URL then falls back to DefaultBaseURL.
func NewClient(apiKey, baseURL string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if apiKey == "" {
		apiKey = os.Getenv(EnvAPIKey)
	}
	if baseURL == "" {
		baseURL = os.Getenv(EnvBaseURL)
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: base URL %q: %v", ErrInvalidConfig, baseURL, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("%w: base URL %q must be absolute", ErrInvalidConfig, baseURL)
	}

	client := &Client{
		baseURL:   parsed,
		apiKey:    apiKey,
		pageSize:  DefaultPageSize,
		userAgent: defaultUserAgent,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// BaseURL returns the base URL requests are resolved against
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// PageSize returns the default page size of listings
func (c *Client) PageSize() int {
	return c.pageSize
}

// doRequest performs an HTTP request with authentication and returns the
// response body. Non-2xx responses are turned into typed errors.
func (c *Client) doRequest(ctx context.Context, method, path string, params url.Values, body any) ([]byte, error) {
	endpoint := c.baseURL.ResolveReference(&url.URL{Path: path})

	query := url.Values{}
	for key, values := range params {
		query[key] = values
	}
	if c.apiKey != "" {
		query.Set("apiKey", c.apiKey)
	}
	endpoint.RawQuery = query.Encode()

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-Id", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(started)).
		Msg("Pi API request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, MapError(resp.StatusCode, respBody)
	}

	return respBody, nil
}

// getJSON performs a GET request and decodes the response into out
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	body, err := c.doRequest(ctx, http.MethodGet, path, params, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", strings.TrimPrefix(path, "/"), err)
	}
	return nil
}

// GetCurrentUser retrieves the user owning the API key
func (c *Client) GetCurrentUser(ctx context.Context) (*CurrentUser, error) {
	var user CurrentUser
	if err := c.getJSON(ctx, "/v1/users/@me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListDatasources retrieves every datasource in server order
func (c *Client) ListDatasources(ctx context.Context) ([]Datasource, error) {
	var datasources []Datasource
	if err := c.getJSON(ctx, "/v1/datasources", nil, &datasources); err != nil {
		return nil, err
	}

	c.logger.Debug().Int("count", len(datasources)).Msg("Retrieved datasources")
	return datasources, nil
}

// GetQuestion retrieves a question by id
func (c *Client) GetQuestion(ctx context.Context, questionID int64) (*Question, error) {
	var question Question
	if err := c.getJSON(ctx, fmt.Sprintf("/v1/questions/%d", questionID), nil, &question); err != nil {
		return nil, err
	}
	return &question, nil
}

// ListQuestionTimeseries retrieves the timeseries attached to a question
func (c *Client) ListQuestionTimeseries(ctx context.Context, questionID int64) ([]Timeseries, error) {
	var timeseries []Timeseries
	if err := c.getJSON(ctx, fmt.Sprintf("/v1/questions/%d/timeseries", questionID), nil, &timeseries); err != nil {
		return nil, err
	}

	c.logger.Debug().
		Int64("question_id", questionID).
		Int("count", len(timeseries)).
		Msg("Retrieved question timeseries")
	return timeseries, nil
}
