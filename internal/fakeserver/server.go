// Package fakeserver provides an in-process fake of the Pi HTTP API for tests.
//
// It speaks the same wire protocol as the real service: JSON bodies, the API
// key as the apiKey query parameter, {code, message, ...} error payloads and
// page/size pagination. Questions can be scripted to move through a list of
// statuses, one step per fetch, so polling code can be exercised without
// sleeping on a real backend.
//
// Routing is done with chi. Every request is recorded and can be inspected
// with Requests.
package fakeserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
)

// CreatedAt is the timestamp given to every generated question
const CreatedAt = "2024-03-01T12:00:00+00:00"

// Request is a request received by the server
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   map[string]any
}

// errorStub is a canned error response
type errorStub struct {
	status  int
	payload map[string]any
}

type scriptedQuestion struct {
	payload  map[string]any
	statuses []string
}

// Server is a fake Pi API server
type Server struct {
	*httptest.Server

	mu sync.Mutex

	apiKey       string
	user         map[string]any
	datasources  []map[string]any
	questions    map[int64]*scriptedQuestion
	order        []int64
	timeseries   map[int64][]map[string]any
	discordUsers map[string]bool
	createScript []string
	dailyLimit   int
	created      int
	nextID       int64
	stubs        map[string]errorStub
	requests     []Request
}

// New starts a fake server accepting apiKey. An empty apiKey accepts any key.
func New(apiKey string) *Server {
	s := &Server{
		apiKey: apiKey,
		user: map[string]any{
			"id":     1,
			"name":   "tester",
			"points": 100,
		},
		questions:    make(map[int64]*scriptedQuestion),
		timeseries:   make(map[int64][]map[string]any),
		discordUsers: make(map[string]bool),
		createScript: []string{"PENDING"},
		nextID:       1,
		stubs:        make(map[string]errorStub),
	}

	r := chi.NewRouter()
	r.Use(s.record, s.authenticate)
	r.Get("/v1/users/@me", s.handleCurrentUser)
	r.Get("/v1/datasources", s.handleDatasources)
	r.Get("/v1/questions", s.handleListQuestions)
	r.Post("/v1/questions", s.handleCreateQuestion)
	r.Post("/v1/discord/questions", s.handleCreateQuestion)
	r.Get("/v1/questions/{id}", s.handleGetQuestion)
	r.Get("/v1/questions/{id}/timeseries", s.handleTimeseries)

	s.Server = httptest.NewServer(r)
	return s
}

// Question returns a wire question payload with the given id and status
func Question(id int64, status string) map[string]any {
	return map[string]any{
		"id":             id,
		"user":           map[string]any{"id": 1, "name": "tester"},
		"number":         id,
		"originalPrompt": fmt.Sprintf("question %d", id),
		"status":         status,
		"createdAt":      CreatedAt,
	}
}

// Datasource returns a wire datasource payload
func Datasource(id int64, name, status string) map[string]any {
	return map[string]any{
		"id":           id,
		"name":         name,
		"label":        name,
		"status":       status,
		"displayOrder": id,
		"default":      id == 1,
	}
}

// SetCurrentUser replaces the payload of /v1/users/@me
func (s *Server) SetCurrentUser(user map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
}

// AddDatasource appends a datasource payload
func (s *Server) AddDatasource(ds map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.datasources = append(s.datasources, ds)
}

// AddQuestion stores a question payload. When statuses are given, each fetch
// of the question moves it to the next status; the last one sticks.
func (s *Server) AddQuestion(payload map[string]any, statuses ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addQuestionLocked(payload, statuses)
}

func (s *Server) addQuestionLocked(payload map[string]any, statuses []string) {
	id := toInt64(payload["id"])
	if _, exists := s.questions[id]; !exists {
		s.order = append(s.order, id)
	}
	s.questions[id] = &scriptedQuestion{payload: payload, statuses: statuses}
	if id >= s.nextID {
		s.nextID = id + 1
	}
}

// AddQuestions stores n generated questions with ids following the current ones
func (s *Server) AddQuestions(n int, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < n; i++ {
		s.addQuestionLocked(Question(s.nextID, status), nil)
	}
}

// AddTimeseries attaches a timeseries payload to a question
func (s *Server) AddTimeseries(questionID int64, ts map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeseries[questionID] = append(s.timeseries[questionID], ts)
}

// AddDiscordUser registers a Discord user id questions may be asked for
func (s *Server) AddDiscordUser(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discordUsers[id] = true
}

// ScriptCreatedQuestions sets the statuses a newly created question goes
// through: the first is returned by the create call, the rest by later fetches
func (s *Server) ScriptCreatedQuestions(statuses ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createScript = statuses
}

// SetDailyLimit caps the number of questions that can be created; zero means unlimited
func (s *Server) SetDailyLimit(limit int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dailyLimit = limit
}

// StubError makes every request matching method and path fail with payload
func (s *Server) StubError(method, path string, status int, payload map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stubs[method+" "+path] = errorStub{status: status, payload: payload}
}

// Requests returns the requests received so far
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// CountRequests returns how many requests matched method and path
func (s *Server) CountRequests(method, path string) int {
	var n int
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
		}
		if r.Body != nil && r.ContentLength != 0 {
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				writeError(w, http.StatusBadRequest, "MALFORMED_BODY", err.Error(), nil)
				return
			}
			req.Body = body
		}

		s.mu.Lock()
		s.requests = append(s.requests, req)
		stub, stubbed := s.stubs[r.Method+" "+r.URL.Path]
		s.mu.Unlock()

		if stubbed {
			writeJSON(w, stub.status, stub.payload)
			return
		}
		next.ServeHTTP(w, r.WithContext(withBody(r.Context(), req.Body)))
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey != "" && r.URL.Query().Get("apiKey") != s.apiKey {
			writeError(w, http.StatusUnauthorized, "CURRENT_USER_NOT_FOUND", "No user found for the given API key", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.user)
}

func (s *Server) handleDatasources(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.datasources
	if out == nil {
		out = []map[string]any{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateQuestion(w http.ResponseWriter, r *http.Request) {
	body := bodyFrom(r.Context())
	prompt, _ := body["prompt"].(string)
	if prompt == "" {
		writeError(w, http.StatusBadRequest, "INVALID_PROMPT", "prompt is required", nil)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if discordID, ok := body["discordUserId"].(string); ok && !s.discordUsers[discordID] {
		writeError(w, http.StatusNotFound, "DISCORD_USER_NOT_FOUND", "Discord user not found", map[string]any{
			"discordUserId": discordID,
		})
		return
	}

	if s.dailyLimit > 0 && s.created >= s.dailyLimit {
		writeError(w, http.StatusTooManyRequests, "DAILY_QUESTION_QUOTA_REACHED", "Daily question quota reached", map[string]any{
			"userId":       s.user["id"],
			"limitPerDay":  s.dailyLimit,
			"createdCount": s.created,
		})
		return
	}
	s.created++

	script := append([]string(nil), s.createScript...)
	if len(script) == 0 {
		script = []string{"PENDING"}
	}
	payload := Question(s.nextID, script[0])
	payload["originalPrompt"] = prompt
	if name, ok := body["datasourceName"].(string); ok {
		payload["datasource"] = Datasource(1, name, "ACTIVE")
	}
	s.addQuestionLocked(payload, script[1:])

	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 0 {
		writeError(w, http.StatusBadRequest, "INVALID_PAGE", "page must be a non-negative integer", nil)
		return
	}
	size, err := strconv.Atoi(r.URL.Query().Get("size"))
	if err != nil || size <= 0 {
		writeError(w, http.StatusBadRequest, "INVALID_PAGE_SIZE", "size must be a positive integer", nil)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	content := []map[string]any{}
	for i := page * size; i < len(s.order) && i < (page+1)*size; i++ {
		content = append(content, s.questions[s.order[i]].payload)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"content":  content,
		"pageSize": size,
	})
}

func (s *Server) handleGetQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := questionID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	q, found := s.questions[id]
	if !found {
		writeError(w, http.StatusNotFound, "QUESTION_NOT_FOUND", "Question not found", map[string]any{
			"questionId": id,
		})
		return
	}

	if len(q.statuses) > 0 {
		q.payload["status"] = q.statuses[0]
		q.statuses = q.statuses[1:]
	}
	writeJSON(w, http.StatusOK, q.payload)
}

func (s *Server) handleTimeseries(w http.ResponseWriter, r *http.Request) {
	id, ok := questionID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.questions[id]; !found {
		writeError(w, http.StatusNotFound, "QUESTION_NOT_FOUND", "Question not found", map[string]any{
			"questionId": id,
		})
		return
	}

	out := s.timeseries[id]
	if out == nil {
		out = []map[string]any{}
	}
	writeJSON(w, http.StatusOK, out)
}

func questionID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_QUESTION_ID", "question id must be an integer", nil)
		return 0, false
	}
	return id, true
}

func writeError(w http.ResponseWriter, status int, code, message string, extra map[string]any) {
	payload := map[string]any{
		"code":    code,
		"message": message,
	}
	for k, v := range extra {
		payload[k] = v
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type bodyKey struct{}

func withBody(ctx context.Context, body map[string]any) context.Context {
	return context.WithValue(ctx, bodyKey{}, body)
}

func bodyFrom(ctx context.Context) map[string]any {
	body, _ := ctx.Value(bodyKey{}).(map[string]any)
	return body
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int64:
		return n
	case float64:
		return int64(n)
	default:
		return 0
	}
}
