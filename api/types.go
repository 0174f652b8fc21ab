package api

import (
	"encoding/json"
	"fmt"
)

// DatasourceStatus represents the lifecycle state of a datasource
type DatasourceStatus string

const (
	// DatasourceStatusActive indicates a datasource that accepts questions
	DatasourceStatusActive DatasourceStatus = "ACTIVE"
	// DatasourceStatusArchived indicates a retired datasource
	DatasourceStatusArchived DatasourceStatus = "ARCHIVED"
)

// UnmarshalJSON rejects literals the client does not know about
func (s *DatasourceStatus) UnmarshalJSON(data []byte) error {
	return decodeEnum(data, s, "DatasourceStatus", DatasourceStatusActive, DatasourceStatusArchived)
}

// QuestionStatus represents the processing state of a question
type QuestionStatus string

const (
	QuestionStatusPending     QuestionStatus = "PENDING"
	QuestionStatusAnswering   QuestionStatus = "ANSWERING"
	QuestionStatusCorrelating QuestionStatus = "CORRELATING"
	QuestionStatusCompleted   QuestionStatus = "COMPLETED"
)

// UnmarshalJSON rejects literals the client does not know about
func (s *QuestionStatus) UnmarshalJSON(data []byte) error {
	return decodeEnum(data, s, "QuestionStatus",
		QuestionStatusPending,
		QuestionStatusAnswering,
		QuestionStatusCorrelating,
		QuestionStatusCompleted,
	)
}

// TimeseriesType tells whether a timeseries answers the question itself or
// is a series found to correlate with it
type TimeseriesType string

const (
	TimeseriesTypeQuestion    TimeseriesType = "QUESTION"
	TimeseriesTypeCorrelation TimeseriesType = "CORRELATION"
)

// UnmarshalJSON rejects literals the client does not know about
func (t *TimeseriesType) UnmarshalJSON(data []byte) error {
	return decodeEnum(data, t, "TimeseriesType", TimeseriesTypeQuestion, TimeseriesTypeCorrelation)
}

// VoteDirection filters questions by the vote they received
type VoteDirection string

const (
	VoteDirectionAny  VoteDirection = "ANY"
	VoteDirectionUp   VoteDirection = "UP"
	VoteDirectionDown VoteDirection = "DOWN"
)

// UnmarshalJSON rejects literals the client does not know about
func (v *VoteDirection) UnmarshalJSON(data []byte) error {
	return decodeEnum(data, v, "VoteDirection", VoteDirectionAny, VoteDirectionUp, VoteDirectionDown)
}

// QuestionSort is the server-side ordering of a question listing
type QuestionSort string

const (
	QuestionSortHigherScore       QuestionSort = "HIGHER_SCORE"
	QuestionSortHigherCorrelation QuestionSort = "HIGHER_CORRELATION"
	QuestionSortHigherRewarded    QuestionSort = "HIGHER_REWARDED"
	QuestionSortRecent            QuestionSort = "RECENT"
)

// UnmarshalJSON rejects literals the client does not know about
func (s *QuestionSort) UnmarshalJSON(data []byte) error {
	return decodeEnum(data, s, "QuestionSort",
		QuestionSortHigherScore,
		QuestionSortHigherCorrelation,
		QuestionSortHigherRewarded,
		QuestionSortRecent,
	)
}

// ParseVoteDirection converts a user supplied literal into a VoteDirection
func ParseVoteDirection(s string) (VoteDirection, error) {
	var v VoteDirection
	err := v.UnmarshalJSON([]byte(fmt.Sprintf("%q", s)))
	return v, err
}

// ParseQuestionSort converts a user supplied literal into a QuestionSort
func ParseQuestionSort(s string) (QuestionSort, error) {
	var v QuestionSort
	err := v.UnmarshalJSON([]byte(fmt.Sprintf("%q", s)))
	return v, err
}

func decodeEnum[E ~string](data []byte, dst *E, name string, allowed ...E) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%s must be a string: %w", name, err)
	}
	for _, a := range allowed {
		if E(raw) == a {
			*dst = a
			return nil
		}
	}
	return fmt.Errorf("unknown %s %q", name, raw)
}

// User represents the author of a question
type User struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CurrentUser is the user owning the API key, with their point balance
type CurrentUser struct {
	User
	Points int64 `json:"points"`
}

// Datasource represents a source questions can be answered against
type Datasource struct {
	ID           int64            `json:"id"`
	Name         string           `json:"name"`
	Label        string           `json:"label"`
	Status       DatasourceStatus `json:"status"`
	DisplayOrder int              `json:"displayOrder"`
	Default      bool             `json:"default"`
}

// IsActive checks if the datasource accepts questions
func (d *Datasource) IsActive() bool {
	return d.Status == DatasourceStatusActive
}

// Question represents a submitted question and its evaluation
type Question struct {
	ID               int64          `json:"id"`
	User             User           `json:"user"`
	Number           int64          `json:"number"`
	OriginalPrompt   string         `json:"originalPrompt"`
	RephrasedPrompt  *string        `json:"rephrasedPrompt,omitempty"`
	Status           QuestionStatus `json:"status"`
	Success          *bool          `json:"success,omitempty"`
	Error            *string        `json:"error,omitempty"`
	Tags             []string       `json:"tags"`
	UniquenessScore  *float64       `json:"uniquenessScore,omitempty"`
	CorrelationScore *float64       `json:"correlationScore,omitempty"`
	RewardedPoints   *float64       `json:"rewardedPoints,omitempty"`
	Datasource       *Datasource    `json:"datasource,omitempty"`
	CreatedAt        Timestamp      `json:"createdAt"`
}

// IsCompleted checks if the server has finished processing the question
func (q *Question) IsCompleted() bool {
	return q.Status == QuestionStatusCompleted
}

// Failed reports whether the server gave up on the question
func (q *Question) Failed() bool {
	return q.Success != nil && !*q.Success
}

// Timeseries is a series of dated values attached to a question
type Timeseries struct {
	ID                    int64            `json:"id"`
	Type                  TimeseriesType   `json:"type"`
	Title                 string           `json:"title"`
	Unit                  *string          `json:"unit,omitempty"`
	Strength              *string          `json:"strength,omitempty"`
	YAxisLabel            string           `json:"yAxisLabel"`
	CorrelationType       *string          `json:"correlationType,omitempty"`
	Correlation           *float64         `json:"correlation,omitempty"`
	AdjustedCorrelation   *float64         `json:"adjustedCorrelation,omitempty"`
	CorrelationConfidence *float64         `json:"correlationConfidence,omitempty"`
	Scale                 TimeseriesScale  `json:"scale"`
	Data                  []TimeseriesData `json:"data"`
	CreatedAt             Timestamp        `json:"createdAt"`
}

// TimeseriesScale describes the value range of a timeseries
type TimeseriesScale struct {
	Minimum    float64               `json:"minimum"`
	Maximum    float64               `json:"maximum"`
	LowerBound *float64              `json:"lowerBound,omitempty"`
	UpperBound *float64              `json:"upperBound,omitempty"`
	Notes      []TimeseriesScaleNote `json:"notes"`
}

// TimeseriesScaleNote explains a notable value on the scale
type TimeseriesScaleNote struct {
	Value  float64 `json:"value"`
	Reason string  `json:"reason"`
}

// TimeseriesData is a single point of a timeseries
type TimeseriesData struct {
	Date        string  `json:"date"`
	Value       float64 `json:"value"`
	ReleaseDate *string `json:"releaseDate,omitempty"`
	Explanation *string `json:"explanation,omitempty"`
}

// Values returns the data point values in order
func (ts *Timeseries) Values() []float64 {
	values := make([]float64, len(ts.Data))
	for i, d := range ts.Data {
		values[i] = d.Value
	}
	return values
}

// Decode decodes a server payload into a model
func Decode[T any](data []byte) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("decode %T: %w", v, err)
	}
	return v, nil
}

// Ptr returns a pointer to v, handy for optional filter fields
func Ptr[T any](v T) *T {
	return &v
}
