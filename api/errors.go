package api

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrAPI is wrapped by every error reported by the server
	ErrAPI = errors.New("pi API error")
	// ErrInvalidConfig indicates invalid client configuration
	ErrInvalidConfig = errors.New("invalid pi client configuration")
)

// CurrentUserNotFoundError is returned when the API key does not belong to a user
type CurrentUserNotFoundError struct {
	Message string
}

func (e *CurrentUserNotFoundError) Error() string { return e.Message }
func (e *CurrentUserNotFoundError) Unwrap() error { return ErrAPI }

// DailyQuestionQuotaReachedError is returned when a user has asked as many
// questions as allowed for the day
type DailyQuestionQuotaReachedError struct {
	Message      string `mapstructure:"-"`
	UserID       int64  `mapstructure:"user_id"`
	LimitPerDay  int    `mapstructure:"limit_per_day"`
	CreatedCount int    `mapstructure:"created_count"`
}

func (e *DailyQuestionQuotaReachedError) Error() string {
	return fmt.Sprintf("%s (user %d: %d/%d questions today)", e.Message, e.UserID, e.CreatedCount, e.LimitPerDay)
}

func (e *DailyQuestionQuotaReachedError) Unwrap() error { return ErrAPI }

// DiscordUserNotFoundError is returned when a question is asked on behalf of
// an unknown Discord user. Properties holds every extra field of the payload,
// keyed in snake_case.
type DiscordUserNotFoundError struct {
	Message    string
	Properties map[string]any
}

func (e *DiscordUserNotFoundError) Error() string { return e.Message }
func (e *DiscordUserNotFoundError) Unwrap() error { return ErrAPI }

// QuestionNotFoundError is returned when a question id does not exist
type QuestionNotFoundError struct {
	Message    string `mapstructure:"-"`
	QuestionID int64  `mapstructure:"question_id"`
}

func (e *QuestionNotFoundError) Error() string {
	return fmt.Sprintf("%s (question %d)", e.Message, e.QuestionID)
}

func (e *QuestionNotFoundError) Unwrap() error { return ErrAPI }

// GenericAPIError carries a server error whose code has no dedicated type.
// Properties keeps the extra payload fields under their wire names.
type GenericAPIError struct {
	Code       string
	Message    string
	Properties map[string]any
	StatusCode int
}

func (e *GenericAPIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("pi API error: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("pi API error: %s: %s", e.Code, e.Message)
}

func (e *GenericAPIError) Unwrap() error { return ErrAPI }

// IsNotFound checks if the error reports a missing resource
func IsNotFound(err error) bool {
	var (
		questionErr *QuestionNotFoundError
		userErr     *CurrentUserNotFoundError
		discordErr  *DiscordUserNotFoundError
	)
	return errors.As(err, &questionErr) || errors.As(err, &userErr) || errors.As(err, &discordErr)
}
