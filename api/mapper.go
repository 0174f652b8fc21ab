package api

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
)

// errorFactory builds a typed error from the message and the snake_case
// extra properties of an error payload
type errorFactory func(message string, props map[string]any) (error, error)

// errorRegistry maps canonical error type names to their factories
var errorRegistry = map[string]errorFactory{
	"CurrentUserNotFoundError": func(message string, _ map[string]any) (error, error) {
		return &CurrentUserNotFoundError{Message: message}, nil
	},
	"DailyQuestionQuotaReachedError": func(message string, props map[string]any) (error, error) {
		e := &DailyQuestionQuotaReachedError{Message: message}
		return e, decodeProperties(props, e)
	},
	"DiscordUserNotFoundError": func(message string, props map[string]any) (error, error) {
		return &DiscordUserNotFoundError{Message: message, Properties: props}, nil
	},
	"QuestionNotFoundError": func(message string, props map[string]any) (error, error) {
		e := &QuestionNotFoundError{Message: message}
		return e, decodeProperties(props, e)
	},
}

// MapError converts the body of a failed response into a typed error.
// It always returns a non-nil error.
func MapError(statusCode int, body []byte) error {
	var content map[string]any
	if err := json.Unmarshal(body, &content); err != nil || content == nil {
		return &GenericAPIError{
			Message:    strings.TrimSpace(string(body)),
			Properties: map[string]any{},
			StatusCode: statusCode,
		}
	}

	code, _ := content["code"].(string)
	message, _ := content["message"].(string)
	delete(content, "code")
	delete(content, "message")

	if code != "" {
		if factory, ok := errorRegistry[ErrorTypeName(code)]; ok {
			props := make(map[string]any, len(content))
			for key, value := range content {
				props[underscore(key)] = value
			}

			apiErr, err := factory(message, props)
			if err != nil {
				return fmt.Errorf("decode %s payload: %w: %w", code, err, apiErr)
			}
			return apiErr
		}
	}

	return &GenericAPIError{
		Code:       code,
		Message:    message,
		Properties: content,
		StatusCode: statusCode,
	}
}

// ErrorTypeName derives the error type name for a wire error code,
// e.g. DAILY_QUESTION_QUOTA_REACHED becomes DailyQuestionQuotaReachedError
func ErrorTypeName(code string) string {
	parts := strings.FieldsFunc(strings.ToLower(code), func(r rune) bool {
		return r == '_' || r == '-' || r == '/' || unicode.IsSpace(r)
	})

	var sb strings.Builder
	for _, part := range parts {
		runes := []rune(part)
		runes[0] = unicode.ToUpper(runes[0])
		sb.WriteString(string(runes))
	}
	sb.WriteString("Error")
	return sb.String()
}

// underscore converts a camelCase wire key to snake_case
func underscore(key string) string {
	runes := []rune(key)

	var sb strings.Builder
	for i, r := range runes {
		if r == '-' {
			sb.WriteByte('_')
			continue
		}
		if !unicode.IsUpper(r) {
			sb.WriteRune(r)
			continue
		}

		if i > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				sb.WriteByte('_')
			}
		}
		sb.WriteRune(unicode.ToLower(r))
	}
	return sb.String()
}

func decodeProperties(props map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  target,
		TagName: "mapstructure",
	})
	if err != nil {
		return err
	}
	return decoder.Decode(props)
}
