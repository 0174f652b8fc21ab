package api

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	isoLayout      = "2006-01-02T15:04:05-07:00"
	isoLayoutMicro = "2006-01-02T15:04:05.000000-07:00"
	isoLayoutLocal = "2006-01-02T15:04:05.999999999"
)

// Timestamp is a point in time as exchanged with the server.
//
// The server writes ISO-8601 with a numeric offset and microsecond precision,
// omitting the fraction when it is zero. Timestamp writes the same form back.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// MarshalJSON implements json.Marshaler
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements json.Unmarshaler
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}

	parsed, err := ParseTimestamp(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// String formats the timestamp the way the server does
func (t Timestamp) String() string {
	return FormatISO(t.Time)
}

// FormatISO formats t as ISO-8601 with a numeric offset. Sub-microsecond
// precision is dropped.
func FormatISO(t time.Time) string {
	if t.Nanosecond()/1000 == 0 {
		return t.Format(isoLayout)
	}
	return t.Truncate(time.Microsecond).Format(isoLayoutMicro)
}

// ParseTimestamp parses an ISO-8601 timestamp. Values without an offset are
// taken as UTC.
func ParseTimestamp(s string) (Timestamp, error) {
	if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return Timestamp{Time: parsed}, nil
	}
	parsed, err := time.Parse(isoLayoutLocal, s)
	if err != nil {
		return Timestamp{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return Timestamp{Time: parsed.UTC()}, nil
}
