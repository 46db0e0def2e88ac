package chat

import (
	"time"

	"ai-dev-platform/backend/pkg/errors"
)

// TimestampFormat is the wire format for message timestamps (ISO-8601 UTC
// with millisecond precision, matching what browser clients send)
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// Message represents a single chat message relayed between participants
type Message struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	Text   string `json:"text"`
	Ts     string `json:"ts"`
}

// Now returns the current time formatted as a message timestamp
func Now() string {
	return time.Now().UTC().Format(TimestampFormat)
}

// ErrInvalidFormat is returned when an inbound payload is missing required fields
var ErrInvalidFormat = errors.NewBadRequestError(
	errors.CodeInvalidFormat,
	"Invalid message format. Required fields: userId, role, text",
)

// Validate checks an inbound payload for the required fields and returns a
// Message with a server-assigned timestamp when the client did not send one.
// The text is passed through as-is; no sanitization happens here.
func Validate(payload map[string]any) (Message, error) {
	userID, _ := payload["userId"].(string)
	role, _ := payload["role"].(string)
	text, _ := payload["text"].(string)

	if userID == "" || role == "" || text == "" {
		return Message{}, ErrInvalidFormat
	}

	ts, _ := payload["ts"].(string)
	if ts == "" {
		ts = Now()
	}

	return Message{
		UserID: userID,
		Role:   role,
		Text:   text,
		Ts:     ts,
	}, nil
}
