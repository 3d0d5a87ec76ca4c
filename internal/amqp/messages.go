package amqp

import (
	"encoding/json"
	"time"
)

// YearClosedMessage announces that a contribution year was closed.
// Carries the full summary so the archive worker can export without a
// read-back when it only needs the headline numbers.
type YearClosedMessage struct {
	Year      int       `json:"year"`
	Total     string    `json:"total"`
	Note      string    `json:"note,omitempty"`
	ClosedAt  string    `json:"closed_at"`
	Timestamp time.Time `json:"timestamp"`
}

// NewYearClosedMessage creates a message for a freshly closed year.
func NewYearClosedMessage(year int, total, note, closedAt string) *YearClosedMessage {
	return &YearClosedMessage{
		Year:      year,
		Total:     total,
		Note:      note,
		ClosedAt:  closedAt,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *YearClosedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// YearClosedMessageFromJSON creates a message from JSON bytes
func YearClosedMessageFromJSON(data []byte) (*YearClosedMessage, error) {
	var msg YearClosedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
