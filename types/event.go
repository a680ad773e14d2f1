package types

import "time"

// Event is a lifecycle notification published after a successful commit.
type Event struct {
	Type       string    `json:"type"`
	UserID     int       `json:"user_id"`
	TodoID     int       `json:"todo_id,omitempty"`
	Count      int       `json:"count,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
