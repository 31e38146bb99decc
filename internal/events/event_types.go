package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSelectionChanged EventType = "selection_changed"
	EventSessionEnded     EventType = "session_ended"
)

// Event is a change notification scoped to one browser session.
type Event struct {
	ID        string           `json:"id"`
	Type      EventType        `json:"type"`
	SessionID string           `json:"session_id"`
	Origin    string           `json:"origin"`
	Timestamp time.Time        `json:"timestamp"`
	Payload   SelectionPayload `json:"payload"`
}

// SelectionPayload may be partial; a consumer that misses a field reads it
// back from the session store.
type SelectionPayload struct {
	Label       string `json:"selectedAccount,omitempty"`
	DisplayName string `json:"userDisplayName,omitempty"`
}
