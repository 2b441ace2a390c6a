package types

import "time"

// EventType represents the type of real-time event
type EventType string

const (
	EventMediaViewed EventType = "media.viewed"
)

// Event represents a real-time event that can be sent over WebSocket
type Event struct {
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
}

// MediaViewedEvent is sent to subscribers of an asset whenever its
// view counter is incremented.
type MediaViewedEvent struct {
	MediaID  int64  `json:"media_id"`
	Views    int64  `json:"views"`
	ViewedAt string `json:"viewed_at"`
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
