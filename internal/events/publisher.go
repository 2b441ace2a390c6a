package events

import (
	"time"

	"github.com/mediaplatform/catalog-service/internal/types"
)

// Publisher interface for publishing events
type Publisher interface {
	PublishMediaViewed(mediaID, views int64) error
}

// WebSocketHub interface for the WebSocket hub
type WebSocketHub interface {
	BroadcastToMedia(mediaID int64, event *types.Event)
	HasSubscribers(mediaID int64) bool
}

// EventPublisher implements the Publisher interface
type EventPublisher struct {
	hub WebSocketHub
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(hub WebSocketHub) *EventPublisher {
	return &EventPublisher{
		hub: hub,
	}
}

// PublishMediaViewed fans a view event out to everyone watching the
// asset's live counter.
func (p *EventPublisher) PublishMediaViewed(mediaID, views int64) error {
	// Skip the marshal work when nobody is watching
	if !p.hub.HasSubscribers(mediaID) {
		return nil
	}

	eventData := &types.MediaViewedEvent{
		MediaID:  mediaID,
		Views:    views,
		ViewedAt: time.Now().UTC().Format(time.RFC3339),
	}

	event := types.NewEvent(types.EventMediaViewed, eventData)
	p.hub.BroadcastToMedia(mediaID, event)

	return nil
}
