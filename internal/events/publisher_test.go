package events

import (
	"testing"

	"github.com/mediaplatform/catalog-service/internal/types"
)

type fakeHub struct {
	subscribed map[int64]bool
	broadcasts []*types.Event
}

func (f *fakeHub) BroadcastToMedia(mediaID int64, event *types.Event) {
	f.broadcasts = append(f.broadcasts, event)
}

func (f *fakeHub) HasSubscribers(mediaID int64) bool {
	return f.subscribed[mediaID]
}

func TestPublishMediaViewed(t *testing.T) {
	hub := &fakeHub{subscribed: map[int64]bool{1: true}}
	publisher := NewEventPublisher(hub)

	if err := publisher.PublishMediaViewed(1, 5); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(hub.broadcasts) != 1 {
		t.Fatalf("Expected 1 broadcast, got %d", len(hub.broadcasts))
	}
	event := hub.broadcasts[0]
	if event.Type != types.EventMediaViewed {
		t.Fatalf("Expected %s event, got %s", types.EventMediaViewed, event.Type)
	}
	data, ok := event.Data.(*types.MediaViewedEvent)
	if !ok {
		t.Fatalf("Unexpected event data type: %T", event.Data)
	}
	if data.MediaID != 1 || data.Views != 5 {
		t.Fatalf("Unexpected event data: %+v", data)
	}
}

func TestPublishMediaViewed_NoSubscribers(t *testing.T) {
	hub := &fakeHub{subscribed: map[int64]bool{}}
	publisher := NewEventPublisher(hub)

	if err := publisher.PublishMediaViewed(1, 5); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(hub.broadcasts) != 0 {
		t.Fatalf("Expected no broadcasts, got %d", len(hub.broadcasts))
	}
}
