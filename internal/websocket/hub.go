package websocket

import (
	"log/slog"
	"sync"

	"github.com/mediaplatform/catalog-service/internal/types"
)

// Hub maintains the set of active clients grouped by the media asset
// they watch and fans events out to them.
type Hub struct {
	// Subscribers grouped by media ID; an asset can have any number
	// of concurrent watchers.
	subscribers map[int64]map[*Client]bool

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Mutex to protect the subscribers map
	mu sync.RWMutex

	// Channel to broadcast events
	broadcast chan *BroadcastMessage
}

// BroadcastMessage represents an event to be sent to one asset's watchers
type BroadcastMessage struct {
	MediaID int64        `json:"media_id"`
	Event   *types.Event `json:"event"`
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[int64]map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		broadcast:   make(chan *BroadcastMessage, 64),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.subscribers[client.mediaID] == nil {
				h.subscribers[client.mediaID] = make(map[*Client]bool)
			}
			h.subscribers[client.mediaID][client] = true
			h.mu.Unlock()
			slog.Info("WebSocket client subscribed", slog.Int64("media_id", client.mediaID))

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.subscribers[client.mediaID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.subscribers, client.mediaID)
					}
					slog.Info("WebSocket client unsubscribed", slog.Int64("media_id", client.mediaID))
				}
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.broadcastToMedia(message.MediaID, message.Event)
		}
	}
}

// RegisterClient registers a new client
func (h *Hub) RegisterClient(client *Client) {
	h.register <- client
}

// UnregisterClient unregisters a client
func (h *Hub) UnregisterClient(client *Client) {
	h.unregister <- client
}

// BroadcastToMedia sends an event to every watcher of one asset
func (h *Hub) BroadcastToMedia(mediaID int64, event *types.Event) {
	message := &BroadcastMessage{
		MediaID: mediaID,
		Event:   event,
	}

	select {
	case h.broadcast <- message:
	default:
		slog.Warn("Broadcast channel is full, dropping message", slog.Int64("media_id", mediaID))
	}
}

// HasSubscribers reports whether anyone is watching the asset
func (h *Hub) HasSubscribers(mediaID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[mediaID]) > 0
}

// SubscriberCount returns the number of watchers for an asset
func (h *Hub) SubscriberCount(mediaID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[mediaID])
}

func (h *Hub) broadcastToMedia(mediaID int64, event *types.Event) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.subscribers[mediaID]))
	for client := range h.subscribers[mediaID] {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		if err := client.SendEvent(event); err != nil {
			// Slow or gone; drop the client rather than block the hub
			slog.Warn("Failed to send event to client, dropping",
				slog.Int64("media_id", mediaID), slog.String("error", err.Error()))
			h.removeClient(client)
		}
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.subscribers[client.mediaID]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.subscribers, client.mediaID)
			}
		}
	}
}
