package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"

	"warden/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	// Max total connections across all consoles.
	maxTotalConns = 1000
)

// Hub fans moderation events out to every connected admin console. Events
// flow through Redis pub/sub first, so consoles attached to different
// replicas see the same stream.
type Hub struct {
	mu    sync.RWMutex
	conns map[*Client]struct{}
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "moderation hub" }

// NewHub creates a new Hub instance.
func NewHub() *Hub {
	return &Hub{
		conns: make(map[*Client]struct{}),
	}
}

// Register adds a console connection. Returns the Client or an error when the
// connection limit is reached.
func (h *Hub) Register(admin string, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	if len(h.conns) >= maxTotalConns {
		h.mu.Unlock()
		return nil, errors.New("server connection limit reached")
	}
	client := NewClient(h, conn, admin)
	h.conns[client] = struct{}{}
	h.mu.Unlock()

	observability.WebSocketConnectionsTotal.Inc()
	return client, nil
}

// UnregisterClient removes a console connection.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	removed := false
	if _, ok := h.conns[client]; ok {
		delete(h.conns, client)
		removed = true
	}
	h.mu.Unlock()

	if removed {
		observability.WebSocketConnectionsTotal.Dec()
	}
}

// BroadcastAll sends message to every connected console.
func (h *Hub) BroadcastAll(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.conns {
		c.TrySend(message)
	}
}

// ConnCount returns the number of connected consoles.
func (h *Hub) ConnCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// StartWiring connects the Notifier to this hub: events arriving on the
// Redis channel are re-encoded and broadcast to every console.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartSubscriber(ctx, func(event Event) {
		payload, err := json.Marshal(event)
		if err != nil {
			return
		}
		h.BroadcastAll(payload)
	})
}

// Shutdown gracefully closes all websocket connections.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	for client := range h.conns {
		if client.Conn == nil {
			continue
		}
		if err := client.Conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")); err != nil {
			log.Printf("failed to write close message for admin %s: %v", client.Admin, err)
		}
		if err := client.Conn.Close(); err != nil {
			log.Printf("failed to close websocket for admin %s: %v", client.Admin, err)
		}
		observability.WebSocketConnectionsTotal.Dec()
	}
	h.conns = make(map[*Client]struct{})
	h.mu.Unlock()

	return nil
}
