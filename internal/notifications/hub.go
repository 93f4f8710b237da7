// Package notifications fans stale-view signals out to connected readers.
package notifications

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"inkwell/internal/middleware"
	"inkwell/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	hubName = "views"

	// Max total connections per process.
	maxTotalConns = 10000
)

// ErrHubFull is returned by Register when the connection limit is reached.
var ErrHubFull = errors.New("server connection limit reached")

// Hub tracks view-stream clients and broadcasts stale-view payloads to them.
type Hub struct {
	mu     sync.RWMutex
	conns  map[*Client]struct{}
	closed bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[*Client]struct{})}
}

// Register adds a connection. userID is 0 for anonymous readers.
func (h *Hub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed || len(h.conns) >= maxTotalConns {
		return nil, ErrHubFull
	}

	client := newClient(h, conn, userID)
	h.conns[client] = struct{}{}
	observability.WebSocketConnectionsTotal.Inc()
	return client, nil
}

// UnregisterClient removes the client and closes its send channel. Safe to call twice.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[client]; !ok {
		return
	}
	delete(h.conns, client)
	close(client.Send)
	observability.WebSocketConnectionsTotal.Dec()
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// BroadcastAll sends message to every connected client.
func (h *Hub) BroadcastAll(message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	data := []byte(message)
	for c := range h.conns {
		c.TrySend(data)
	}
}

// StartWiring forwards every stale-view payload from the notifier to connected clients.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartStaleSubscriber(ctx, h.BroadcastAll)
}

// Shutdown closes every connection with a going-away frame.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for client := range h.conns {
		if client.Conn != nil {
			if err := client.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")); err != nil {
				middleware.Logger.Warn("failed to write close message", slog.String("error", err.Error()))
			}
			_ = client.Conn.Close()
		}
		delete(h.conns, client)
		close(client.Send)
		observability.WebSocketConnectionsTotal.Dec()
	}
	return nil
}
