package ws

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/tair/wholesale-backoffice/pkg/logger"
)

// Conn is the slice of *websocket.Conn the hub uses. Tests substitute a
// recording fake.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Hub tracks live stock-update subscribers and pushes a plain text message
// to all of them after a committed stock mutation. Connections that fail a
// write are dropped.
type Hub struct {
	mu    sync.RWMutex
	conns map[Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{conns: make(map[Conn]struct{})}
}

func (h *Hub) Register(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c] = struct{}{}
}

func (h *Hub) Unregister(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, c)
}

// Count returns the number of live subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Broadcast sends message to every subscriber, dropping any connection
// whose write fails.
func (h *Hub) Broadcast(message string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.conns {
		if err := c.WriteMessage(websocket.TextMessage, []byte(message)); err != nil {
			c.Close()
			delete(h.conns, c)
		}
	}
}

// Handler upgrades HTTP requests into stock-update subscriptions.
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// HandleStockUpdates handles GET /api/orders/ws/stock_updates. The read
// loop exists only to observe the close; subscribers never send.
func (h *Handler) HandleStockUpdates(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn(r.Context()).Err(err).Msg("WebSocket upgrade failed")
		return
	}

	h.hub.Register(conn)
	defer func() {
		h.hub.Unregister(conn)
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
