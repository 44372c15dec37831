package realtime

import (
	"sync"

	"github.com/tcmclinic/telemed/pkg/logger"
	"github.com/tcmclinic/telemed/pkg/monitoring"
	"github.com/tcmclinic/telemed/pkg/types"
)

const outboundBuffer = 256

// Hub is the process-local connection registry. One connection per
// principal; a new connection for the same principal supersedes the old
// one. All delivery is best-effort with no acknowledgment.
type Hub struct {
	mu          sync.RWMutex
	connections map[string]*Connection
	logger      *logger.Logger
}

// NewHub creates an empty connection registry.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		connections: make(map[string]*Connection),
		logger:      log,
	}
}

// Register adds a connection under its principal, closing any prior
// connection for the same principal.
func (h *Hub) Register(conn *Connection) {
	h.mu.Lock()
	prev := h.connections[conn.UserID]
	h.connections[conn.UserID] = conn
	h.mu.Unlock()

	if prev != nil {
		h.logger.WithUserID(conn.UserID).Info("Superseding existing connection")
		prev.Close()
	}
	monitoring.WSConnectionOpened()
}

// Unregister removes the connection if it is still the registered one for
// its principal. A superseded connection must not evict its replacement.
func (h *Hub) Unregister(conn *Connection) {
	h.mu.Lock()
	current, ok := h.connections[conn.UserID]
	if ok && current == conn {
		delete(h.connections, conn.UserID)
	}
	h.mu.Unlock()

	if ok && current == conn {
		monitoring.WSConnectionClosed()
	}
}

// SendToUser delivers a message to one principal if connected. Returns
// false when the principal has no live connection.
func (h *Hub) SendToUser(userID string, msg *Message) bool {
	h.mu.RLock()
	conn, ok := h.connections[userID]
	h.mu.RUnlock()

	if !ok {
		return false
	}
	conn.Enqueue(msg)
	return true
}

// BroadcastToRole enqueues a message to every connection with the role.
func (h *Hub) BroadcastToRole(role types.UserRole, msg *Message) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for _, conn := range h.connections {
		if conn.Role == role {
			conn.Enqueue(msg)
			sent++
		}
	}
	return sent
}

// BroadcastToAll enqueues a message to every live connection.
func (h *Hub) BroadcastToAll(msg *Message) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conn := range h.connections {
		conn.Enqueue(msg)
	}
	return len(h.connections)
}

// IsOnline reports whether the principal has a live connection.
func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.connections[userID]
	return ok
}

// Count returns the number of live connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}
