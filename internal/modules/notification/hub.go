package notification

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

// Hub tracks open websocket connections per user. A user may have several.
type Hub struct {
	connections map[int64]map[*client]struct{}
	mutex       sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		connections: make(map[int64]map[*client]struct{}),
	}
}

// Register adds conn and returns the function that removes it again.
func (h *Hub) Register(userID int64, conn *websocket.Conn) func() {
	c := &client{conn: conn}

	h.mutex.Lock()
	if h.connections[userID] == nil {
		h.connections[userID] = make(map[*client]struct{})
	}
	h.connections[userID][c] = struct{}{}
	h.mutex.Unlock()

	return func() { h.unregister(userID, c) }
}

func (h *Hub) unregister(userID int64, c *client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	conns, exists := h.connections[userID]
	if !exists {
		return
	}
	if _, ok := conns[c]; ok {
		_ = c.conn.Close()
		delete(conns, c)
	}
	if len(conns) == 0 {
		delete(h.connections, userID)
	}
}

// SendToUser writes message to every connection of the user and returns how
// many writes succeeded. Broken connections are dropped.
func (h *Hub) SendToUser(userID int64, message any) int {
	h.mutex.RLock()
	targets := make([]*client, 0, len(h.connections[userID]))
	for c := range h.connections[userID] {
		targets = append(targets, c)
	}
	h.mutex.RUnlock()

	sent := 0
	for _, c := range targets {
		if err := c.writeJSON(message); err != nil {
			h.unregister(userID, c)
			continue
		}
		sent++
	}
	return sent
}

func (h *Hub) IsOnline(userID int64) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return len(h.connections[userID]) > 0
}

func (h *Hub) GetOnlineCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return len(h.connections)
}

func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for userID, conns := range h.connections {
		for c := range conns {
			_ = c.conn.Close()
		}
		delete(h.connections, userID)
	}
}
