package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"sourcing-system/pkg/logger"
)

// Hub tracks the live websocket connections per user and pushes event
// notifications to them. A user may hold several connections (tabs, devices);
// the message goes to all of them.
type Hub struct {
	conns map[string][]*websocket.Conn
	mutex sync.RWMutex
	log   logger.Logger
}

func NewHub(log logger.Logger) *Hub {
	return &Hub{
		conns: make(map[string][]*websocket.Conn),
		log:   log,
	}
}

func (h *Hub) Register(userID string, conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.conns[userID] = append(h.conns[userID], conn)
	h.log.Info("Connection registered", "user_id", userID, "connections", len(h.conns[userID]))
}

func (h *Hub) Unregister(userID string, conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	remaining := h.conns[userID][:0]
	for _, existing := range h.conns[userID] {
		if existing != conn {
			remaining = append(remaining, existing)
		}
	}
	if len(remaining) == 0 {
		delete(h.conns, userID)
	} else {
		h.conns[userID] = remaining
	}
	h.log.Info("Connection unregistered", "user_id", userID)
}

func (h *Hub) NotifyUser(_ context.Context, userID string, message interface{}) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}

	h.mutex.RLock()
	conns := make([]*websocket.Conn, len(h.conns[userID]))
	copy(conns, h.conns[userID])
	h.mutex.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.log.Error("Failed to send notification", "user_id", userID, "error", err)
			// Keep going, other connections may still be healthy.
		}
	}
	return nil
}

// CloseAll shuts every connection down, used on service shutdown.
func (h *Hub) CloseAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for userID, conns := range h.conns {
		for _, conn := range conns {
			if err := conn.Close(); err != nil {
				h.log.Error("Failed to close connection", "user_id", userID, "error", err)
			}
		}
	}
	h.conns = make(map[string][]*websocket.Conn)
}
