package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"sourcing-system/internal/api/middleware"
	ws "sourcing-system/internal/infrastructure/websocket"
	"sourcing-system/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketHandler struct {
	hub *ws.Hub
	log logger.Logger
}

func NewWebSocketHandler(hub *ws.Hub, log logger.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
		log: log,
	}
}

// Connect upgrades the request and parks the connection in the hub until the
// peer goes away. The connection is read-only from the client's side; pushes
// flow hub -> client.
func (h *WebSocketHandler) Connect(c echo.Context) error {
	caller, ok := middleware.CallerFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Missing caller identity"})
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.log.Error("Failed to upgrade connection", "user_id", caller.ID, "error", err)
		return err
	}

	h.hub.Register(caller.ID, conn)
	go h.readLoop(caller.ID, conn)
	return nil
}

func (h *WebSocketHandler) readLoop(userID string, conn *websocket.Conn) {
	defer func() {
		h.hub.Unregister(userID, conn)
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
