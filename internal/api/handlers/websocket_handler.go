package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/isdelr/taskmanager/internal/auth"
	ws "github.com/isdelr/taskmanager/internal/websocket"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler upgrades guarded requests to the session event stream.
type WebSocketHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates a new WebSocketHandler. Upgrades are accepted
// from the same host or from any of allowedOrigins.
func NewWebSocketHandler(hub *ws.Hub, allowedOrigins []string) *WebSocketHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || allowed[origin] {
					return true
				}
				return origin == "http://"+r.Host || origin == "https://"+r.Host
			},
		},
	}
}

// Serve handles the WebSocket connection request.
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	current, ok := auth.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade websocket connection")
		return
	}

	client := ws.NewClient(h.hub, conn, current.UserID, current.ID)
	if !h.hub.Attach(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
