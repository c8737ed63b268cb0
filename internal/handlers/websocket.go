package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"sporture-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler streams event updates to connected clients
type WebSocketHandler struct {
	hub         *services.WSHub
	userService *services.UserService
	upgrader    websocket.Upgrader
}

// NewWebSocketHandler creates a new WebSocket handler. allowedOrigin "*" or
// "" accepts any origin.
func NewWebSocketHandler(hub *services.WSHub, userService *services.UserService, allowedOrigin string) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		userService: userService,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if allowedOrigin == "" || allowedOrigin == "*" {
					return true
				}
				origin := r.Header.Get("Origin")
				return origin == "" || origin == allowedOrigin
			},
		},
	}
}

// HandleWebSocket handles GET /ws. The token query parameter is optional;
// without it the client only receives broadcasts.
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	var userID string
	if token := r.URL.Query().Get("token"); token != "" {
		user, err := h.userService.Authenticate(r.Context(), token)
		if err != nil {
			respondServiceError(w, err, log.Error(), "Failed to authenticate WebSocket")
			return
		}
		userID = user.ID
	}

	// Upgrade connection
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	clientID := h.hub.Register(userID, conn)
	defer h.hub.Unregister(clientID)

	log.Info().Str("client_id", clientID).Str("user_id", userID).Msg("WebSocket connection established")

	// Handle messages
	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error().Err(err).Str("client_id", clientID).Msg("WebSocket error")
			}
			break
		}

		var msg services.WSMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			h.reply(clientID, userID, services.WSMessage{Type: "error", Message: "Invalid message format"})
			continue
		}

		switch msg.Type {
		case "ping":
			h.reply(clientID, userID, services.WSMessage{Type: "pong", Timestamp: time.Now().UnixMilli()})
		default:
			h.reply(clientID, userID, services.WSMessage{Type: "error", Message: "Unknown message type"})
		}
	}
}

// reply answers the connection that sent a message
func (h *WebSocketHandler) reply(clientID, userID string, msg services.WSMessage) {
	if err := h.hub.SendToClient(clientID, msg); err != nil {
		log.Warn().Err(err).Str("client_id", clientID).Str("user_id", userID).Msg("Failed to reply on WebSocket")
	}
}
