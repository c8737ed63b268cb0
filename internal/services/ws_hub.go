package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"sporture-backend/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type      string        `json:"type"`
	Timestamp int64         `json:"timestamp,omitempty"`
	EventID   string        `json:"eventId,omitempty"`
	Event     *models.Event `json:"event,omitempty"`
	StartsIn  string        `json:"startsIn,omitempty"`
	Message   string        `json:"message,omitempty"`
}

// WSConn is the part of *websocket.Conn the hub writes to
type WSConn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type wsClient struct {
	id     string
	userID string
	conn   WSConn
	// gorilla connections allow a single concurrent writer
	writeMu sync.Mutex
}

func (c *wsClient) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// WSHub manages WebSocket connections. Anonymous clients receive broadcasts;
// authenticated ones also receive messages addressed to their user.
type WSHub struct {
	mu      sync.RWMutex
	clients map[string]*wsClient
}

// NewWSHub creates a new WebSocket hub
func NewWSHub() *WSHub {
	return &WSHub{
		clients: make(map[string]*wsClient),
	}
}

// Register adds a connection and returns its client id. userID may be empty.
func (h *WSHub) Register(userID string, conn WSConn) string {
	client := &wsClient{
		id:     uuid.New().String(),
		userID: userID,
		conn:   conn,
	}

	h.mu.Lock()
	h.clients[client.id] = client
	h.mu.Unlock()

	log.Info().Str("client_id", client.id).Str("user_id", userID).Msg("WebSocket connection registered")

	return client.id
}

// Unregister closes and removes a connection
func (h *WSHub) Unregister(clientID string) {
	h.mu.Lock()
	client, exists := h.clients[clientID]
	if exists {
		delete(h.clients, clientID)
	}
	h.mu.Unlock()

	if exists {
		client.conn.Close()
		log.Info().Str("client_id", clientID).Str("user_id", client.userID).Msg("WebSocket connection unregistered")
	}
}

// SendToUser sends a message to every connection of a user
func (h *WSHub) SendToUser(userID string, message WSMessage) error {
	targets := h.snapshot(func(c *wsClient) bool { return c.userID != "" && c.userID == userID })
	if len(targets) == 0 {
		return fmt.Errorf("user %s is not connected", userID)
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	var sent int
	for _, c := range targets {
		if err := c.write(data); err != nil {
			log.Warn().Err(err).Str("client_id", c.id).Msg("Failed to send message")
			h.Unregister(c.id)
			continue
		}
		sent++
	}
	if sent == 0 {
		return fmt.Errorf("failed to send message to user %s", userID)
	}

	return nil
}

// SendToClient sends a message to a single connection
func (h *WSHub) SendToClient(clientID string, message WSMessage) error {
	h.mu.RLock()
	client, exists := h.clients[clientID]
	h.mu.RUnlock()

	if !exists {
		return fmt.Errorf("client %s is not connected", clientID)
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := client.write(data); err != nil {
		h.Unregister(clientID)
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// Broadcast sends a message to every connection
func (h *WSHub) Broadcast(message WSMessage) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Error().Err(err).Str("type", message.Type).Msg("Failed to marshal broadcast")
		return
	}

	for _, c := range h.snapshot(nil) {
		if err := c.write(data); err != nil {
			log.Warn().Err(err).Str("client_id", c.id).Msg("Failed to broadcast message")
			h.Unregister(c.id)
		}
	}
}

// BroadcastEvent announces an event change to all clients
func (h *WSHub) BroadcastEvent(msgType string, event *models.Event) {
	h.Broadcast(WSMessage{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		EventID:   event.ID,
		Event:     event,
	})
}

// NotifyReminder tells a connected player that an event is about to start
func (h *WSHub) NotifyReminder(userID string, event *models.Event, startsIn string) error {
	return h.SendToUser(userID, WSMessage{
		Type:      "event_reminder",
		Timestamp: time.Now().UnixMilli(),
		EventID:   event.ID,
		StartsIn:  startsIn,
		Message:   fmt.Sprintf("%s starts %s", event.Title, startsIn),
	})
}

// IsOnline checks if a user has at least one open connection
func (h *WSHub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		if c.userID != "" && c.userID == userID {
			return true
		}
	}
	return false
}

// Count returns the number of open connections
func (h *WSHub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *WSHub) snapshot(keep func(*wsClient) bool) []*wsClient {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]*wsClient, 0, len(h.clients))
	for _, c := range h.clients {
		if keep == nil || keep(c) {
			out = append(out, c)
		}
	}
	return out
}
