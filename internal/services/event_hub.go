package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Event types pushed to the admin feed
const (
	EventAccessRequested  = "access_requested"
	EventAccessVerified   = "access_verified"
	EventAlbumCreated     = "album_created"
	EventAlbumClosed      = "album_closed"
	EventUploadRecorded   = "upload_recorded"
	EventVolunteerSaved   = "volunteer_saved"
	EventVolunteerDeleted = "volunteer_deleted"
)

// Event is a JSON message sent to admin websocket clients
type Event struct {
	Type      string      `json:"type"`
	Timestamp int64       `json:"timestamp"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// EventPublisher receives domain events. Publishing never fails the caller.
type EventPublisher interface {
	Publish(evt Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(Event) {}

func publisherOrNop(p EventPublisher) EventPublisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}

type hubClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *hubClient) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// EventHub manages admin WebSocket connections and fans events out to them
type EventHub struct {
	mu      sync.RWMutex
	clients map[string]*hubClient
}

// NewEventHub creates a new event hub
func NewEventHub() *EventHub {
	return &EventHub{
		clients: make(map[string]*hubClient),
	}
}

// Register adds a connection and returns its client id
func (h *EventHub) Register(conn *websocket.Conn) string {
	id := uuid.New().String()

	h.mu.Lock()
	h.clients[id] = &hubClient{conn: conn}
	h.mu.Unlock()

	log.Info().Str("client_id", id).Msg("WebSocket connection registered")
	return id
}

// Unregister removes and closes a connection
func (h *EventHub) Unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, exists := h.clients[id]; exists {
		c.conn.Close()
		delete(h.clients, id)
		log.Info().Str("client_id", id).Msg("WebSocket connection unregistered")
	}
}

// Count returns the number of connected clients
func (h *EventHub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SendTo sends an event to one client
func (h *EventHub) SendTo(id string, evt Event) error {
	h.mu.RLock()
	c, exists := h.clients[id]
	h.mu.RUnlock()

	if !exists {
		return fmt.Errorf("client %s is not connected", id)
	}

	data, err := encodeEvent(evt)
	if err != nil {
		return err
	}

	if err := c.write(data); err != nil {
		h.Unregister(id)
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// Publish broadcasts an event to every connected client.
// Clients that fail to receive it are dropped.
func (h *EventHub) Publish(evt Event) {
	data, err := encodeEvent(evt)
	if err != nil {
		log.Error().Err(err).Str("type", evt.Type).Msg("Failed to encode event")
		return
	}

	h.mu.RLock()
	targets := make(map[string]*hubClient, len(h.clients))
	for id, c := range h.clients {
		targets[id] = c
	}
	h.mu.RUnlock()

	for id, c := range targets {
		if err := c.write(data); err != nil {
			log.Error().Err(err).Str("client_id", id).Msg("Failed to deliver event")
			h.Unregister(id)
		}
	}
}

// CloseAll disconnects every client
func (h *EventHub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, c := range h.clients {
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		c.conn.Close()
		delete(h.clients, id)
	}
}

func encodeEvent(evt Event) ([]byte, error) {
	if evt.Timestamp == 0 {
		evt.Timestamp = time.Now().UnixMilli()
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return data, nil
}
