package handlers

import (
	"net/http"
	"time"

	"field-trip-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 50 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origin is enforced by the admin token
	},
}

// WebSocketHandler streams domain events to admin clients
type WebSocketHandler struct {
	hub       *services.EventHub
	adminAuth *services.AdminAuth
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *services.EventHub, adminAuth *services.AdminAuth) *WebSocketHandler {
	return &WebSocketHandler{
		hub:       hub,
		adminAuth: adminAuth,
	}
}

// HandleWebSocket handles GET /api/admin/events. Browsers cannot set headers on
// websocket requests, so the admin token comes in the token query parameter.
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.adminAuth.Enabled() {
		token := r.URL.Query().Get("token")
		if token == "" {
			respondError(w, "token required", http.StatusUnauthorized)
			return
		}
		if err := h.adminAuth.Validate(token); err != nil {
			respondError(w, "invalid token", http.StatusUnauthorized)
			return
		}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	clientID := h.hub.Register(conn)
	defer h.hub.Unregister(clientID)

	if err := h.hub.SendTo(clientID, services.Event{Type: "connected", Message: "Listening for field trip activity"}); err != nil {
		log.Error().Err(err).Str("client_id", clientID).Msg("Failed to send welcome message")
		return
	}

	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go h.keepAlive(conn, done)

	// The feed is one-way; reading only drives control frames and detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("client_id", clientID).Msg("WebSocket error")
			}
			return
		}
	}
}

func (h *WebSocketHandler) keepAlive(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
