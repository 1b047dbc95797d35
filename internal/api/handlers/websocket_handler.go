package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/paalso/microblog-go/internal/auth"
	ws "github.com/paalso/microblog-go/internal/websocket"
)

// WebSocketHandler upgrades HTTP connections to live-feed websocket
// connections.
type WebSocketHandler struct {
	hub  *ws.Hub
	auth *auth.Manager
}

// NewWebSocketHandler creates a new WebSocketHandler.
func NewWebSocketHandler(hub *ws.Hub, authMgr *auth.Manager) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, auth: authMgr}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins (consider tightening this in production).
		return true
	},
}

// Serve handles the WebSocket connection request. The session token arrives
// via the token query parameter or the cookie since browsers cannot set
// headers on websocket requests.
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	tokenStr := auth.TokenFromRequest(r)
	claims, err := h.auth.ValidateJWT(tokenStr)
	if err != nil {
		http.Error(w, "Invalid auth token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade websocket connection")
		return
	}

	client := ws.NewClient(h.hub, conn, claims.UserID)
	h.hub.Register <- client

	go client.WritePump()
	go func() {
		// The feed stream is one-way; inbound frames only keep the
		// connection alive.
		client.ReadPump(nil)
		h.hub.Unregister <- client
	}()
}
