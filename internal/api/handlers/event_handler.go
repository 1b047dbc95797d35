package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/paalso/microblog-go/internal/auth"
	"github.com/paalso/microblog-go/internal/services"
)

// EventHandler handles HTTP requests for the admin activity view.
type EventHandler struct {
	events services.EventServiceProvider
	users  services.UserServiceProvider
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(events services.EventServiceProvider, users services.UserServiceProvider) *EventHandler {
	return &EventHandler{events: events, users: users}
}

// GetRecent returns the most recent activity events. Admin only.
func (h *EventHandler) GetRecent(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Could not retrieve user from token", http.StatusInternalServerError)
		return
	}

	user, err := h.users.GetUserByID(claims.UserID)
	if err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	if !user.IsAdmin() {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 1 || limit > 500 {
		limit = 100
	}

	events, err := h.events.GetRecentEvents(limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load events")
		http.Error(w, "Failed to load events", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(events)
}
