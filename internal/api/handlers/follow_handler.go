package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/paalso/microblog-go/internal/auth"
	"github.com/paalso/microblog-go/internal/services"
)

// FollowHandler handles HTTP requests for the follow graph.
type FollowHandler struct {
	users   services.UserServiceProvider
	follows services.FollowServiceProvider
	events  services.EventServiceProvider
}

// NewFollowHandler creates a new FollowHandler.
func NewFollowHandler(users services.UserServiceProvider, follows services.FollowServiceProvider,
	events services.EventServiceProvider) *FollowHandler {
	return &FollowHandler{users: users, follows: follows, events: events}
}

// resolveTarget loads the user addressed by the {username} URL parameter.
func (h *FollowHandler) resolveTarget(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	username := chi.URLParam(r, "username")
	target, err := h.users.GetUserByUsername(username)
	if err != nil {
		log.Warn().Err(err).Str("username", username).Msg("Follow target not found")
		http.Error(w, "User not found", http.StatusNotFound)
		return "", "", false
	}
	return target.ID, target.Username, true
}

// Follow makes the authenticated user follow the addressed user. Following
// yourself is rejected here; following someone twice is a no-op.
func (h *FollowHandler) Follow(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Could not retrieve user from token", http.StatusInternalServerError)
		return
	}

	targetID, targetName, ok := h.resolveTarget(w, r)
	if !ok {
		return
	}

	if targetID == claims.UserID {
		http.Error(w, "You cannot follow yourself", http.StatusBadRequest)
		return
	}

	already, err := h.follows.IsFollowing(claims.UserID, targetID)
	if err != nil {
		http.Error(w, "Failed to follow user", http.StatusInternalServerError)
		return
	}

	message := fmt.Sprintf("You are now following %s", targetName)
	if already {
		message = fmt.Sprintf("You are already following %s", targetName)
	} else {
		if err := h.follows.Follow(claims.UserID, targetID); err != nil {
			log.Error().Err(err).Str("follower", claims.UserID).Str("followed", targetID).Msg("Failed to create follow")
			http.Error(w, "Failed to follow user", http.StatusInternalServerError)
			return
		}
		log.Info().Str("follower", claims.Username).Str("followed", targetName).Msg("New follow")
		if err := h.events.CreateEvent("follow.create", "info",
			fmt.Sprintf("%s followed %s", claims.Username, targetName), &claims.UserID); err != nil {
			log.Warn().Err(err).Str("user_id", claims.UserID).Msg("Failed to record event")
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}

// Unfollow removes the authenticated user's follow of the addressed user.
// Unfollowing someone you don't follow is a no-op.
func (h *FollowHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Could not retrieve user from token", http.StatusInternalServerError)
		return
	}

	targetID, targetName, ok := h.resolveTarget(w, r)
	if !ok {
		return
	}

	if targetID == claims.UserID {
		http.Error(w, "You cannot unfollow yourself", http.StatusBadRequest)
		return
	}

	if err := h.follows.Unfollow(claims.UserID, targetID); err != nil {
		log.Error().Err(err).Str("follower", claims.UserID).Str("followed", targetID).Msg("Failed to remove follow")
		http.Error(w, "Failed to unfollow user", http.StatusInternalServerError)
		return
	}

	log.Info().Str("follower", claims.Username).Str("followed", targetName).Msg("Unfollow")
	if err := h.events.CreateEvent("follow.remove", "info",
		fmt.Sprintf("%s unfollowed %s", claims.Username, targetName), &claims.UserID); err != nil {
		log.Warn().Err(err).Str("user_id", claims.UserID).Msg("Failed to record event")
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": fmt.Sprintf("You are no longer following %s", targetName),
	})
}

// Followers lists the users following the addressed user.
func (h *FollowHandler) Followers(w http.ResponseWriter, r *http.Request) {
	targetID, _, ok := h.resolveTarget(w, r)
	if !ok {
		return
	}

	users, err := h.follows.Followers(targetID)
	if err != nil {
		http.Error(w, "Failed to list followers", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(users)
}

// Following lists the users the addressed user follows.
func (h *FollowHandler) Following(w http.ResponseWriter, r *http.Request) {
	targetID, _, ok := h.resolveTarget(w, r)
	if !ok {
		return
	}

	users, err := h.follows.Following(targetID)
	if err != nil {
		http.Error(w, "Failed to list following", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(users)
}
