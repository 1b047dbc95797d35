package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/paalso/microblog-go/internal/auth"
	"github.com/paalso/microblog-go/internal/services"
	ws "github.com/paalso/microblog-go/internal/websocket"
)

// PostHandler handles HTTP requests for posts and feeds.
type PostHandler struct {
	posts   services.PostServiceProvider
	users   services.UserServiceProvider
	follows services.FollowServiceProvider
	events  services.EventServiceProvider
	hub     *ws.Hub
	perPage int
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(posts services.PostServiceProvider, users services.UserServiceProvider,
	follows services.FollowServiceProvider, events services.EventServiceProvider,
	hub *ws.Hub, perPage int) *PostHandler {
	return &PostHandler{
		posts:   posts,
		users:   users,
		follows: follows,
		events:  events,
		hub:     hub,
		perPage: perPage,
	}
}

// pageParams reads page/per_page from the query string, clamping per_page to
// the configured default.
func (h *PostHandler) pageParams(r *http.Request) (int, int) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	perPage, err := strconv.Atoi(r.URL.Query().Get("per_page"))
	if err != nil || perPage < 1 || perPage > h.perPage {
		perPage = h.perPage
	}
	return page, perPage
}

// Create handles new post submission and pushes the post to the author's
// online followers.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Could not retrieve user from token", http.StatusInternalServerError)
		return
	}

	var payload struct {
		Body string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	post, err := h.posts.CreatePost(claims.UserID, payload.Body)
	if err != nil {
		log.Warn().Err(err).Str("user_id", claims.UserID).Msg("Failed to create post")
		http.Error(w, "Failed to create post: "+err.Error(), http.StatusBadRequest)
		return
	}

	log.Info().Str("username", claims.Username).Str("post_id", post.ID).Msg("New post created")
	if err := h.events.CreateEvent("post.create", "info",
		fmt.Sprintf("%s posted", claims.Username), &claims.UserID); err != nil {
		log.Warn().Err(err).Str("user_id", claims.UserID).Msg("Failed to record event")
	}

	// Fan the post out to online followers and the author's own clients.
	if h.hub != nil {
		message := ws.NewPostMessage(post)
		h.hub.BroadcastTo(claims.UserID, message)
		if followerIDs, err := h.follows.FollowerIDs(claims.UserID); err == nil {
			for _, id := range followerIDs {
				h.hub.BroadcastTo(id, message)
			}
		} else {
			log.Warn().Err(err).Str("user_id", claims.UserID).Msg("Failed to load followers for fanout")
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(post)
}

// Feed returns the authenticated user's feed: their own posts plus posts
// from everyone they follow, newest first.
func (h *PostHandler) Feed(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Could not retrieve user from token", http.StatusInternalServerError)
		return
	}

	page, perPage := h.pageParams(r)
	result, err := h.posts.Feed(claims.UserID, page, perPage)
	if err != nil {
		log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to load feed")
		http.Error(w, "Failed to load feed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// Explore returns all posts from all users, newest first.
func (h *PostHandler) Explore(w http.ResponseWriter, r *http.Request) {
	page, perPage := h.pageParams(r)
	result, err := h.posts.Explore(page, perPage)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load explore page")
		http.Error(w, "Failed to load posts", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// UserPosts returns the addressed user's own posts, newest first.
func (h *PostHandler) UserPosts(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	user, err := h.users.GetUserByUsername(username)
	if err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	page, perPage := h.pageParams(r)
	result, err := h.posts.PostsByUser(user.ID, page, perPage)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to load user posts")
		http.Error(w, "Failed to load posts", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
