package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/paalso/microblog-go/internal/api/handlers"
	"github.com/paalso/microblog-go/internal/auth"
	"github.com/paalso/microblog-go/internal/config"
	"github.com/paalso/microblog-go/internal/mailer"
	"github.com/paalso/microblog-go/internal/services"
	ws "github.com/paalso/microblog-go/internal/websocket"
)

// Deps bundles the collaborators the router wires into handlers.
type Deps struct {
	Users   services.UserServiceProvider
	Follows services.FollowServiceProvider
	Posts   services.PostServiceProvider
	Events  services.EventServiceProvider
	Auth    *auth.Manager
	Mailer  mailer.Mailer
	Hub     *ws.Hub
}

// NewRouter creates and configures a new Chi router.
func NewRouter(cfg *config.Config, d Deps) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration for development
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	userHandler := handlers.NewUserHandler(d.Users, d.Follows, d.Events, d.Auth, d.Mailer,
		cfg.BaseURL, time.Duration(cfg.ResetTokenTTL)*time.Second)
	followHandler := handlers.NewFollowHandler(d.Users, d.Follows, d.Events)
	postHandler := handlers.NewPostHandler(d.Posts, d.Users, d.Follows, d.Events, d.Hub, cfg.PostsPerPage)
	eventHandler := handlers.NewEventHandler(d.Events, d.Users)
	wsHandler := handlers.NewWebSocketHandler(d.Hub, d.Auth)

	// API versioning
	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints
		r.Post("/auth/register", userHandler.Register)
		r.Post("/auth/login", userHandler.Login)
		r.Post("/auth/reset-password", userHandler.RequestPasswordReset)
		r.Post("/auth/reset-password/confirm", userHandler.ConfirmPasswordReset)

		// WebSocket connection endpoint (does its own token check)
		r.Get("/ws", wsHandler.Serve)

		// Authenticated endpoints
		r.Group(func(r chi.Router) {
			r.Use(d.Auth.Middleware())
			r.Use(lastSeen(d.Users))

			r.Get("/auth/me", userHandler.GetMe)

			r.Route("/users/{username}", func(r chi.Router) {
				r.Get("/", userHandler.GetProfile)
				r.Get("/posts", postHandler.UserPosts)
				r.Get("/followers", followHandler.Followers)
				r.Get("/following", followHandler.Following)
				r.Post("/follow", followHandler.Follow)
				r.Delete("/follow", followHandler.Unfollow)
			})

			r.Put("/profile", userHandler.UpdateProfile)
			r.Post("/profile/password", userHandler.ChangePassword)

			r.Post("/posts", postHandler.Create)
			r.Get("/feed", postHandler.Feed)
			r.Get("/explore", postHandler.Explore)

			r.Get("/events", eventHandler.GetRecent)
		})
	})

	return r
}

// lastSeen refreshes the authenticated user's last-seen timestamp on every
// request, best-effort.
func lastSeen(users services.UserServiceProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
				if err := users.TouchLastSeen(claims.UserID); err != nil {
					log.Warn().Err(err).Str("user_id", claims.UserID).Msg("Failed to update last seen")
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
