package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/paalso/microblog-go/internal/auth"
	"github.com/paalso/microblog-go/internal/mailer"
	"github.com/paalso/microblog-go/internal/services"
)

// UserHandler handles HTTP requests for accounts and profiles.
type UserHandler struct {
	users    services.UserServiceProvider
	follows  services.FollowServiceProvider
	events   services.EventServiceProvider
	auth     *auth.Manager
	mailer   mailer.Mailer
	baseURL  string
	resetTTL time.Duration
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users services.UserServiceProvider, follows services.FollowServiceProvider,
	events services.EventServiceProvider, authMgr *auth.Manager, m mailer.Mailer,
	baseURL string, resetTTL time.Duration) *UserHandler {
	return &UserHandler{
		users:    users,
		follows:  follows,
		events:   events,
		auth:     authMgr,
		mailer:   m,
		baseURL:  baseURL,
		resetTTL: resetTTL,
	}
}

// AuthPayload defines the structure for login requests.
type AuthPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterPayload defines the structure for registration requests.
type RegisterPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles new user registration.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.users.CreateUser(payload.Username, payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, services.ErrDuplicate) {
			http.Error(w, "Username or email already taken", http.StatusBadRequest)
			return
		}
		log.Error().Err(err).Str("email", payload.Email).Msg("Failed to register user")
		http.Error(w, "Failed to register user: "+err.Error(), http.StatusBadRequest)
		return
	}

	log.Info().Str("username", user.Username).Msg("New user registered")
	if err := h.events.CreateEvent("user.register", "info",
		fmt.Sprintf("User %s registered", user.Username), &user.ID); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID).Msg("Failed to record event")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(user)
}

// Login handles user authentication and JWT generation.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload AuthPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.users.AuthenticateUser(payload.Username, payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("username", payload.Username).Msg("Failed authentication attempt")
		http.Error(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}

	token, err := h.auth.GenerateJWT(user)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to generate JWT")
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	if err := h.users.TouchLastSeen(user.ID); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID).Msg("Failed to update last seen")
	}
	if err := h.events.CreateEvent("user.login", "info",
		fmt.Sprintf("User %s logged in", user.Username), &user.ID); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID).Msg("Failed to record event")
	}

	// Set Secure flag based on environment.
	isProd := os.Getenv("APP_ENV") == "production"

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Expires:  time.Now().Add(auth.SessionTTL),
		HttpOnly: true,
		Secure:   isProd,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// GetMe retrieves the currently authenticated user from the token.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		log.Error().Msg("Could not retrieve user claims from context")
		http.Error(w, "Could not retrieve user from token", http.StatusInternalServerError)
		return
	}

	user, err := h.users.GetUserByID(claims.UserID)
	if err != nil {
		log.Error().Err(err).Str("user_id", claims.UserID).Msg("User from token not found in DB")
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	user.PasswordHash = ""

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

// ProfileResponse is the payload for a profile page: the user plus their
// social-graph numbers relative to the viewer.
type ProfileResponse struct {
	ID             string     `json:"id"`
	Username       string     `json:"username"`
	AboutMe        string     `json:"aboutMe"`
	AvatarURL      string     `json:"avatarUrl"`
	LastSeen       *time.Time `json:"lastSeen,omitempty"`
	FollowersCount int        `json:"followersCount"`
	FollowingCount int        `json:"followingCount"`
	IsFollowing    bool       `json:"isFollowing"`
	IsSelf         bool       `json:"isSelf"`
}

// GetProfile handles retrieving a user's profile by username.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	username := chi.URLParam(r, "username")

	user, err := h.users.GetUserByUsername(username)
	if err != nil {
		log.Warn().Err(err).Str("username", username).Msg("Profile request for unknown user")
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	followers, err := h.follows.FollowersCount(user.ID)
	if err != nil {
		http.Error(w, "Failed to load profile", http.StatusInternalServerError)
		return
	}
	following, err := h.follows.FollowingCount(user.ID)
	if err != nil {
		http.Error(w, "Failed to load profile", http.StatusInternalServerError)
		return
	}

	resp := ProfileResponse{
		ID:             user.ID,
		Username:       user.Username,
		AboutMe:        user.AboutMe,
		AvatarURL:      user.AvatarURL(128),
		LastSeen:       user.LastSeen,
		FollowersCount: followers,
		FollowingCount: following,
	}
	if claims != nil {
		resp.IsSelf = claims.UserID == user.ID
		if !resp.IsSelf {
			isFollowing, err := h.follows.IsFollowing(claims.UserID, user.ID)
			if err != nil {
				http.Error(w, "Failed to load profile", http.StatusInternalServerError)
				return
			}
			resp.IsFollowing = isFollowing
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// UpdateProfile handles updating the authenticated user's profile.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Could not retrieve user from token", http.StatusInternalServerError)
		return
	}

	var payload struct {
		Username string `json:"username"`
		AboutMe  string `json:"aboutMe"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.users.UpdateProfile(claims.UserID, payload.Username, payload.AboutMe)
	if err != nil {
		if errors.Is(err, services.ErrDuplicate) {
			http.Error(w, "Username already taken", http.StatusBadRequest)
			return
		}
		log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to update profile")
		http.Error(w, "Failed to update profile", http.StatusInternalServerError)
		return
	}

	user.PasswordHash = ""
	log.Info().Str("username", user.Username).Msg("Profile updated")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

// ChangePassword handles changing the authenticated user's password.
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Could not retrieve user from token", http.StatusInternalServerError)
		return
	}

	var payload struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.users.UpdatePassword(claims.UserID, payload.CurrentPassword, payload.NewPassword); err != nil {
		log.Warn().Err(err).Str("user_id", claims.UserID).Msg("Failed to change password")
		http.Error(w, "Failed to change password: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Password updated successfully"})
}

// RequestPasswordReset emails a reset link to the given address. The
// response does not reveal whether the address matched an account.
func (h *UserHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.users.GetUserByEmail(payload.Email)
	if err == nil {
		token, tokenErr := h.auth.GenerateResetToken(user.ID, h.resetTTL)
		if tokenErr != nil {
			log.Error().Err(tokenErr).Str("user_id", user.ID).Msg("Failed to generate reset token")
		} else {
			link := fmt.Sprintf("%s/reset_password/%s", h.baseURL, token)
			body := fmt.Sprintf("Dear %s,\n\nTo reset your password visit the following link:\n\n%s\n\n"+
				"If you have not requested a password reset simply ignore this message.\n",
				user.Username, link)
			if sendErr := h.mailer.Send(user.Email, "[Microblog] Reset Your Password", body); sendErr != nil {
				log.Error().Err(sendErr).Str("user_id", user.ID).Msg("Failed to send reset email")
			}
		}
	} else {
		log.Warn().Str("email", payload.Email).Msg("Password reset requested for unknown email")
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Check your email for the instructions to reset your password",
	})
}

// ConfirmPasswordReset sets a new password for the user referenced by a
// valid reset token.
func (h *UserHandler) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	userID, err := h.auth.VerifyResetToken(payload.Token)
	if err != nil {
		log.Warn().Err(err).Msg("Invalid or expired reset token")
		http.Error(w, "Invalid or expired reset token", http.StatusBadRequest)
		return
	}

	if err := h.users.ResetPassword(userID, payload.Password); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to reset password")
		http.Error(w, "Failed to reset password", http.StatusBadRequest)
		return
	}

	log.Info().Str("user_id", userID).Msg("Password reset completed")
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Your password has been reset"})
}
