package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/paalso/microblog-go/internal/models"
)

// Claims defines the JWT claims structure for session tokens.
type Claims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// resetClaims carries the user identifier of a password-reset token. The
// claim name keeps reset tokens distinct from session tokens: a session
// token carries no reset_password claim and fails verification.
type resetClaims struct {
	ResetPassword string `json:"reset_password"`
	jwt.RegisteredClaims
}

// UserClaimsKey is the context key for user claims.
type contextKey string

const UserClaimsKey = contextKey("userClaims")

// SessionTTL is how long a session token stays valid.
const SessionTTL = 24 * time.Hour

// Manager signs and validates the application's tokens. Construct one per
// process (or per test) instead of relying on process-wide key state.
type Manager struct {
	key []byte
}

// NewManager creates a Manager signing with the given secret.
func NewManager(secret string) *Manager {
	return &Manager{key: []byte(secret)}
}

// GenerateJWT creates a new session JWT for a given user.
func (m *Manager) GenerateJWT(user models.User) (string, error) {
	claims := &Claims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(SessionTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.key)
}

// ValidateJWT parses and validates a session JWT string.
func (m *Manager) ValidateJWT(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return m.key, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == "" {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// GenerateResetToken creates a time-limited password-reset token for the
// given user.
func (m *Manager) GenerateResetToken(userID string, ttl time.Duration) (string, error) {
	claims := &resetClaims{
		ResetPassword: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.key)
}

// VerifyResetToken validates a password-reset token and returns the user ID
// it was issued for. Malformed, expired, or non-reset tokens all fail the
// same way.
func (m *Manager) VerifyResetToken(tokenStr string) (string, error) {
	claims := &resetClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return m.key, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.ResetPassword == "" {
		return "", fmt.Errorf("invalid reset token")
	}
	return claims.ResetPassword, nil
}

// Middleware creates a middleware for protecting routes.
func (m *Manager) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := TokenFromRequest(r)
			if tokenStr == "" {
				http.Error(w, "Missing auth token", http.StatusUnauthorized)
				return
			}

			claims, err := m.ValidateJWT(tokenStr)
			if err != nil {
				http.Error(w, "Invalid auth token", http.StatusUnauthorized)
				return
			}

			// Pass claims down via context
			ctx := context.WithValue(r.Context(), UserClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TokenFromRequest extracts a session token from the Authorization header,
// the token cookie, or the token query parameter, in that order. The query
// parameter exists for websocket clients that cannot set headers.
func TokenFromRequest(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, "Bearer ")
		if len(parts) == 2 {
			return parts[1]
		}
	}

	if cookie, err := r.Cookie("token"); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	return r.URL.Query().Get("token")
}

// ClaimsFromContext retrieves the authenticated user's claims, if any.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(UserClaimsKey).(*Claims)
	return claims, ok
}
