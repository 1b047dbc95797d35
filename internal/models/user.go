package models

import (
	"crypto/md5"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role values for User.Role.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a user account in the system.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // Never expose this to the client
	AboutMe      string     `json:"aboutMe"`
	Role         string     `json:"role"`
	LastSeen     *time.Time `json:"lastSeen,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// SetPassword stores a bcrypt hash of the given plaintext on the user.
// The plaintext is never retained.
func (u *User) SetPassword(plaintext string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword reports whether the plaintext matches the stored hash.
// A user with no password set never matches.
func (u *User) CheckPassword(plaintext string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plaintext)) == nil
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// AvatarURL returns the gravatar URL for the user's email at the given size.
func (u *User) AvatarURL(size int) string {
	digest := md5.Sum([]byte(strings.ToLower(u.Email)))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%x?d=identicon&s=%d", digest, size)
}
