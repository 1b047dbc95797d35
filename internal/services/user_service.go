package services

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paalso/microblog-go/internal/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = fmt.Errorf("not found")

// ErrDuplicate is returned when a registration or profile update collides
// with an existing username or email.
var ErrDuplicate = fmt.Errorf("already taken")

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	GetUserByID(id string) (models.User, error)
	GetUserByUsername(username string) (models.User, error)
	GetUserByEmail(email string) (models.User, error)
	ListUsers() ([]models.User, error)
	CreateUser(username, email, password string) (models.User, error)
	UpdateProfile(id, username, aboutMe string) (models.User, error)
	UpdatePassword(id, currentPassword, newPassword string) error
	ResetPassword(id, newPassword string) error
	AuthenticateUser(username, password string) (models.User, error)
	TouchLastSeen(id string) error
}

// UserService provides business logic for user management.
type UserService struct {
	db *sql.DB
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB) *UserService {
	return &UserService{db: db}
}

const userColumns = "id, username, email, password_hash, about_me, role, last_seen, created_at, updated_at"

func scanUser(row interface{ Scan(...interface{}) error }) (models.User, error) {
	var user models.User
	var lastSeen sql.NullTime
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.AboutMe, &user.Role, &lastSeen, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return models.User{}, err
	}
	if lastSeen.Valid {
		t := lastSeen.Time
		user.LastSeen = &t
	}
	return user, nil
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(id string) (models.User, error) {
	row := s.db.QueryRow("SELECT "+userColumns+" FROM users WHERE id = ?", id)
	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, fmt.Errorf("user %s: %w", id, ErrNotFound)
		}
		return models.User{}, err
	}
	return user, nil
}

// GetUserByUsername retrieves a single user by their username.
func (s *UserService) GetUserByUsername(username string) (models.User, error) {
	row := s.db.QueryRow("SELECT "+userColumns+" FROM users WHERE username = ?", username)
	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, fmt.Errorf("user %q: %w", username, ErrNotFound)
		}
		return models.User{}, err
	}
	return user, nil
}

// GetUserByEmail retrieves a single user by their email.
func (s *UserService) GetUserByEmail(email string) (models.User, error) {
	row := s.db.QueryRow("SELECT "+userColumns+" FROM users WHERE email = ?", email)
	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, fmt.Errorf("email %q: %w", email, ErrNotFound)
		}
		return models.User{}, err
	}
	return user, nil
}

// ListUsers retrieves every user, ordered by username. Used by the digest
// job; the observed user counts make a full scan acceptable.
func (s *UserService) ListUsers() ([]models.User, error) {
	rows, err := s.db.Query("SELECT " + userColumns + " FROM users ORDER BY username")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// CreateUser creates a new user, hashing their password. Username and email
// uniqueness is pre-checked; the unique constraints backstop races.
func (s *UserService) CreateUser(username, email, password string) (models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return models.User{}, fmt.Errorf("username, email and password are required")
	}

	var exists int
	err := s.db.QueryRow("SELECT COUNT(*) FROM users WHERE username = ? OR email = ?",
		username, email).Scan(&exists)
	if err != nil {
		return models.User{}, err
	}
	if exists > 0 {
		return models.User{}, fmt.Errorf("username or email: %w", ErrDuplicate)
	}

	now := time.Now().UTC()
	user := models.User{
		ID:        uuid.New().String(),
		Username:  username,
		Email:     email,
		Role:      models.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := user.SetPassword(password); err != nil {
		return models.User{}, err
	}

	stmt, err := s.db.Prepare("INSERT INTO users(id, username, email, password_hash, role, created_at, updated_at) VALUES(?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return models.User{}, err
	}
	defer stmt.Close()

	_, err = stmt.Exec(user.ID, user.Username, user.Email, user.PasswordHash, user.Role, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, fmt.Errorf("username or email: %w", ErrDuplicate)
		}
		return models.User{}, err
	}

	// Return user without password hash
	user.PasswordHash = ""
	return user, nil
}

// UpdateProfile updates a user's username and about-me text.
func (s *UserService) UpdateProfile(id, username, aboutMe string) (models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return models.User{}, fmt.Errorf("username is required")
	}

	var exists int
	err := s.db.QueryRow("SELECT COUNT(*) FROM users WHERE username = ? AND id != ?",
		username, id).Scan(&exists)
	if err != nil {
		return models.User{}, err
	}
	if exists > 0 {
		return models.User{}, fmt.Errorf("username: %w", ErrDuplicate)
	}

	_, err = s.db.Exec("UPDATE users SET username = ?, about_me = ?, updated_at = ? WHERE id = ?",
		username, aboutMe, time.Now().UTC(), id)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, fmt.Errorf("username: %w", ErrDuplicate)
		}
		return models.User{}, err
	}
	return s.GetUserByID(id)
}

// UpdatePassword verifies the current password, then hashes and sets a new
// password for a user.
func (s *UserService) UpdatePassword(id, currentPassword, newPassword string) error {
	user, err := s.GetUserByID(id)
	if err != nil {
		return fmt.Errorf("could not find user to update password")
	}

	if !user.CheckPassword(currentPassword) {
		return fmt.Errorf("current password is incorrect")
	}

	return s.ResetPassword(id, newPassword)
}

// ResetPassword sets a new password without checking the old one. Callers
// gate this behind a verified reset token.
func (s *UserService) ResetPassword(id, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("password is required")
	}
	var user models.User
	if err := user.SetPassword(newPassword); err != nil {
		return err
	}
	_, err := s.db.Exec("UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?",
		user.PasswordHash, time.Now().UTC(), id)
	return err
}

// AuthenticateUser verifies a user's credentials. Unknown user and wrong
// password produce the same error; callers distinguish them in logs only.
func (s *UserService) AuthenticateUser(username, password string) (models.User, error) {
	user, err := s.GetUserByUsername(username)
	if err != nil {
		return models.User{}, fmt.Errorf("authentication failed: user not found")
	}

	if !user.CheckPassword(password) {
		return models.User{}, fmt.Errorf("authentication failed: invalid password")
	}

	// Don't send the password hash to the client
	user.PasswordHash = ""
	return user, nil
}

// TouchLastSeen refreshes the user's last-seen timestamp.
func (s *UserService) TouchLastSeen(id string) error {
	_, err := s.db.Exec("UPDATE users SET last_seen = ? WHERE id = ?", time.Now().UTC(), id)
	return err
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
