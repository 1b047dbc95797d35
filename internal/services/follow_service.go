package services

import (
	"database/sql"
	"time"

	"github.com/paalso/microblog-go/internal/models"
)

// FollowServiceProvider defines the interface for follow-graph services.
type FollowServiceProvider interface {
	Follow(followerID, followedID string) error
	Unfollow(followerID, followedID string) error
	IsFollowing(followerID, followedID string) (bool, error)
	FollowingCount(userID string) (int, error)
	FollowersCount(userID string) (int, error)
	FollowingIDs(userID string) ([]string, error)
	FollowerIDs(userID string) ([]string, error)
	Following(userID string) ([]models.User, error)
	Followers(userID string) ([]models.User, error)
}

// FollowService maintains the directed follow edge set between users.
// Edges are unique per (follower, followed) pair; both mutation operations
// are idempotent. Rejecting self-follows is the caller's job.
type FollowService struct {
	db *sql.DB
}

// NewFollowService creates a new FollowService.
func NewFollowService(db *sql.DB) *FollowService {
	return &FollowService{db: db}
}

// Follow adds the edge follower -> followed. Adding an existing edge is a
// no-op.
func (s *FollowService) Follow(followerID, followedID string) error {
	edge := models.Follow{
		FollowerID: followerID,
		FollowedID: followedID,
		CreatedAt:  time.Now().UTC(),
	}
	_, err := s.db.Exec(
		"INSERT OR IGNORE INTO followers (follower_id, followed_id, created_at) VALUES (?, ?, ?)",
		edge.FollowerID, edge.FollowedID, edge.CreatedAt)
	return err
}

// Unfollow removes the edge follower -> followed. Removing an absent edge is
// a no-op.
func (s *FollowService) Unfollow(followerID, followedID string) error {
	_, err := s.db.Exec(
		"DELETE FROM followers WHERE follower_id = ? AND followed_id = ?",
		followerID, followedID)
	return err
}

// IsFollowing reports whether the edge follower -> followed exists.
func (s *FollowService) IsFollowing(followerID, followedID string) (bool, error) {
	var count int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM followers WHERE follower_id = ? AND followed_id = ?",
		followerID, followedID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FollowingCount returns how many users the given user follows.
func (s *FollowService) FollowingCount(userID string) (int, error) {
	var count int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM followers WHERE follower_id = ?", userID).Scan(&count)
	return count, err
}

// FollowersCount returns how many users follow the given user.
func (s *FollowService) FollowersCount(userID string) (int, error) {
	var count int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM followers WHERE followed_id = ?", userID).Scan(&count)
	return count, err
}

// FollowingIDs returns the IDs of the users the given user follows.
func (s *FollowService) FollowingIDs(userID string) ([]string, error) {
	return s.edgeIDs("SELECT followed_id FROM followers WHERE follower_id = ?", userID)
}

// FollowerIDs returns the IDs of the users following the given user.
func (s *FollowService) FollowerIDs(userID string) ([]string, error) {
	return s.edgeIDs("SELECT follower_id FROM followers WHERE followed_id = ?", userID)
}

// Following returns the users the given user follows, ordered by username.
func (s *FollowService) Following(userID string) ([]models.User, error) {
	return s.edgeUsers(`SELECT u.id, u.username, u.email, u.about_me, u.role
		FROM followers f JOIN users u ON u.id = f.followed_id
		WHERE f.follower_id = ? ORDER BY u.username`, userID)
}

// Followers returns the users following the given user, ordered by username.
func (s *FollowService) Followers(userID string) ([]models.User, error) {
	return s.edgeUsers(`SELECT u.id, u.username, u.email, u.about_me, u.role
		FROM followers f JOIN users u ON u.id = f.follower_id
		WHERE f.followed_id = ? ORDER BY u.username`, userID)
}

func (s *FollowService) edgeUsers(query, userID string) ([]models.User, error) {
	rows, err := s.db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.AboutMe, &u.Role); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *FollowService) edgeIDs(query, userID string) ([]string, error) {
	rows, err := s.db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
