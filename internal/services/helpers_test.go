package services

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/paalso/microblog-go/internal/database"
	"github.com/paalso/microblog-go/internal/models"
)

// newTestDB opens an isolated in-memory database with the full schema.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New(":memory:")
	require.NoError(t, err)
	// A pooled second connection would see a different in-memory database.
	db.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })
	return db
}

// mustCreateUser registers a user and fails the test on error.
func mustCreateUser(t *testing.T, svc *UserService, username string) models.User {
	t.Helper()
	user, err := svc.CreateUser(username, username+"@example.com", "cat")
	require.NoError(t, err)
	return user
}

// insertPost writes a post row with an explicit creation time so tests can
// control feed ordering.
func insertPost(t *testing.T, db *sql.DB, userID, body string, createdAt time.Time) models.Post {
	t.Helper()
	post := models.Post{
		ID:        uuid.New().String(),
		Body:      body,
		UserID:    userID,
		CreatedAt: createdAt.UTC(),
		UpdatedAt: createdAt.UTC(),
	}
	_, err := db.Exec("INSERT INTO posts(id, body, user_id, created_at, updated_at) VALUES(?, ?, ?, ?, ?)",
		post.ID, post.Body, post.UserID, post.CreatedAt, post.UpdatedAt)
	require.NoError(t, err)
	return post
}
