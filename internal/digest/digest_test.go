package digest

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paalso/microblog-go/internal/database"
	"github.com/paalso/microblog-go/internal/services"
)

type recordingMailer struct {
	sent []string // recipient addresses
}

func (m *recordingMailer) Send(to, subject, body string) error {
	m.sent = append(m.sent, to)
	return nil
}

func TestSendDigests(t *testing.T) {
	db, err := database.New(":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	defer db.Close()

	users := services.NewUserService(db)
	follows := services.NewFollowService(db)
	posts := services.NewPostService(db)

	john, err := users.CreateUser("john", "john@example.com", "cat")
	require.NoError(t, err)
	susan, err := users.CreateUser("susan", "susan@example.com", "cat")
	require.NoError(t, err)
	require.NoError(t, follows.Follow(john.ID, susan.ID))

	m := &recordingMailer{}
	d := New(users, posts, m, "0 8 * * *")
	d.lastRun = time.Now().UTC().Add(-time.Hour)

	// No new posts yet: nobody gets mail.
	d.sendDigests()
	assert.Empty(t, m.sent)

	// Susan posts; john's feed and susan's own feed both pick it up.
	_, err = db.Exec("INSERT INTO posts(id, body, user_id, created_at, updated_at) VALUES(?, ?, ?, ?, ?)",
		uuid.New().String(), "hello", susan.ID, time.Now().UTC(), time.Now().UTC())
	require.NoError(t, err)

	d.lastRun = time.Now().UTC().Add(-time.Hour)
	d.sendDigests()
	assert.ElementsMatch(t, []string{"john@example.com", "susan@example.com"}, m.sent)
}
