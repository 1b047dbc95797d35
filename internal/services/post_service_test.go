package services

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paalso/microblog-go/internal/models"
)

func TestCreatePost(t *testing.T) {
	db := newTestDB(t)
	users := NewUserService(db)
	posts := NewPostService(db)

	john := mustCreateUser(t, users, "john")

	post, err := posts.CreatePost(john.ID, "hello world")
	require.NoError(t, err)
	assert.Equal(t, "hello world", post.Body)
	assert.Equal(t, john.ID, post.UserID)
	assert.Equal(t, "john", post.Username)
	assert.NotEmpty(t, post.ID)

	_, err = posts.CreatePost(john.ID, "   ")
	assert.Error(t, err)

	_, err = posts.CreatePost(john.ID, strings.Repeat("x", models.MaxPostBody+1))
	assert.Error(t, err)
}

func TestFeedOrdering(t *testing.T) {
	db := newTestDB(t)
	users := NewUserService(db)
	follows := NewFollowService(db)
	posts := NewPostService(db)

	john := mustCreateUser(t, users, "john")
	susan := mustCreateUser(t, users, "susan")
	mary := mustCreateUser(t, users, "mary")
	david := mustCreateUser(t, users, "david")

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	postJohn := insertPost(t, db, john.ID, "post from john", base.Add(1*time.Minute))
	postSusan := insertPost(t, db, susan.ID, "post from susan", base.Add(2*time.Minute))
	insertPost(t, db, mary.ID, "post from mary", base.Add(3*time.Minute))
	postDavid := insertPost(t, db, david.ID, "post from david", base.Add(4*time.Minute))

	// john follows susan and david, susan follows mary, mary follows david
	require.NoError(t, follows.Follow(john.ID, susan.ID))
	require.NoError(t, follows.Follow(john.ID, david.ID))
	require.NoError(t, follows.Follow(susan.ID, mary.ID))
	require.NoError(t, follows.Follow(mary.ID, david.ID))

	feed, err := posts.Feed(john.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, feed.Items, 3)
	assert.Equal(t, postDavid.ID, feed.Items[0].ID)
	assert.Equal(t, postSusan.ID, feed.Items[1].ID)
	assert.Equal(t, postJohn.ID, feed.Items[2].ID)
	assert.False(t, feed.HasNext)
	assert.False(t, feed.HasPrev)
}

func TestFeedWithoutFollowing(t *testing.T) {
	db := newTestDB(t)
	users := NewUserService(db)
	posts := NewPostService(db)

	john := mustCreateUser(t, users, "john")
	susan := mustCreateUser(t, users, "susan")

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	own := insertPost(t, db, john.ID, "my own post", base)
	insertPost(t, db, susan.ID, "someone else's post", base.Add(time.Minute))

	// A user who follows no one still sees their own posts, and only those.
	feed, err := posts.Feed(john.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, feed.Items, 1)
	assert.Equal(t, own.ID, feed.Items[0].ID)
}

func TestFeedPagination(t *testing.T) {
	db := newTestDB(t)
	users := NewUserService(db)
	posts := NewPostService(db)

	john := mustCreateUser(t, users, "john")

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		insertPost(t, db, john.ID, "post", base.Add(time.Duration(i)*time.Minute))
	}

	page1, err := posts.Feed(john.ID, 1, 2)
	require.NoError(t, err)
	assert.Len(t, page1.Items, 2)
	assert.True(t, page1.HasNext)
	assert.False(t, page1.HasPrev)

	page3, err := posts.Feed(john.ID, 3, 2)
	require.NoError(t, err)
	assert.Len(t, page3.Items, 1)
	assert.False(t, page3.HasNext)
	assert.True(t, page3.HasPrev)

	// Pages walk strictly backwards in time.
	all := append(append([]models.Post{}, page1.Items...), page3.Items...)
	for i := 1; i < len(all); i++ {
		assert.True(t, !all[i].CreatedAt.After(all[i-1].CreatedAt))
	}
}

func TestExplore(t *testing.T) {
	db := newTestDB(t)
	users := NewUserService(db)
	posts := NewPostService(db)

	john := mustCreateUser(t, users, "john")
	susan := mustCreateUser(t, users, "susan")

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	insertPost(t, db, john.ID, "first", base)
	latest := insertPost(t, db, susan.ID, "second", base.Add(time.Minute))

	// Explore shows everyone's posts regardless of the social graph.
	page, err := posts.Explore(1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, latest.ID, page.Items[0].ID)
}

func TestPostsByUser(t *testing.T) {
	db := newTestDB(t)
	users := NewUserService(db)
	posts := NewPostService(db)

	john := mustCreateUser(t, users, "john")
	susan := mustCreateUser(t, users, "susan")

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	insertPost(t, db, john.ID, "john 1", base)
	insertPost(t, db, john.ID, "john 2", base.Add(time.Minute))
	insertPost(t, db, susan.ID, "susan 1", base.Add(2*time.Minute))

	page, err := posts.PostsByUser(john.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "john 2", page.Items[0].Body)
	assert.Equal(t, "john 1", page.Items[1].Body)
}

func TestFeedSince(t *testing.T) {
	db := newTestDB(t)
	users := NewUserService(db)
	follows := NewFollowService(db)
	posts := NewPostService(db)

	john := mustCreateUser(t, users, "john")
	susan := mustCreateUser(t, users, "susan")
	require.NoError(t, follows.Follow(john.ID, susan.ID))

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	insertPost(t, db, susan.ID, "old post", base)
	fresh := insertPost(t, db, susan.ID, "fresh post", base.Add(2*time.Hour))

	recent, err := posts.FeedSince(john.ID, base.Add(time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, fresh.ID, recent[0].ID)
}
