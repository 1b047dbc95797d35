package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollow(t *testing.T) {
	db := newTestDB(t)
	users := NewUserService(db)
	follows := NewFollowService(db)

	john := mustCreateUser(t, users, "john")
	susan := mustCreateUser(t, users, "susan")
	tom := mustCreateUser(t, users, "tom")

	// before following
	count, err := follows.FollowingCount(john.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	count, err = follows.FollowersCount(susan.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// follow
	require.NoError(t, follows.Follow(john.ID, susan.ID))
	require.NoError(t, follows.Follow(john.ID, tom.ID))

	following, err := follows.IsFollowing(john.ID, susan.ID)
	require.NoError(t, err)
	assert.True(t, following)
	following, err = follows.IsFollowing(john.ID, tom.ID)
	require.NoError(t, err)
	assert.True(t, following)

	count, err = follows.FollowingCount(john.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	count, err = follows.FollowersCount(susan.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	count, err = follows.FollowersCount(tom.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	johnFollowing, err := follows.Following(john.ID)
	require.NoError(t, err)
	names := []string{}
	for _, u := range johnFollowing {
		names = append(names, u.Username)
	}
	assert.ElementsMatch(t, []string{"susan", "tom"}, names)

	susanFollowers, err := follows.Followers(susan.ID)
	require.NoError(t, err)
	require.Len(t, susanFollowers, 1)
	assert.Equal(t, "john", susanFollowers[0].Username)

	// unfollow
	require.NoError(t, follows.Unfollow(john.ID, susan.ID))

	following, err = follows.IsFollowing(john.ID, susan.ID)
	require.NoError(t, err)
	assert.False(t, following)
	following, err = follows.IsFollowing(john.ID, tom.ID)
	require.NoError(t, err)
	assert.True(t, following)

	count, err = follows.FollowingCount(john.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	count, err = follows.FollowersCount(susan.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestFollowIdempotent(t *testing.T) {
	db := newTestDB(t)
	users := NewUserService(db)
	follows := NewFollowService(db)

	john := mustCreateUser(t, users, "john")
	susan := mustCreateUser(t, users, "susan")

	// Following twice leaves a single edge.
	require.NoError(t, follows.Follow(john.ID, susan.ID))
	require.NoError(t, follows.Follow(john.ID, susan.ID))

	count, err := follows.FollowingCount(john.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Unfollowing an absent edge is not an error.
	require.NoError(t, follows.Unfollow(john.ID, susan.ID))
	require.NoError(t, follows.Unfollow(john.ID, susan.ID))

	count, err = follows.FollowingCount(john.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestFollowUnfollowRoundTrip(t *testing.T) {
	db := newTestDB(t)
	users := NewUserService(db)
	follows := NewFollowService(db)

	john := mustCreateUser(t, users, "john")
	susan := mustCreateUser(t, users, "susan")
	tom := mustCreateUser(t, users, "tom")

	require.NoError(t, follows.Follow(john.ID, tom.ID))
	before, err := follows.FollowingIDs(john.ID)
	require.NoError(t, err)

	require.NoError(t, follows.Follow(john.ID, susan.ID))
	require.NoError(t, follows.Unfollow(john.ID, susan.ID))

	after, err := follows.FollowingIDs(john.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, before, after)
}
