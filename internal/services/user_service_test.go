package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	_, err := svc.CreateUser("susan", "susan@example.com", "cat")
	require.NoError(t, err)

	_, err = svc.AuthenticateUser("susan", "dog")
	assert.Error(t, err)

	user, err := svc.AuthenticateUser("susan", "cat")
	assert.NoError(t, err)
	assert.Equal(t, "susan", user.Username)
	assert.Empty(t, user.PasswordHash)

	// The stored value is a hash, never the plaintext.
	stored, err := svc.GetUserByUsername("susan")
	require.NoError(t, err)
	assert.NotEqual(t, "cat", stored.PasswordHash)
	assert.NotEmpty(t, stored.PasswordHash)
}

func TestAuthenticateUnknownUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	_, err := svc.AuthenticateUser("nobody", "cat")
	assert.Error(t, err)
}

func TestCreateUserDuplicate(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	mustCreateUser(t, svc, "john")

	_, err := svc.CreateUser("john", "other@example.com", "cat")
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = svc.CreateUser("johnny", "john@example.com", "cat")
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUpdateProfile(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	john := mustCreateUser(t, svc, "john")
	mustCreateUser(t, svc, "susan")

	updated, err := svc.UpdateProfile(john.ID, "johnny", "hello there")
	require.NoError(t, err)
	assert.Equal(t, "johnny", updated.Username)
	assert.Equal(t, "hello there", updated.AboutMe)

	// Taking another user's name is rejected.
	_, err = svc.UpdateProfile(john.ID, "susan", "")
	assert.ErrorIs(t, err, ErrDuplicate)

	// Keeping your own name is fine.
	_, err = svc.UpdateProfile(john.ID, "johnny", "still here")
	assert.NoError(t, err)
}

func TestUpdatePassword(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	john := mustCreateUser(t, svc, "john")

	err := svc.UpdatePassword(john.ID, "wrong", "newpass")
	assert.Error(t, err)

	err = svc.UpdatePassword(john.ID, "cat", "newpass")
	require.NoError(t, err)

	_, err = svc.AuthenticateUser("john", "cat")
	assert.Error(t, err)
	_, err = svc.AuthenticateUser("john", "newpass")
	assert.NoError(t, err)
}

func TestResetPassword(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	john := mustCreateUser(t, svc, "john")

	require.NoError(t, svc.ResetPassword(john.ID, "rebooted"))

	_, err := svc.AuthenticateUser("john", "rebooted")
	assert.NoError(t, err)
}

func TestTouchLastSeen(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	john := mustCreateUser(t, svc, "john")
	fetched, err := svc.GetUserByID(john.ID)
	require.NoError(t, err)
	assert.Nil(t, fetched.LastSeen)

	require.NoError(t, svc.TouchLastSeen(john.ID))

	fetched, err = svc.GetUserByID(john.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched.LastSeen)
}

func TestGetUserNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	_, err := svc.GetUserByID("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.GetUserByUsername("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.GetUserByEmail("missing@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}
