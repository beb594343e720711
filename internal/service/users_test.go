package service

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsersRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u := f.user(t, "alice")
	assert.NotZero(t, u.ID)
	assert.NotEqual(t, "secret-password", u.Password)

	t.Run("duplicate email", func(t *testing.T) {
		_, err := f.users.Register(ctx, UserInput{
			Email: "alice@example.com", Username: "alice2", FirstName: "A", LastName: "B", Password: "secret-password",
		})
		assert.True(t, errors.Is(err, ErrAlreadyExists), err)
	})

	t.Run("invalid email", func(t *testing.T) {
		_, err := f.users.Register(ctx, UserInput{
			Email: "nope", Username: "bob", FirstName: "B", LastName: "B", Password: "secret-password",
		})
		assert.True(t, errors.Is(err, ErrInvalidInput), err)
		assert.Contains(t, err.Error(), "email")
	})

	t.Run("short password", func(t *testing.T) {
		_, err := f.users.Register(ctx, UserInput{
			Email: "bob@example.com", Username: "bob", FirstName: "B", LastName: "B", Password: "short",
		})
		assert.True(t, errors.Is(err, ErrInvalidInput), err)
	})
}

func TestUsersLoginLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "alice")

	_, err := f.users.Login(ctx, "alice@example.com", "wrong-password")
	assert.Equal(t, ErrBadCredentials, err)

	_, err = f.users.Login(ctx, "nobody@example.com", "secret-password")
	assert.Equal(t, ErrBadCredentials, err)

	token, err := f.users.Login(ctx, "alice@example.com", "secret-password")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	u, err := f.users.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)

	require.NoError(t, f.users.Logout(ctx, u))
	_, err = f.users.Authenticate(ctx, token)
	assert.Equal(t, ErrUnauthorized, err)

	_, err = f.users.Authenticate(ctx, "")
	assert.Equal(t, ErrUnauthorized, err)
}

func TestUsersSetPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "alice")

	err := f.users.SetPassword(ctx, u, "wrong-password", "another-password")
	assert.True(t, errors.Is(err, ErrInvalidInput), err)

	err = f.users.SetPassword(ctx, u, "secret-password", "short")
	assert.True(t, errors.Is(err, ErrInvalidInput), err)

	require.NoError(t, f.users.SetPassword(ctx, u, "secret-password", "another-password"))

	_, err = f.users.Login(ctx, "alice@example.com", "another-password")
	assert.NoError(t, err)
}

func TestUsersListAndGet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "alice")
	b := f.user(t, "bob")
	f.user(t, "carol")

	users, total, err := f.users.List(ctx, NewPage(1, 2, 6))
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, users, 2)
	assert.Equal(t, "carol", users[0].Username)
	assert.Equal(t, "bob", users[1].Username)

	got, err := f.users.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Email, got.Email)

	_, err = f.users.Get(ctx, 999)
	assert.True(t, errors.Is(err, ErrNotFound), err)

	_, err = f.subscriptions.Subscribe(ctx, a, b.ID, 0)
	require.NoError(t, err)
	subscribed, err := f.users.SubscribedTo(ctx, a, []uint64{b.ID, a.ID})
	require.NoError(t, err)
	assert.Equal(t, map[uint64]bool{b.ID: true}, subscribed)

	subscribed, err = f.users.SubscribedTo(ctx, nil, []uint64{b.ID})
	require.NoError(t, err)
	assert.Empty(t, subscribed)
}
