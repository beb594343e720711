package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeSelf(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")

	_, err := f.subscriptions.Subscribe(ctx, alice, alice.ID, 0)
	assert.Equal(t, ErrSelfSubscription, err)

	bob := f.user(t, "bob")
	_, err = f.subscriptions.Subscribe(ctx, bob, alice.ID, 0)
	require.NoError(t, err)

	_, err = f.subscriptions.Subscribe(ctx, alice, alice.ID, 0)
	assert.Equal(t, ErrSelfSubscription, err)
}

func TestSubscribeProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	tag := f.tag(t, "a")
	flour := f.ingredient(t, "flour", "g")
	for i := 0; i < 7; i++ {
		f.recipe(t, bob, fmt.Sprintf("recipe-%d", i), []uint64{tag.ID}, IngredientLine{IngredientID: flour.ID, Amount: 1})
	}

	profile, err := f.subscriptions.Subscribe(ctx, alice, bob.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, profile.Author.ID)
	assert.EqualValues(t, 7, profile.RecipesCount)
	require.Len(t, profile.Recipes, DefaultRecipesLimit)
	assert.Equal(t, "recipe-6", profile.Recipes[0].Name)

	_, err = f.subscriptions.Subscribe(ctx, alice, bob.ID, 0)
	assert.True(t, errors.Is(err, ErrAlreadyExists), err)

	_, err = f.subscriptions.Subscribe(ctx, alice, 999, 0)
	assert.True(t, errors.Is(err, ErrNotFound), err)

	profiles, total, err := f.subscriptions.List(ctx, alice, NewPage(1, 10, 6), 2)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, profiles, 1)
	assert.Equal(t, "bob", profiles[0].Author.Username)
	assert.Len(t, profiles[0].Recipes, 2)
	assert.EqualValues(t, 7, profiles[0].RecipesCount)
}

func TestUnsubscribe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")

	err := f.subscriptions.Unsubscribe(ctx, alice, bob.ID)
	assert.True(t, errors.Is(err, ErrNotFound), err)

	_, err = f.subscriptions.Subscribe(ctx, alice, bob.ID, 0)
	require.NoError(t, err)
	require.NoError(t, f.subscriptions.Unsubscribe(ctx, alice, bob.ID))

	profiles, total, err := f.subscriptions.List(ctx, alice, NewPage(1, 10, 6), 0)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, profiles)

	err = f.subscriptions.Unsubscribe(ctx, alice, 999)
	assert.True(t, errors.Is(err, ErrNotFound), err)
}
