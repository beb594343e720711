package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/config"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db/dbtest"
)

type fixture struct {
	db            *gorm.DB
	users         *Users
	catalog       *Catalog
	recipes       *Recipes
	toggles       *Toggles
	subscriptions *Subscriptions
	shoppingList  *ShoppingList
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	conn := dbtest.New(t)
	l := zap.NewNop().Sugar()
	cfg := &config.Config{BcryptCost: bcrypt.MinCost}

	return &fixture{
		db:            conn,
		users:         NewUsers(conn, l, cfg),
		catalog:       NewCatalog(conn, l),
		recipes:       NewRecipes(conn, l),
		toggles:       NewToggles(conn, l),
		subscriptions: NewSubscriptions(conn, l),
		shoppingList:  NewShoppingList(conn, l),
	}
}

func (f *fixture) user(t *testing.T, name string) *db.User {
	t.Helper()
	u, err := f.users.Register(context.Background(), UserInput{
		Email:     name + "@example.com",
		Username:  name,
		FirstName: name,
		LastName:  "Test",
		Password:  "secret-password",
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) tag(t *testing.T, slug string) *db.Tag {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&db.Tag{}).Count(&n).Error)
	tag, err := f.catalog.TagCreate(context.Background(), TagInput{
		Name:  slug,
		Color: fmt.Sprintf("#%06x", n+1),
		Slug:  slug,
	})
	require.NoError(t, err)
	return tag
}

func (f *fixture) ingredient(t *testing.T, name, unit string) *db.Ingredient {
	t.Helper()
	ing, err := f.catalog.IngredientCreate(context.Background(), IngredientInput{Name: name, MeasurementUnit: unit})
	require.NoError(t, err)
	return ing
}

func (f *fixture) recipe(t *testing.T, author *db.User, name string, tags []uint64, lines ...IngredientLine) *db.Recipe {
	t.Helper()
	r, err := f.recipes.Create(context.Background(), author, RecipeInput{
		Name:        name,
		Text:        "Mix and cook.",
		Image:       "recipes/images/" + name + ".png",
		CookingTime: 10,
		Ingredients: lines,
		Tags:        tags,
	})
	require.NoError(t, err)
	return r
}
