package service

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
)

// Toggles adds and removes recipes to a user's favorites and shopping cart.
// The recipe is looked up first so a missing recipe is always ErrNotFound.
type Toggles struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

func NewToggles(db *gorm.DB, l *zap.SugaredLogger) *Toggles {
	return &Toggles{
		db:     db,
		logger: l,
	}
}

func (s *Toggles) AddFavorite(ctx context.Context, user *db.User, recipeID uint64) (*db.Recipe, error) {
	recipe := db.Recipe{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if res := tx.First(&recipe, recipeID); res.Error != nil {
			return storeErr(res.Error, "recipe")
		}

		var count int64
		res := tx.Model(&db.Favorite{}).
			Where("user_id = ? AND recipe_id = ?", user.ID, recipeID).
			Count(&count)
		if res.Error != nil {
			return errors.Wrap(res.Error, "count favorites")
		}
		if count != 0 {
			return errors.Wrap(ErrAlreadyExists, "recipe is already in favorites")
		}

		res = tx.Create(&db.Favorite{UserID: user.ID, RecipeID: recipeID})
		return storeErr(res.Error, "recipe is already in favorites")
	})
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (s *Toggles) RemoveFavorite(ctx context.Context, user *db.User, recipeID uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if res := tx.Select("id").First(&db.Recipe{}, recipeID); res.Error != nil {
			return storeErr(res.Error, "recipe")
		}

		res := tx.Where("user_id = ? AND recipe_id = ?", user.ID, recipeID).Delete(&db.Favorite{})
		if res.Error != nil {
			return errors.Wrap(res.Error, "delete favorite")
		}
		if res.RowsAffected == 0 {
			return errors.Wrap(ErrNotFound, "recipe is not in favorites")
		}
		return nil
	})
}

func (s *Toggles) AddToCart(ctx context.Context, user *db.User, recipeID uint64) (*db.Recipe, error) {
	recipe := db.Recipe{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if res := tx.First(&recipe, recipeID); res.Error != nil {
			return storeErr(res.Error, "recipe")
		}

		cart, err := cartFor(tx, user.ID)
		if err != nil {
			return err
		}

		var count int64
		res := tx.Model(&db.ShoppingCartRecipe{}).
			Where("shopping_cart_id = ? AND recipe_id = ?", cart.ID, recipeID).
			Count(&count)
		if res.Error != nil {
			return errors.Wrap(res.Error, "count cart recipes")
		}
		if count != 0 {
			return errors.Wrap(ErrAlreadyExists, "recipe is already in the shopping cart")
		}

		res = tx.Create(&db.ShoppingCartRecipe{ShoppingCartID: cart.ID, RecipeID: recipeID})
		return storeErr(res.Error, "recipe is already in the shopping cart")
	})
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (s *Toggles) RemoveFromCart(ctx context.Context, user *db.User, recipeID uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if res := tx.Select("id").First(&db.Recipe{}, recipeID); res.Error != nil {
			return storeErr(res.Error, "recipe")
		}

		cart := db.ShoppingCart{}
		if res := tx.Where("user_id = ?", user.ID).First(&cart); res.Error != nil {
			if errors.Is(res.Error, gorm.ErrRecordNotFound) {
				return errors.Wrap(ErrNotFound, "recipe is not in the shopping cart")
			}
			return errors.Wrap(res.Error, "find shopping cart")
		}

		res := tx.Where("shopping_cart_id = ? AND recipe_id = ?", cart.ID, recipeID).Delete(&db.ShoppingCartRecipe{})
		if res.Error != nil {
			return errors.Wrap(res.Error, "delete cart recipe")
		}
		if res.RowsAffected == 0 {
			return errors.Wrap(ErrNotFound, "recipe is not in the shopping cart")
		}
		return nil
	})
}

// cartFor returns the user's cart, creating it on first use. A concurrent
// creator wins through the unique user_id index and is read back.
func cartFor(tx *gorm.DB, userID uint64) (*db.ShoppingCart, error) {
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&db.ShoppingCart{UserID: userID})
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "create shopping cart")
	}

	cart := db.ShoppingCart{}
	if res := tx.Where("user_id = ?", userID).First(&cart); res.Error != nil {
		return nil, errors.Wrap(res.Error, "find shopping cart")
	}
	return &cart, nil
}
