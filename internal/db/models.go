package db

import (
	"time"
)

type (
	GormForkedModel struct {
		ID        uint64 `gorm:"primarykey"`
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	User struct {
		GormForkedModel
		Email     string   `gorm:"unique;not null"`
		Username  string   `gorm:"unique;not null"`
		FirstName string   `gorm:"not null"`
		LastName  string   `gorm:"not null"`
		Password  string   `gorm:"not null"`
		Token     string   `gorm:"index;not null;default:''"`
		IsStaff   bool     `gorm:"not null;default:false"`
		Recipes   []Recipe `gorm:"foreignKey:AuthorID"`
	}

	Ingredient struct {
		GormForkedModel
		Name            string `gorm:"index;not null"`
		MeasurementUnit string `gorm:"not null"`
	}

	Tag struct {
		GormForkedModel
		Name  string `gorm:"unique;not null"`
		Color string `gorm:"unique;not null"`
		Slug  string `gorm:"unique;not null"`
	}

	Recipe struct {
		GormForkedModel
		AuthorID          *uint64 `gorm:"index"`
		Author            *User
		Name              string             `gorm:"not null"`
		Text              string             `gorm:"not null"`
		Image             string             `gorm:"not null"`
		CookingTime       int                `gorm:"not null;check:cooking_time >= 1"`
		PubDate           time.Time          `gorm:"index;not null"`
		Tags              []Tag              `gorm:"many2many:recipe_tags;"`
		IngredientAmounts []IngredientAmount `gorm:"constraint:OnDelete:CASCADE;"`
	}

	// IngredientAmount carries no (recipe, ingredient) uniqueness: repeated
	// lines are stored as-is and summed by the shopping list.
	IngredientAmount struct {
		ID           uint64 `gorm:"primarykey"`
		RecipeID     uint64 `gorm:"index;not null"`
		IngredientID uint64 `gorm:"index;not null"`
		Ingredient   Ingredient
		Amount       int `gorm:"not null;check:amount >= 1"`
	}

	RecipeTag struct {
		RecipeID uint64 `gorm:"primaryKey"`
		TagID    uint64 `gorm:"primaryKey"`
	}

	Favorite struct {
		ID        uint64 `gorm:"primarykey"`
		UserID    uint64 `gorm:"not null;uniqueIndex:uidx_favorite_user_recipe"`
		RecipeID  uint64 `gorm:"not null;uniqueIndex:uidx_favorite_user_recipe"`
		CreatedAt time.Time
	}

	ShoppingCart struct {
		ID        uint64 `gorm:"primarykey"`
		UserID    uint64 `gorm:"not null;uniqueIndex"`
		CreatedAt time.Time
	}

	ShoppingCartRecipe struct {
		ShoppingCartID uint64 `gorm:"primaryKey"`
		RecipeID       uint64 `gorm:"primaryKey"`
		CreatedAt      time.Time
	}

	Subscription struct {
		ID        uint64 `gorm:"primarykey"`
		UserID    uint64 `gorm:"not null;uniqueIndex:uidx_subscription_user_author"`
		AuthorID  uint64 `gorm:"not null;uniqueIndex:uidx_subscription_user_author"`
		CreatedAt time.Time
	}
)
