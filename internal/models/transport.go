package models

type TokenReq struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type TokenResp struct {
	AuthToken string `json:"auth_token"`
}

type UserReq struct {
	Email     string `json:"email" validate:"required"`
	Username  string `json:"username" validate:"required"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Password  string `json:"password" validate:"required"`
}

type SetPasswordReq struct {
	NewPassword     string `json:"new_password" validate:"required"`
	CurrentPassword string `json:"current_password" validate:"required"`
}

// UserCreatedResp is returned on sign-up and has no subscription flag.
type UserCreatedResp struct {
	ID        uint64 `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type UserResp struct {
	ID           uint64 `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
}

type UserWithRecipesResp struct {
	UserResp
	Recipes      []RecipeMinifiedResp `json:"recipes"`
	RecipesCount int64                `json:"recipes_count"`
}

type TagReq struct {
	Name  string `json:"name" validate:"required"`
	Color string `json:"color" validate:"required"`
	Slug  string `json:"slug" validate:"required"`
}

type TagResp struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Slug  string `json:"slug"`
}

type IngredientReq struct {
	Name            string `json:"name" validate:"required"`
	MeasurementUnit string `json:"measurement_unit" validate:"required"`
}

type IngredientResp struct {
	ID              uint64 `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

type IngredientAmountReq struct {
	ID     uint64 `json:"id" validate:"required"`
	Amount int    `json:"amount"`
}

// IngredientAmountResp is one ingredient line; ID is the ingredient id.
type IngredientAmountResp struct {
	ID              uint64 `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

type RecipeReq struct {
	Ingredients []IngredientAmountReq `json:"ingredients" validate:"required,dive"`
	Tags        []uint64              `json:"tags" validate:"required"`
	Image       string                `json:"image"`
	Name        string                `json:"name" validate:"required"`
	Text        string                `json:"text" validate:"required"`
	CookingTime int                   `json:"cooking_time"`
}

type RecipeResp struct {
	ID               uint64                 `json:"id"`
	Tags             []TagResp              `json:"tags"`
	Author           *UserResp              `json:"author"`
	Ingredients      []IngredientAmountResp `json:"ingredients"`
	IsFavorited      bool                   `json:"is_favorited"`
	IsInShoppingCart bool                   `json:"is_in_shopping_cart"`
	Name             string                 `json:"name"`
	Image            string                 `json:"image"`
	Text             string                 `json:"text"`
	CookingTime      int                    `json:"cooking_time"`
}

type RecipeMinifiedResp struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

type PageResp struct {
	Count    int64       `json:"count"`
	Next     *string     `json:"next"`
	Previous *string     `json:"previous"`
	Results  interface{} `json:"results"`
}

type ErrorResp struct {
	Detail string `json:"detail"`
}
