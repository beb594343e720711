package service

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
)

type (
	IngredientLine struct {
		IngredientID uint64 `json:"id" validate:"required"`
		Amount       int    `json:"amount" validate:"min=1"`
	}

	// RecipeInput is the full writable state of a recipe. Image holds the
	// stored media name; on update an empty Image keeps the current one.
	RecipeInput struct {
		Name        string           `json:"name" validate:"required,max=200"`
		Text        string           `json:"text" validate:"required,max=512"`
		Image       string           `json:"image"`
		CookingTime int              `json:"cooking_time" validate:"min=1"`
		Ingredients []IngredientLine `json:"ingredients" validate:"required,min=1,dive"`
		Tags        []uint64         `json:"tags" validate:"required,min=1"`
	}

	RecipeFilter struct {
		AuthorID         *uint64
		Tags             []string
		IsFavorited      bool
		IsInShoppingCart bool
	}

	Recipes struct {
		db     *gorm.DB
		logger *zap.SugaredLogger
	}
)

func NewRecipes(db *gorm.DB, l *zap.SugaredLogger) *Recipes {
	return &Recipes{
		db:     db,
		logger: l,
	}
}

// Create stores the recipe, its ingredient lines and tag links in one
// transaction.
func (s *Recipes) Create(ctx context.Context, author *db.User, in RecipeInput) (*db.Recipe, error) {
	if err := checkInput(&in); err != nil {
		return nil, err
	}
	if in.Image == "" {
		return nil, errors.Wrap(ErrInvalidInput, "image is required")
	}

	model := db.Recipe{
		AuthorID:    &author.ID,
		Name:        in.Name,
		Text:        in.Text,
		Image:       in.Image,
		CookingTime: in.CookingTime,
		PubDate:     time.Now().UTC(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tagIDs, err := resolveTags(tx, in.Tags)
		if err != nil {
			return err
		}
		if err := checkIngredients(tx, in.Ingredients); err != nil {
			return err
		}

		if res := tx.Omit(clause.Associations).Create(&model); res.Error != nil {
			return errors.Wrap(res.Error, "create recipe")
		}
		if err := replaceLines(tx, model.ID, in.Ingredients); err != nil {
			return err
		}
		return replaceTags(tx, model.ID, tagIDs)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("recipe created", "recipe_id", model.ID, "author_id", author.ID)
	return s.Get(ctx, model.ID)
}

// Update replaces scalar fields, ingredient lines and tags. Only the author
// may update a recipe.
func (s *Recipes) Update(ctx context.Context, user *db.User, id uint64, in RecipeInput) (*db.Recipe, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model, err := ownedRecipe(tx, user, id)
		if err != nil {
			return err
		}
		if err := checkInput(&in); err != nil {
			return err
		}

		tagIDs, err := resolveTags(tx, in.Tags)
		if err != nil {
			return err
		}
		if err := checkIngredients(tx, in.Ingredients); err != nil {
			return err
		}

		fields := map[string]interface{}{
			"name":         in.Name,
			"text":         in.Text,
			"cooking_time": in.CookingTime,
		}
		if in.Image != "" {
			fields["image"] = in.Image
		}
		if res := tx.Model(model).Omit(clause.Associations).Updates(fields); res.Error != nil {
			return errors.Wrap(res.Error, "update recipe")
		}
		if err := replaceLines(tx, model.ID, in.Ingredients); err != nil {
			return err
		}
		return replaceTags(tx, model.ID, tagIDs)
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, id)
}

// Delete removes the recipe together with every row that references it.
func (s *Recipes) Delete(ctx context.Context, user *db.User, id uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model, err := ownedRecipe(tx, user, id)
		if err != nil {
			return err
		}

		dependants := []interface{}{
			&db.IngredientAmount{},
			&db.RecipeTag{},
			&db.Favorite{},
			&db.ShoppingCartRecipe{},
		}
		for _, d := range dependants {
			if res := tx.Where("recipe_id = ?", model.ID).Delete(d); res.Error != nil {
				return errors.Wrap(res.Error, "delete recipe references")
			}
		}
		if res := tx.Delete(model); res.Error != nil {
			return errors.Wrap(res.Error, "delete recipe")
		}
		return nil
	})
}

func (s *Recipes) Get(ctx context.Context, id uint64) (*db.Recipe, error) {
	model := db.Recipe{}
	res := preloadRecipe(s.db.WithContext(ctx)).First(&model, id)
	if res.Error != nil {
		return nil, storeErr(res.Error, "recipe")
	}
	return &model, nil
}

// List returns one page of recipes, newest first. Favorite and cart filters
// only apply to an authenticated viewer.
func (s *Recipes) List(ctx context.Context, viewer *db.User, f RecipeFilter, page Page) ([]db.Recipe, int64, error) {
	w, err := recipeConditions(viewer, f)
	if err != nil {
		return nil, 0, err
	}

	countSQL, countArgs, err := squirrel.Select("COUNT(*)").From("recipes r").Where(w).ToSql()
	if err != nil {
		return nil, 0, errors.Wrap(err, "build sql")
	}
	var total int64
	if res := s.db.WithContext(ctx).Raw(countSQL, countArgs...).Scan(&total); res.Error != nil {
		return nil, 0, errors.Wrap(res.Error, "count recipes")
	}

	idsSQL, idsArgs, err := squirrel.
		Select("r.id").From("recipes r").
		Where(w).
		OrderBy("r.pub_date DESC", "r.id DESC").
		Limit(uint64(page.Limit)).
		Offset(uint64(page.Offset())).
		ToSql()
	if err != nil {
		return nil, 0, errors.Wrap(err, "build sql")
	}
	ids := make([]uint64, 0)
	if res := s.db.WithContext(ctx).Raw(idsSQL, idsArgs...).Scan(&ids); res.Error != nil {
		return nil, 0, errors.Wrap(res.Error, "scan")
	}

	recipes, err := loadRecipes(s.db.WithContext(ctx), ids)
	if err != nil {
		return nil, 0, err
	}
	return recipes, total, nil
}

// Flags reports which of recipeIDs the viewer has favorited or put in the
// shopping cart. Anonymous viewers get empty sets.
func (s *Recipes) Flags(ctx context.Context, viewer *db.User, recipeIDs []uint64) (favorited, inCart map[uint64]bool, err error) {
	favorited = make(map[uint64]bool)
	inCart = make(map[uint64]bool)
	if viewer == nil || len(recipeIDs) == 0 {
		return favorited, inCart, nil
	}

	ids := make([]uint64, 0)
	res := s.db.WithContext(ctx).
		Model(&db.Favorite{}).
		Where("user_id = ? AND recipe_id IN ?", viewer.ID, recipeIDs).
		Pluck("recipe_id", &ids)
	if res.Error != nil {
		return nil, nil, errors.Wrap(res.Error, "find favorites")
	}
	for _, id := range ids {
		favorited[id] = true
	}

	cartIDs := make([]uint64, 0)
	res = s.db.WithContext(ctx).
		Table("shopping_cart_recipes scr").
		Joins("JOIN shopping_carts sc ON sc.id = scr.shopping_cart_id").
		Where("sc.user_id = ? AND scr.recipe_id IN ?", viewer.ID, recipeIDs).
		Pluck("scr.recipe_id", &cartIDs)
	if res.Error != nil {
		return nil, nil, errors.Wrap(res.Error, "find cart recipes")
	}
	for _, id := range cartIDs {
		inCart[id] = true
	}

	return favorited, inCart, nil
}

func recipeConditions(viewer *db.User, f RecipeFilter) (squirrel.And, error) {
	w := squirrel.And{}
	if f.AuthorID != nil {
		w = append(w, squirrel.Eq{"r.author_id": *f.AuthorID})
	}
	if len(f.Tags) != 0 {
		sub := squirrel.Select("rt.recipe_id").From("recipe_tags rt").
			Join("tags t ON t.id = rt.tag_id").
			Where(squirrel.Eq{"t.slug": f.Tags})
		expr, err := inSubquery("r.id", sub)
		if err != nil {
			return nil, err
		}
		w = append(w, expr)
	}
	if viewer == nil {
		return w, nil
	}
	if f.IsFavorited {
		sub := squirrel.Select("f.recipe_id").From("favorites f").
			Where(squirrel.Eq{"f.user_id": viewer.ID})
		expr, err := inSubquery("r.id", sub)
		if err != nil {
			return nil, err
		}
		w = append(w, expr)
	}
	if f.IsInShoppingCart {
		sub := squirrel.Select("scr.recipe_id").From("shopping_cart_recipes scr").
			Join("shopping_carts sc ON sc.id = scr.shopping_cart_id").
			Where(squirrel.Eq{"sc.user_id": viewer.ID})
		expr, err := inSubquery("r.id", sub)
		if err != nil {
			return nil, err
		}
		w = append(w, expr)
	}
	return w, nil
}

func inSubquery(column string, sub squirrel.SelectBuilder) (squirrel.Sqlizer, error) {
	sql, args, err := sub.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build sql")
	}
	return squirrel.Expr(column+" IN ("+sql+")", args...), nil
}

func preloadRecipe(tx *gorm.DB) *gorm.DB {
	return tx.
		Preload("Author").
		Preload("Tags", func(tx *gorm.DB) *gorm.DB { return tx.Order("tags.id") }).
		Preload("IngredientAmounts", func(tx *gorm.DB) *gorm.DB { return tx.Order("ingredient_amounts.id") }).
		Preload("IngredientAmounts.Ingredient")
}

// loadRecipes fetches recipes with their relations, keeping the order of ids.
func loadRecipes(tx *gorm.DB, ids []uint64) ([]db.Recipe, error) {
	if len(ids) == 0 {
		return []db.Recipe{}, nil
	}

	found := make([]db.Recipe, 0, len(ids))
	if res := preloadRecipe(tx).Where("id IN ?", ids).Find(&found); res.Error != nil {
		return nil, errors.Wrap(res.Error, "load recipes")
	}

	byID := make(map[uint64]db.Recipe, len(found))
	for _, r := range found {
		byID[r.ID] = r
	}
	recipes := make([]db.Recipe, 0, len(found))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			recipes = append(recipes, r)
		}
	}
	return recipes, nil
}

func ownedRecipe(tx *gorm.DB, user *db.User, id uint64) (*db.Recipe, error) {
	model := db.Recipe{}
	if res := tx.First(&model, id); res.Error != nil {
		return nil, storeErr(res.Error, "recipe")
	}
	if model.AuthorID == nil || *model.AuthorID != user.ID {
		return nil, ErrForbidden
	}
	return &model, nil
}

// resolveTags checks that every id names an existing tag and returns the
// distinct ids in submission order.
func resolveTags(tx *gorm.DB, ids []uint64) ([]uint64, error) {
	distinct := make([]uint64, 0, len(ids))
	seen := make(map[uint64]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			distinct = append(distinct, id)
		}
	}

	var count int64
	if res := tx.Model(&db.Tag{}).Where("id IN ?", distinct).Count(&count); res.Error != nil {
		return nil, errors.Wrap(res.Error, "count tags")
	}
	if count != int64(len(distinct)) {
		return nil, errors.Wrap(ErrNotFound, "tag")
	}
	return distinct, nil
}

func checkIngredients(tx *gorm.DB, lines []IngredientLine) error {
	seen := make(map[uint64]bool, len(lines))
	ids := make([]uint64, 0, len(lines))
	for _, l := range lines {
		if !seen[l.IngredientID] {
			seen[l.IngredientID] = true
			ids = append(ids, l.IngredientID)
		}
	}

	var count int64
	if res := tx.Model(&db.Ingredient{}).Where("id IN ?", ids).Count(&count); res.Error != nil {
		return errors.Wrap(res.Error, "count ingredients")
	}
	if count != int64(len(ids)) {
		return errors.Wrap(ErrNotFound, "ingredient")
	}
	return nil
}

func replaceLines(tx *gorm.DB, recipeID uint64, lines []IngredientLine) error {
	if res := tx.Where("recipe_id = ?", recipeID).Delete(&db.IngredientAmount{}); res.Error != nil {
		return errors.Wrap(res.Error, "delete ingredient lines")
	}

	if len(lines) == 0 {
		return nil
	}
	rows := make([]db.IngredientAmount, len(lines))
	for i, l := range lines {
		rows[i] = db.IngredientAmount{
			RecipeID:     recipeID,
			IngredientID: l.IngredientID,
			Amount:       l.Amount,
		}
	}
	if res := tx.Omit(clause.Associations).Create(&rows); res.Error != nil {
		return errors.Wrap(res.Error, "create ingredient lines")
	}
	return nil
}

func replaceTags(tx *gorm.DB, recipeID uint64, tagIDs []uint64) error {
	if res := tx.Where("recipe_id = ?", recipeID).Delete(&db.RecipeTag{}); res.Error != nil {
		return errors.Wrap(res.Error, "delete recipe tags")
	}

	if len(tagIDs) == 0 {
		return nil
	}
	rows := make([]db.RecipeTag, len(tagIDs))
	for i, id := range tagIDs {
		rows[i] = db.RecipeTag{RecipeID: recipeID, TagID: id}
	}
	if res := tx.Create(&rows); res.Error != nil {
		return errors.Wrap(res.Error, "create recipe tags")
	}
	return nil
}
