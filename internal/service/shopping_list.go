package service

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const ShoppingListHeader = "Список покупок:"

type (
	ShoppingListItem struct {
		Name            string
		MeasurementUnit string
		Total           int64
	}

	// ShoppingList compiles the ingredients needed for every recipe in a
	// user's cart. It only reads.
	ShoppingList struct {
		db     *gorm.DB
		logger *zap.SugaredLogger
	}
)

func NewShoppingList(db *gorm.DB, l *zap.SugaredLogger) *ShoppingList {
	return &ShoppingList{
		db:     db,
		logger: l,
	}
}

// Items sums ingredient amounts per (name, unit) across the cart. Repeated
// lines for one ingredient in a recipe are summed too.
func (s *ShoppingList) Items(ctx context.Context, userID uint64) ([]ShoppingListItem, error) {
	sql, args, err := squirrel.
		Select("i.name AS name", "i.measurement_unit AS measurement_unit", "SUM(ia.amount) AS total").
		From("shopping_cart_recipes scr").
		Join("shopping_carts sc ON sc.id = scr.shopping_cart_id").
		Join("ingredient_amounts ia ON ia.recipe_id = scr.recipe_id").
		Join("ingredients i ON i.id = ia.ingredient_id").
		Where(squirrel.Eq{"sc.user_id": userID}).
		GroupBy("i.name", "i.measurement_unit").
		OrderBy("i.name", "i.measurement_unit").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build sql")
	}

	items := make([]ShoppingListItem, 0)
	if res := s.db.WithContext(ctx).Raw(sql, args...).Scan(&items); res.Error != nil {
		return nil, errors.Wrap(res.Error, "scan")
	}

	// collations differ between stores; keep byte order stable
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].MeasurementUnit < items[j].MeasurementUnit
	})
	return items, nil
}

// Render returns the plain-text list. An empty cart yields the header only.
func (s *ShoppingList) Render(ctx context.Context, userID uint64) (string, error) {
	items, err := s.Items(ctx, userID)
	if err != nil {
		return "", err
	}
	return RenderShoppingList(items), nil
}

func RenderShoppingList(items []ShoppingListItem) string {
	b := strings.Builder{}
	b.WriteString(ShoppingListHeader)
	for _, it := range items {
		b.WriteString("\n")
		b.WriteString(it.Name)
		b.WriteString(": ")
		b.WriteString(strconv.FormatInt(it.Total, 10))
		b.WriteString(" ")
		b.WriteString(it.MeasurementUnit)
	}
	return b.String()
}
