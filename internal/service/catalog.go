package service

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
)

type (
	TagInput struct {
		Name  string `json:"name" validate:"required,max=20"`
		Color string `json:"color" validate:"required,len=7,hexcolor"`
		Slug  string `json:"slug" validate:"required,max=50,slug"`
	}

	IngredientInput struct {
		Name            string `json:"name" validate:"required,max=50"`
		MeasurementUnit string `json:"measurement_unit" validate:"required,max=16"`
	}

	// Catalog serves the reference data: tags and ingredients.
	Catalog struct {
		db     *gorm.DB
		logger *zap.SugaredLogger
	}
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func NewCatalog(db *gorm.DB, l *zap.SugaredLogger) *Catalog {
	return &Catalog{
		db:     db,
		logger: l,
	}
}

func (s *Catalog) TagList(ctx context.Context) ([]db.Tag, error) {
	tags := make([]db.Tag, 0)
	res := s.db.WithContext(ctx).Order("id").Find(&tags)
	if res.Error != nil {
		return nil, res.Error
	}
	return tags, nil
}

func (s *Catalog) TagGet(ctx context.Context, id uint64) (*db.Tag, error) {
	tag := db.Tag{}
	res := s.db.WithContext(ctx).First(&tag, id)
	if res.Error != nil {
		return nil, storeErr(res.Error, "tag")
	}
	return &tag, nil
}

func (s *Catalog) TagCreate(ctx context.Context, in TagInput) (*db.Tag, error) {
	if err := checkInput(&in); err != nil {
		return nil, err
	}

	model := db.Tag{
		Name:  in.Name,
		Color: in.Color,
		Slug:  in.Slug,
	}
	res := s.db.WithContext(ctx).Create(&model)
	if res.Error != nil {
		return nil, storeErr(res.Error, "tag with this name, color or slug")
	}
	return &model, nil
}

// IngredientList returns ingredients whose name starts with prefix,
// ignoring case. An empty prefix lists everything.
func (s *Catalog) IngredientList(ctx context.Context, prefix string) ([]db.Ingredient, error) {
	q := s.db.WithContext(ctx).Order("name").Order("id")
	if prefix = strings.TrimSpace(prefix); prefix != "" {
		q = q.Where(`LOWER(name) LIKE ? ESCAPE '\'`, likeEscaper.Replace(strings.ToLower(prefix))+"%")
	}

	ingredients := make([]db.Ingredient, 0)
	if res := q.Find(&ingredients); res.Error != nil {
		return nil, errors.Wrap(res.Error, "search ingredients")
	}
	return ingredients, nil
}

func (s *Catalog) IngredientGet(ctx context.Context, id uint64) (*db.Ingredient, error) {
	ingredient := db.Ingredient{}
	res := s.db.WithContext(ctx).First(&ingredient, id)
	if res.Error != nil {
		return nil, storeErr(res.Error, "ingredient")
	}
	return &ingredient, nil
}

func (s *Catalog) IngredientCreate(ctx context.Context, in IngredientInput) (*db.Ingredient, error) {
	if err := checkInput(&in); err != nil {
		return nil, err
	}

	model := db.Ingredient{
		Name:            in.Name,
		MeasurementUnit: in.MeasurementUnit,
	}
	res := s.db.WithContext(ctx).Create(&model)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "create ingredient")
	}
	return &model, nil
}
