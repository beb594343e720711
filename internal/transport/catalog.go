package transport

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/models"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/service"
)

func (s *HTTPServer) TagList(c *fiber.Ctx) error {
	tags, err := s.catalog.TagList(c.UserContext())
	if err != nil {
		return err
	}

	resp := make([]models.TagResp, len(tags))
	for i := range tags {
		resp[i] = toTagResp(&tags[i])
	}
	return c.JSON(resp)
}

func (s *HTTPServer) TagGet(c *fiber.Ctx) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}

	tag, err := s.catalog.TagGet(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(toTagResp(tag))
}

func (s *HTTPServer) TagCreate(c *fiber.Ctx) error {
	req := models.TagReq{}
	if err := s.BindAndValidate(c, &req); err != nil {
		return err
	}

	tag, err := s.catalog.TagCreate(c.UserContext(), service.TagInput{
		Name:  req.Name,
		Color: req.Color,
		Slug:  req.Slug,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(toTagResp(tag))
}

func (s *HTTPServer) IngredientList(c *fiber.Ctx) error {
	ingredients, err := s.catalog.IngredientList(c.UserContext(), c.Query("name"))
	if err != nil {
		return err
	}

	resp := make([]models.IngredientResp, len(ingredients))
	for i := range ingredients {
		resp[i] = toIngredientResp(&ingredients[i])
	}
	return c.JSON(resp)
}

func (s *HTTPServer) IngredientGet(c *fiber.Ctx) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}

	ingredient, err := s.catalog.IngredientGet(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(toIngredientResp(ingredient))
}

func (s *HTTPServer) IngredientCreate(c *fiber.Ctx) error {
	req := models.IngredientReq{}
	if err := s.BindAndValidate(c, &req); err != nil {
		return err
	}

	ingredient, err := s.catalog.IngredientCreate(c.UserContext(), service.IngredientInput{
		Name:            req.Name,
		MeasurementUnit: req.MeasurementUnit,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(toIngredientResp(ingredient))
}

func toTagResp(t *db.Tag) models.TagResp {
	return models.TagResp{
		ID:    t.ID,
		Name:  t.Name,
		Color: t.Color,
		Slug:  t.Slug,
	}
}

func toIngredientResp(i *db.Ingredient) models.IngredientResp {
	return models.IngredientResp{
		ID:              i.ID,
		Name:            i.Name,
		MeasurementUnit: i.MeasurementUnit,
	}
}
