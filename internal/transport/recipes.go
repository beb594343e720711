package transport

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/media"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/models"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/service"
)

const shoppingListFilename = "shopping_list.txt"

func (s *HTTPServer) RecipeList(c *fiber.Ctx) error {
	filter, err := recipeFilter(c)
	if err != nil {
		return err
	}
	p, err := s.page(c)
	if err != nil {
		return err
	}

	viewer := GetUserFromContext(c)
	recipes, total, err := s.recipes.List(c.UserContext(), viewer, filter, p)
	if err != nil {
		return err
	}
	resp, err := s.recipeResponses(c.UserContext(), viewer, recipes)
	if err != nil {
		return err
	}
	return c.JSON(paginated(c, p, total, resp))
}

func (s *HTTPServer) RecipeGet(c *fiber.Ctx) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}

	recipe, err := s.recipes.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return s.sendRecipe(c, fiber.StatusOK, recipe)
}

func (s *HTTPServer) RecipeCreate(c *fiber.Ctx) error {
	in, err := s.recipeInput(c)
	if err != nil {
		return err
	}

	recipe, err := s.recipes.Create(c.UserContext(), GetUserFromContext(c), in)
	if err != nil {
		s.media.Remove(in.Image)
		return err
	}
	return s.sendRecipe(c, fiber.StatusCreated, recipe)
}

func (s *HTTPServer) RecipeUpdate(c *fiber.Ctx) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	current, err := s.recipes.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	in, err := s.recipeInput(c)
	if err != nil {
		return err
	}

	recipe, err := s.recipes.Update(c.UserContext(), GetUserFromContext(c), id, in)
	if err != nil {
		s.media.Remove(in.Image)
		return err
	}
	if in.Image != "" && in.Image != current.Image {
		s.media.Remove(current.Image)
	}
	return s.sendRecipe(c, fiber.StatusOK, recipe)
}

func (s *HTTPServer) RecipeDelete(c *fiber.Ctx) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}

	current, err := s.recipes.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	if err := s.recipes.Delete(c.UserContext(), GetUserFromContext(c), id); err != nil {
		return err
	}
	s.media.Remove(current.Image)
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *HTTPServer) FavoriteAdd(c *fiber.Ctx) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}

	recipe, err := s.toggles.AddFavorite(c.UserContext(), GetUserFromContext(c), id)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(s.toRecipeMinifiedResp(recipe))
}

func (s *HTTPServer) FavoriteRemove(c *fiber.Ctx) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}

	if err := s.toggles.RemoveFavorite(c.UserContext(), GetUserFromContext(c), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *HTTPServer) CartAdd(c *fiber.Ctx) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}

	recipe, err := s.toggles.AddToCart(c.UserContext(), GetUserFromContext(c), id)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(s.toRecipeMinifiedResp(recipe))
}

func (s *HTTPServer) CartRemove(c *fiber.Ctx) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}

	if err := s.toggles.RemoveFromCart(c.UserContext(), GetUserFromContext(c), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *HTTPServer) DownloadShoppingCart(c *fiber.Ctx) error {
	text, err := s.shoppingList.Render(c.UserContext(), GetUserFromContext(c).ID)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+shoppingListFilename+`"`)
	return c.SendString(text)
}

// recipeFilter reads the list filters. Favorite and cart flags are ignored
// for anonymous callers.
func recipeFilter(c *fiber.Ctx) (service.RecipeFilter, error) {
	f := service.RecipeFilter{}

	if v := c.Query("author"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return f, errors.Wrap(service.ErrInvalidInput, "query param author must be a number")
		}
		f.AuthorID = &id
	}

	for _, tag := range c.Context().QueryArgs().PeekMulti("tags") {
		if len(tag) != 0 {
			f.Tags = append(f.Tags, string(tag))
		}
	}

	if GetUserFromContext(c) == nil {
		return f, nil
	}

	favorited, _, err := queryInt(c, "is_favorited")
	if err != nil {
		return f, err
	}
	f.IsFavorited = favorited == 1

	inCart, _, err := queryInt(c, "is_in_shopping_cart")
	if err != nil {
		return f, err
	}
	f.IsInShoppingCart = inCart == 1

	return f, nil
}

// recipeInput reads a recipe from a JSON body (image as a data URI) or from a
// multipart form (image as a file, ingredients as a JSON array). The image
// is stored before the recipe is; callers remove it if the write fails.
func (s *HTTPServer) recipeInput(c *fiber.Ctx) (service.RecipeInput, error) {
	req := models.RecipeReq{}
	var imageName string

	if strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		name, err := s.parseRecipeForm(c, &req)
		if err != nil {
			return service.RecipeInput{}, err
		}
		imageName = name
	} else if err := s.BindAndValidate(c, &req); err != nil {
		return service.RecipeInput{}, err
	}

	if imageName == "" && req.Image != "" {
		name, err := s.media.SaveDataURI(req.Image)
		if err != nil {
			return service.RecipeInput{}, err
		}
		imageName = name
	}

	lines := make([]service.IngredientLine, len(req.Ingredients))
	for i, l := range req.Ingredients {
		lines[i] = service.IngredientLine{IngredientID: l.ID, Amount: l.Amount}
	}
	return service.RecipeInput{
		Name:        req.Name,
		Text:        req.Text,
		Image:       imageName,
		CookingTime: req.CookingTime,
		Ingredients: lines,
		Tags:        req.Tags,
	}, nil
}

func (s *HTTPServer) parseRecipeForm(c *fiber.Ctx, req *models.RecipeReq) (string, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	req.Name = c.FormValue("name")
	req.Text = c.FormValue("text")
	if v := c.FormValue("cooking_time"); v != "" {
		if req.CookingTime, err = strconv.Atoi(v); err != nil {
			return "", errors.Wrap(service.ErrInvalidInput, "cooking_time must be a number")
		}
	}
	for _, v := range form.Value["tags"] {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return "", errors.Wrap(service.ErrInvalidInput, "tags must be numbers")
		}
		req.Tags = append(req.Tags, id)
	}
	if v := c.FormValue("ingredients"); v != "" {
		if err := json.Unmarshal([]byte(v), &req.Ingredients); err != nil {
			return "", errors.Wrap(service.ErrInvalidInput, "ingredients must be a JSON array")
		}
	}
	req.Image = c.FormValue("image")

	files := form.File["image"]
	if len(files) == 0 {
		return "", nil
	}
	fh := files[0]
	ext, err := media.Ext(fh.Header.Get(fiber.HeaderContentType))
	if err != nil {
		return "", err
	}
	f, err := fh.Open()
	if err != nil {
		return "", errors.Wrap(err, "open upload")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return "", errors.Wrap(err, "read upload")
	}
	return s.media.Save(ext, data)
}

func (s *HTTPServer) sendRecipe(c *fiber.Ctx, status int, recipe *db.Recipe) error {
	resp, err := s.recipeResponses(c.UserContext(), GetUserFromContext(c), []db.Recipe{*recipe})
	if err != nil {
		return err
	}
	return c.Status(status).JSON(resp[0])
}

func (s *HTTPServer) recipeResponses(ctx context.Context, viewer *db.User, recipes []db.Recipe) ([]models.RecipeResp, error) {
	ids := make([]uint64, len(recipes))
	authorIDs := make([]uint64, 0, len(recipes))
	for i := range recipes {
		ids[i] = recipes[i].ID
		if recipes[i].AuthorID != nil {
			authorIDs = append(authorIDs, *recipes[i].AuthorID)
		}
	}

	favorited, inCart, err := s.recipes.Flags(ctx, viewer, ids)
	if err != nil {
		return nil, err
	}
	subscribed, err := s.users.SubscribedTo(ctx, viewer, authorIDs)
	if err != nil {
		return nil, err
	}

	resp := make([]models.RecipeResp, len(recipes))
	for i := range recipes {
		r := &recipes[i]

		tags := make([]models.TagResp, len(r.Tags))
		for j := range r.Tags {
			tags[j] = toTagResp(&r.Tags[j])
		}
		ingredients := make([]models.IngredientAmountResp, len(r.IngredientAmounts))
		for j, a := range r.IngredientAmounts {
			ingredients[j] = models.IngredientAmountResp{
				ID:              a.IngredientID,
				Name:            a.Ingredient.Name,
				MeasurementUnit: a.Ingredient.MeasurementUnit,
				Amount:          a.Amount,
			}
		}

		var author *models.UserResp
		if r.Author != nil {
			a := toUserResp(r.Author, subscribed[r.Author.ID])
			author = &a
		}

		resp[i] = models.RecipeResp{
			ID:               r.ID,
			Tags:             tags,
			Author:           author,
			Ingredients:      ingredients,
			IsFavorited:      favorited[r.ID],
			IsInShoppingCart: inCart[r.ID],
			Name:             r.Name,
			Image:            s.media.URL(r.Image),
			Text:             r.Text,
			CookingTime:      r.CookingTime,
		}
	}
	return resp, nil
}

func (s *HTTPServer) toRecipeMinifiedResp(r *db.Recipe) models.RecipeMinifiedResp {
	return models.RecipeMinifiedResp{
		ID:          r.ID,
		Name:        r.Name,
		Image:       s.media.URL(r.Image),
		CookingTime: r.CookingTime,
	}
}
