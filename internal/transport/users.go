package transport

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/models"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/service"
)

func (s *HTTPServer) Login(c *fiber.Ctx) error {
	req := models.TokenReq{}
	if err := s.BindAndValidate(c, &req); err != nil {
		return err
	}

	token, err := s.users.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(models.TokenResp{AuthToken: token})
}

func (s *HTTPServer) Logout(c *fiber.Ctx) error {
	if err := s.users.Logout(c.UserContext(), GetUserFromContext(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *HTTPServer) UserCreate(c *fiber.Ctx) error {
	req := models.UserReq{}
	if err := s.BindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := s.users.Register(c.UserContext(), service.UserInput{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(models.UserCreatedResp{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	})
}

func (s *HTTPServer) UserList(c *fiber.Ctx) error {
	p, err := s.page(c)
	if err != nil {
		return err
	}

	users, total, err := s.users.List(c.UserContext(), p)
	if err != nil {
		return err
	}
	resp, err := s.userResponses(c.UserContext(), GetUserFromContext(c), users)
	if err != nil {
		return err
	}
	return c.JSON(paginated(c, p, total, resp))
}

func (s *HTTPServer) UserGet(c *fiber.Ctx) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}

	user, err := s.users.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	resp, err := s.userResponses(c.UserContext(), GetUserFromContext(c), []db.User{*user})
	if err != nil {
		return err
	}
	return c.JSON(resp[0])
}

func (s *HTTPServer) UserMe(c *fiber.Ctx) error {
	user := GetUserFromContext(c)
	return c.JSON(toUserResp(user, false))
}

func (s *HTTPServer) SetPassword(c *fiber.Ctx) error {
	req := models.SetPasswordReq{}
	if err := s.BindAndValidate(c, &req); err != nil {
		return err
	}

	err := s.users.SetPassword(c.UserContext(), GetUserFromContext(c), req.CurrentPassword, req.NewPassword)
	if err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *HTTPServer) Subscribe(c *fiber.Ctx) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	limit, err := recipesLimit(c)
	if err != nil {
		return err
	}

	profile, err := s.subscriptions.Subscribe(c.UserContext(), GetUserFromContext(c), id, limit)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(s.authorResp(profile, true))
}

func (s *HTTPServer) Unsubscribe(c *fiber.Ctx) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}

	if err := s.subscriptions.Unsubscribe(c.UserContext(), GetUserFromContext(c), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *HTTPServer) SubscriptionList(c *fiber.Ctx) error {
	p, err := s.page(c)
	if err != nil {
		return err
	}
	limit, err := recipesLimit(c)
	if err != nil {
		return err
	}

	profiles, total, err := s.subscriptions.List(c.UserContext(), GetUserFromContext(c), p, limit)
	if err != nil {
		return err
	}

	resp := make([]models.UserWithRecipesResp, len(profiles))
	for i := range profiles {
		resp[i] = s.authorResp(&profiles[i], true)
	}
	return c.JSON(paginated(c, p, total, resp))
}

func (s *HTTPServer) userResponses(ctx context.Context, viewer *db.User, users []db.User) ([]models.UserResp, error) {
	ids := make([]uint64, len(users))
	for i := range users {
		ids[i] = users[i].ID
	}
	subscribed, err := s.users.SubscribedTo(ctx, viewer, ids)
	if err != nil {
		return nil, err
	}

	resp := make([]models.UserResp, len(users))
	for i := range users {
		resp[i] = toUserResp(&users[i], subscribed[users[i].ID])
	}
	return resp, nil
}

func (s *HTTPServer) authorResp(p *service.AuthorProfile, subscribed bool) models.UserWithRecipesResp {
	recipes := make([]models.RecipeMinifiedResp, len(p.Recipes))
	for i := range p.Recipes {
		recipes[i] = s.toRecipeMinifiedResp(&p.Recipes[i])
	}
	return models.UserWithRecipesResp{
		UserResp:     toUserResp(&p.Author, subscribed),
		Recipes:      recipes,
		RecipesCount: p.RecipesCount,
	}
}

func toUserResp(u *db.User, subscribed bool) models.UserResp {
	return models.UserResp{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
	}
}
