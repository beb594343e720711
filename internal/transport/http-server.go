package transport

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/config"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/media"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/models"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/service"
)

const userKey = "user"

type (
	Deps struct {
		fx.In

		Config        *config.Config
		Logger        *zap.SugaredLogger
		Users         *service.Users
		Catalog       *service.Catalog
		Recipes       *service.Recipes
		Toggles       *service.Toggles
		Subscriptions *service.Subscriptions
		ShoppingList  *service.ShoppingList
		Media         *media.Storage
		Metrics       *Metrics
	}

	HTTPServer struct {
		app       *fiber.App
		cfg       *config.Config
		logger    *zap.SugaredLogger
		validator *validator.Validate

		users         *service.Users
		catalog       *service.Catalog
		recipes       *service.Recipes
		toggles       *service.Toggles
		subscriptions *service.Subscriptions
		shoppingList  *service.ShoppingList
		media         *media.Storage
		metrics       *Metrics
	}
)

func NewHTTPServer(lc fx.Lifecycle, d Deps) *HTTPServer {
	instance := New(d)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				listen := d.Config.Host + ":" + d.Config.Port
				if err := instance.app.Listen(listen); err != nil {
					d.Logger.Fatalw("shutting down the server", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			d.Logger.Info("Stopping HTTP server.")
			return instance.app.ShutdownWithContext(ctx)
		},
	})

	return instance
}

// New builds the fiber application with every route registered.
func New(d Deps) *HTTPServer {
	instance := &HTTPServer{
		cfg:           d.Config,
		logger:        d.Logger,
		validator:     validator.New(),
		users:         d.Users,
		catalog:       d.Catalog,
		recipes:       d.Recipes,
		toggles:       d.Toggles,
		subscriptions: d.Subscriptions,
		shoppingList:  d.ShoppingList,
		media:         d.Media,
		metrics:       d.Metrics,
	}

	e := fiber.New(fiber.Config{
		AppName:               "foodgram",
		DisableStartupMessage: true,
		BodyLimit:             10 * 1024 * 1024,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		ErrorHandler:          instance.ErrorHandler,
	})
	instance.app = e

	e.Use(instance.ObserveMiddleware)
	e.Use(recover.New())
	e.Use(cors.New())

	e.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })
	e.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Metrics.Registry(), promhttp.HandlerOpts{})))
	e.Static(mediaPrefix(d.Config.MediaURL), d.Media.Root())

	api := e.Group("/api", instance.AuthMiddleware)

	authG := api.Group("/auth/token")
	authG.Post("/login", instance.Login)
	authG.Post("/logout", RequireAuth, instance.Logout)

	userG := api.Group("/users")
	userG.Get("", instance.UserList)
	userG.Post("", instance.UserCreate)
	userG.Get("/me", RequireAuth, instance.UserMe)
	userG.Post("/set_password", RequireAuth, instance.SetPassword)
	userG.Get("/subscriptions", RequireAuth, instance.SubscriptionList)
	userG.Get("/:id<int>", RequireAuth, instance.UserGet)
	userG.Post("/:id<int>/subscribe", RequireAuth, instance.Subscribe)
	userG.Delete("/:id<int>/subscribe", RequireAuth, instance.Unsubscribe)

	tagG := api.Group("/tags")
	tagG.Get("", instance.TagList)
	tagG.Post("", RequireAuth, RequireStaff, instance.TagCreate)
	tagG.Get("/:id<int>", instance.TagGet)

	ingredientG := api.Group("/ingredients")
	ingredientG.Get("", instance.IngredientList)
	ingredientG.Post("", RequireAuth, RequireStaff, instance.IngredientCreate)
	ingredientG.Get("/:id<int>", instance.IngredientGet)

	recipeG := api.Group("/recipes")
	recipeG.Get("", instance.RecipeList)
	recipeG.Post("", RequireAuth, instance.RecipeCreate)
	recipeG.Get("/download_shopping_cart", RequireAuth, instance.DownloadShoppingCart)
	recipeG.Get("/:id<int>", instance.RecipeGet)
	recipeG.Patch("/:id<int>", RequireAuth, instance.RecipeUpdate)
	recipeG.Delete("/:id<int>", RequireAuth, instance.RecipeDelete)
	recipeG.Post("/:id<int>/favorite", RequireAuth, instance.FavoriteAdd)
	recipeG.Delete("/:id<int>/favorite", RequireAuth, instance.FavoriteRemove)
	recipeG.Post("/:id<int>/shopping_cart", RequireAuth, instance.CartAdd)
	recipeG.Delete("/:id<int>/shopping_cart", RequireAuth, instance.CartRemove)

	return instance
}

func mediaPrefix(u string) string {
	if p := strings.TrimSuffix(u, "/"); p != "" {
		return p
	}
	return "/"
}

func (s *HTTPServer) App() *fiber.App {
	return s.app
}

// AuthMiddleware resolves "Authorization: Token <token>" into the current
// user. Requests without the header pass through anonymously.
func (s *HTTPServer) AuthMiddleware(c *fiber.Ctx) error {
	token := tokenFromHeader(c.Get(fiber.HeaderAuthorization))
	if token == "" {
		return c.Next()
	}

	user, err := s.users.Authenticate(c.UserContext(), token)
	if err != nil {
		return err
	}

	c.Locals(userKey, user)
	return c.Next()
}

func RequireAuth(c *fiber.Ctx) error {
	if GetUserFromContext(c) == nil {
		return service.ErrUnauthorized
	}
	return c.Next()
}

func RequireStaff(c *fiber.Ctx) error {
	if user := GetUserFromContext(c); user == nil || !user.IsStaff {
		return service.ErrForbidden
	}
	return c.Next()
}

func tokenFromHeader(h string) string {
	fields := strings.Fields(h)
	if len(fields) != 2 {
		return ""
	}
	switch strings.ToLower(fields[0]) {
	case "token", "bearer":
		return fields[1]
	}
	return ""
}

////////

func (s *HTTPServer) BindAndValidate(c *fiber.Ctx, v interface{}) error {
	if err := c.BodyParser(v); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := s.validator.Struct(v); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

// GetUserFromContext returns the authenticated user or nil for anonymous
// requests.
func GetUserFromContext(c *fiber.Ctx) *db.User {
	user, _ := c.Locals(userKey).(*db.User)
	return user
}

func GetAndParseParam(c *fiber.Ctx, name string) (uint64, error) {
	v := c.Params(name)
	if v == "" {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid path param '"+name+"'")
	}
	vv, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid path param '"+name+"'")
	}
	return vv, nil
}

// queryInt parses an optional integer query parameter.
func queryInt(c *fiber.Ctx, name string) (int, bool, error) {
	v := c.Query(name)
	if v == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false, errors.Wrap(service.ErrInvalidInput, "query param "+name+" must be a number")
	}
	return n, true, nil
}

func (s *HTTPServer) page(c *fiber.Ctx) (service.Page, error) {
	number, _, err := queryInt(c, "page")
	if err != nil {
		return service.Page{}, err
	}
	limit, _, err := queryInt(c, "limit")
	if err != nil {
		return service.Page{}, err
	}
	return service.ParsePage(number, limit, s.cfg.PageSize)
}

func recipesLimit(c *fiber.Ctx) (int, error) {
	n, _, err := queryInt(c, "recipes_limit")
	return n, err
}

// paginated wraps results the way the frontend expects, with absolute
// next/previous links that keep the other query parameters.
func paginated(c *fiber.Ctx, p service.Page, total int64, results interface{}) models.PageResp {
	resp := models.PageResp{Count: total, Results: results}
	if p.HasNext(total) {
		u := pageURL(c, p.Number+1)
		resp.Next = &u
	}
	if p.Number > 1 {
		u := pageURL(c, p.Number-1)
		resp.Previous = &u
	}
	return resp
}

func pageURL(c *fiber.Ctx, number int) string {
	u, err := url.Parse(c.OriginalURL())
	if err != nil {
		u = &url.URL{Path: c.Path()}
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(number))
	u.RawQuery = q.Encode()
	return c.BaseURL() + u.String()
}
