package proto

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/config"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/media"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/service"
)

type (
	Deps struct {
		fx.In

		Logger       *zap.SugaredLogger
		Users        *service.Users
		Recipes      *service.Recipes
		ShoppingList *service.ShoppingList
		Media        *media.Storage
	}

	FoodgramServerImpl struct {
		logger       *zap.SugaredLogger
		users        *service.Users
		recipes      *service.Recipes
		shoppingList *service.ShoppingList
		media        *media.Storage
	}
)

func NewFoodgramServer(d Deps) *FoodgramServerImpl {
	return &FoodgramServerImpl{
		logger:       d.Logger,
		users:        d.Users,
		recipes:      d.Recipes,
		shoppingList: d.ShoppingList,
		media:        d.Media,
	}
}

// NewServer registers impl on a fresh grpc.Server with request logging.
func NewServer(impl FoodgramServer, logger *zap.SugaredLogger) *grpc.Server {
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(LoggingInterceptor(logger)))
	RegisterFoodgramServer(grpcServer, impl)
	return grpcServer
}

func NewGRPCServer(lc fx.Lifecycle, cfg *config.Config, logger *zap.SugaredLogger, impl *FoodgramServerImpl) *grpc.Server {
	grpcServer := NewServer(impl, logger)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			lis, err := net.Listen("tcp", cfg.Host+":"+cfg.GRPCPort)
			if err != nil {
				return errors.Wrap(err, "grpc listen")
			}
			go func() {
				if err := grpcServer.Serve(lis); err != nil {
					logger.Fatalw("failed to serve grpc", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping GRPC server.")
			grpcServer.GracefulStop()
			return nil
		},
	})

	return grpcServer
}

func LoggingInterceptor(logger *zap.SugaredLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Infow("grpc request",
			"method", info.FullMethod,
			"code", status.Code(err).String(),
			"latency", time.Since(start),
		)
		return resp, err
	}
}

func (s *FoodgramServerImpl) DownloadShoppingCart(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.StringValue, error) {
	user, err := s.authenticate(ctx)
	if err != nil {
		return nil, toStatus(err)
	}

	text, err := s.shoppingList.Render(ctx, user.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.String(text), nil
}

func (s *FoodgramServerImpl) GetRecipe(ctx context.Context, req *wrapperspb.UInt64Value) (*structpb.Struct, error) {
	if req.GetValue() == 0 {
		return nil, status.Error(codes.InvalidArgument, "recipe id is required")
	}

	recipe, err := s.recipes.Get(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}

	out, err := structpb.NewStruct(s.recipeFields(recipe))
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// authenticate reads the token from the "authorization" metadata key,
// with or without a "Token "/"Bearer " prefix.
func (s *FoodgramServerImpl) authenticate(ctx context.Context) (*db.User, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	values := md.Get("authorization")
	if len(values) == 0 {
		return nil, service.ErrUnauthorized
	}

	token := strings.TrimSpace(values[0])
	if fields := strings.Fields(token); len(fields) == 2 {
		token = fields[1]
	}
	if token == "" {
		return nil, service.ErrUnauthorized
	}
	return s.users.Authenticate(ctx, token)
}

func (s *FoodgramServerImpl) recipeFields(r *db.Recipe) map[string]interface{} {
	tags := make([]interface{}, len(r.Tags))
	for i, t := range r.Tags {
		tags[i] = map[string]interface{}{
			"id":    t.ID,
			"name":  t.Name,
			"color": t.Color,
			"slug":  t.Slug,
		}
	}

	ingredients := make([]interface{}, len(r.IngredientAmounts))
	for i, a := range r.IngredientAmounts {
		ingredients[i] = map[string]interface{}{
			"id":               a.IngredientID,
			"name":             a.Ingredient.Name,
			"measurement_unit": a.Ingredient.MeasurementUnit,
			"amount":           a.Amount,
		}
	}

	fields := map[string]interface{}{
		"id":           r.ID,
		"name":         r.Name,
		"text":         r.Text,
		"image":        s.media.URL(r.Image),
		"cooking_time": r.CookingTime,
		"tags":         tags,
		"ingredients":  ingredients,
	}
	if r.Author != nil {
		fields["author"] = map[string]interface{}{
			"id":         r.Author.ID,
			"username":   r.Author.Username,
			"first_name": r.Author.FirstName,
			"last_name":  r.Author.LastName,
		}
	}
	return fields
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, service.ErrForbidden):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, service.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrSelfSubscription),
		errors.Is(err, service.ErrBadCredentials):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
