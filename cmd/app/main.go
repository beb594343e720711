package main

import (
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/config"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/media"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/proto"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/service"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/transport"
)

func main() {
	fx.New(
		fx.Provide(
			config.NewConfig,
			NewLogger,
			func(l *zap.Logger) *zap.SugaredLogger {
				return l.Sugar()
			},
			db.NewGormClient,
			media.NewStorage,
			service.NewUsers,
			service.NewCatalog,
			service.NewRecipes,
			service.NewToggles,
			service.NewSubscriptions,
			service.NewShoppingList,
			transport.NewMetrics,
			transport.NewHTTPServer,
		),
		proto.Module,
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l}
		}),
		fx.Invoke(func(*transport.HTTPServer, *grpc.Server) {}),
	).Run()
}

func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, errors.Wrap(err, "parse log level")
	}

	zc := zap.NewProductionConfig()
	if level.Level() == zap.DebugLevel {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level

	l, err := zc.Build()
	if err != nil {
		return nil, errors.Wrap(err, "build logger")
	}
	return l, nil
}
