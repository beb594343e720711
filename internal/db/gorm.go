package db

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/config"
)

func NewGormClient(cfg *config.Config, l *zap.SugaredLogger) (*gorm.DB, error) {
	newLogger := logger.New(zap.NewStdLog(l.Desugar()), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  gormLogLevel(cfg.LogLevel),
		Colorful:                  false,
		IgnoreRecordNotFoundError: true,
	})

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:         newLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database")
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate creates or updates the schema. Join tables with their own models
// must be registered before AutoMigrate sees the owning models.
func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&Recipe{}, "Tags", &RecipeTag{}); err != nil {
		return errors.Wrap(err, "setup recipe tags join table")
	}

	err := db.AutoMigrate(
		&User{},
		&Ingredient{},
		&Tag{},
		&Recipe{},
		&IngredientAmount{},
		&RecipeTag{},
		&Favorite{},
		&ShoppingCart{},
		&ShoppingCartRecipe{},
		&Subscription{},
	)
	if err != nil {
		return errors.Wrap(err, "migrate schema")
	}

	return nil
}

// IsDuplicate reports whether err is a unique constraint violation.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "SQLSTATE 23505")
}

func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "debug":
		return logger.Info
	case "info", "warn":
		return logger.Warn
	default:
		return logger.Error
	}
}
