package service

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
)

const DefaultRecipesLimit = 5

type (
	// AuthorProfile is an author with their most recent recipes.
	AuthorProfile struct {
		Author       db.User
		Recipes      []db.Recipe
		RecipesCount int64
	}

	Subscriptions struct {
		db     *gorm.DB
		logger *zap.SugaredLogger
	}
)

func NewSubscriptions(db *gorm.DB, l *zap.SugaredLogger) *Subscriptions {
	return &Subscriptions{
		db:     db,
		logger: l,
	}
}

// Subscribe makes user follow the author. recipesLimit < 1 means
// DefaultRecipesLimit.
func (s *Subscriptions) Subscribe(ctx context.Context, user *db.User, authorID uint64, recipesLimit int) (*AuthorProfile, error) {
	if user.ID == authorID {
		return nil, ErrSelfSubscription
	}

	var profile *AuthorProfile
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		author := db.User{}
		if res := tx.First(&author, authorID); res.Error != nil {
			return storeErr(res.Error, "author")
		}

		var count int64
		res := tx.Model(&db.Subscription{}).
			Where("user_id = ? AND author_id = ?", user.ID, authorID).
			Count(&count)
		if res.Error != nil {
			return errors.Wrap(res.Error, "count subscriptions")
		}
		if count != 0 {
			return errors.Wrap(ErrAlreadyExists, "subscription to "+author.Username)
		}

		res = tx.Create(&db.Subscription{UserID: user.ID, AuthorID: authorID})
		if err := storeErr(res.Error, "subscription to "+author.Username); err != nil {
			return err
		}

		p, err := authorProfile(tx, author, recipesLimit)
		if err != nil {
			return err
		}
		profile = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("subscribed", "user_id", user.ID, "author_id", authorID)
	return profile, nil
}

func (s *Subscriptions) Unsubscribe(ctx context.Context, user *db.User, authorID uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if res := tx.Select("id").First(&db.User{}, authorID); res.Error != nil {
			return storeErr(res.Error, "author")
		}

		res := tx.Where("user_id = ? AND author_id = ?", user.ID, authorID).Delete(&db.Subscription{})
		if res.Error != nil {
			return errors.Wrap(res.Error, "delete subscription")
		}
		if res.RowsAffected == 0 {
			return errors.Wrap(ErrNotFound, "subscription")
		}
		return nil
	})
}

// List returns the authors user follows, most recently registered first.
func (s *Subscriptions) List(ctx context.Context, user *db.User, page Page, recipesLimit int) ([]AuthorProfile, int64, error) {
	w := squirrel.Eq{"s.user_id": user.ID}

	countSQL, countArgs, err := squirrel.Select("COUNT(*)").From("subscriptions s").Where(w).ToSql()
	if err != nil {
		return nil, 0, errors.Wrap(err, "build sql")
	}
	var total int64
	if res := s.db.WithContext(ctx).Raw(countSQL, countArgs...).Scan(&total); res.Error != nil {
		return nil, 0, errors.Wrap(res.Error, "count subscriptions")
	}

	sql, args, err := squirrel.
		Select("u.*").From("users u").
		Join("subscriptions s ON s.author_id = u.id").
		Where(w).
		OrderBy("u.id DESC").
		Limit(uint64(page.Limit)).
		Offset(uint64(page.Offset())).
		ToSql()
	if err != nil {
		return nil, 0, errors.Wrap(err, "build sql")
	}
	authors := make([]db.User, 0)
	if res := s.db.WithContext(ctx).Raw(sql, args...).Scan(&authors); res.Error != nil {
		return nil, 0, errors.Wrap(res.Error, "scan")
	}

	profiles := make([]AuthorProfile, 0, len(authors))
	for _, a := range authors {
		p, err := authorProfile(s.db.WithContext(ctx), a, recipesLimit)
		if err != nil {
			return nil, 0, err
		}
		profiles = append(profiles, *p)
	}
	return profiles, total, nil
}

func authorProfile(tx *gorm.DB, author db.User, recipesLimit int) (*AuthorProfile, error) {
	if recipesLimit < 1 {
		recipesLimit = DefaultRecipesLimit
	}

	recipes := make([]db.Recipe, 0)
	res := tx.Where("author_id = ?", author.ID).
		Order("pub_date DESC").Order("id DESC").
		Limit(recipesLimit).
		Find(&recipes)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "find author recipes")
	}

	var count int64
	if res := tx.Model(&db.Recipe{}).Where("author_id = ?", author.ID).Count(&count); res.Error != nil {
		return nil, errors.Wrap(res.Error, "count author recipes")
	}

	return &AuthorProfile{
		Author:       author,
		Recipes:      recipes,
		RecipesCount: count,
	}, nil
}
