package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/config"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
)

type (
	UserInput struct {
		Email     string `json:"email" validate:"required,email,max=254"`
		Username  string `json:"username" validate:"required,max=150"`
		FirstName string `json:"first_name" validate:"required,max=150"`
		LastName  string `json:"last_name" validate:"required,max=150"`
		Password  string `json:"password" validate:"required,min=8,max=128"`
	}

	passwordInput struct {
		NewPassword string `json:"new_password" validate:"required,min=8,max=128"`
	}

	Users struct {
		db         *gorm.DB
		logger     *zap.SugaredLogger
		bcryptCost int
	}
)

func NewUsers(db *gorm.DB, l *zap.SugaredLogger, cfg *config.Config) *Users {
	return &Users{
		db:         db,
		logger:     l,
		bcryptCost: cfg.BcryptCost,
	}
}

func (s *Users) Register(ctx context.Context, in UserInput) (*db.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	if err := checkInput(&in); err != nil {
		return nil, err
	}

	hash, err := s.bcryptGen(in.Password)
	if err != nil {
		return nil, errors.Wrap(err, "bcryptGen")
	}

	user := db.User{
		Email:     in.Email,
		Username:  in.Username,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Password:  hash,
	}
	res := s.db.WithContext(ctx).Create(&user)
	if res.Error != nil {
		return nil, storeErr(res.Error, "user with this email or username")
	}

	s.logger.Infow("user registered", "user_id", user.ID)
	return &user, nil
}

// Login issues a fresh token, invalidating the previous one.
func (s *Users) Login(ctx context.Context, email, pass string) (string, error) {
	user := db.User{}
	res := s.db.WithContext(ctx).Where("email = ?", email).First(&user)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return "", ErrBadCredentials
		}
		return "", res.Error
	}

	if err := s.bcryptCheck(user.Password, pass); err != nil {
		return "", ErrBadCredentials
	}

	token := uuid.New().String()
	res = s.db.WithContext(ctx).Model(&user).Update("token", token)
	if res.Error != nil {
		return "", errors.Wrap(res.Error, "update token")
	}

	return token, nil
}

func (s *Users) Logout(ctx context.Context, user *db.User) error {
	res := s.db.WithContext(ctx).Model(&db.User{}).Where("id = ?", user.ID).Update("token", "")
	if res.Error != nil {
		return errors.Wrap(res.Error, "clear token")
	}
	user.Token = ""
	return nil
}

func (s *Users) Authenticate(ctx context.Context, token string) (*db.User, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	user := db.User{}
	res := s.db.WithContext(ctx).Where("token = ?", token).First(&user)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, errors.Wrap(res.Error, "find user by token")
	}
	return &user, nil
}

func (s *Users) SetPassword(ctx context.Context, user *db.User, current, newPass string) error {
	if err := s.bcryptCheck(user.Password, current); err != nil {
		return errors.Wrap(ErrInvalidInput, "current password is incorrect")
	}
	if err := checkInput(&passwordInput{NewPassword: newPass}); err != nil {
		return err
	}

	hash, err := s.bcryptGen(newPass)
	if err != nil {
		return errors.Wrap(err, "bcryptGen")
	}
	res := s.db.WithContext(ctx).Model(user).Update("password", hash)
	if res.Error != nil {
		return errors.Wrap(res.Error, "update password")
	}
	user.Password = hash
	return nil
}

func (s *Users) Get(ctx context.Context, id uint64) (*db.User, error) {
	user := db.User{}
	res := s.db.WithContext(ctx).First(&user, id)
	if res.Error != nil {
		return nil, storeErr(res.Error, "user")
	}
	return &user, nil
}

func (s *Users) List(ctx context.Context, page Page) ([]db.User, int64, error) {
	var total int64
	if res := s.db.WithContext(ctx).Model(&db.User{}).Count(&total); res.Error != nil {
		return nil, 0, errors.Wrap(res.Error, "count users")
	}

	users := make([]db.User, 0)
	res := s.db.WithContext(ctx).
		Order("id DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&users)
	if res.Error != nil {
		return nil, 0, errors.Wrap(res.Error, "list users")
	}
	return users, total, nil
}

// SubscribedTo returns which of authorIDs the viewer follows.
func (s *Users) SubscribedTo(ctx context.Context, viewer *db.User, authorIDs []uint64) (map[uint64]bool, error) {
	out := make(map[uint64]bool)
	if viewer == nil || len(authorIDs) == 0 {
		return out, nil
	}

	ids := make([]uint64, 0)
	res := s.db.WithContext(ctx).
		Model(&db.Subscription{}).
		Where("user_id = ? AND author_id IN ?", viewer.ID, authorIDs).
		Pluck("author_id", &ids)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "find subscriptions")
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func (s *Users) bcryptGen(pass string) (string, error) {
	passwordHashB, err := bcrypt.GenerateFromPassword([]byte(pass), s.bcryptCost)
	if err != nil {
		return "", errors.Wrap(err, "generate password hash")
	}
	return string(passwordHashB), nil
}

func (s *Users) bcryptCheck(hash, pass string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pass))
}
