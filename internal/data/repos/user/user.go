package user

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/wellness-backend/internal/data/db"
	types "github.com/yungbote/wellness-backend/internal/domain"
	"github.com/yungbote/wellness-backend/internal/platform/dbctx"
	"github.com/yungbote/wellness-backend/internal/platform/logger"
)

// ErrUserExists is returned by Create when the username or email is taken.
var ErrUserExists = errors.New("user already exists")

type UserRepo interface {
	Create(dbc dbctx.Context, u *types.User) (*types.User, error)
	GetByID(dbc dbctx.Context, userID uuid.UUID) (*types.User, error)
	GetByEmail(dbc dbctx.Context, email string) (*types.User, error)
	ExistsByEmailOrUsername(dbc dbctx.Context, email, username string) (bool, error)
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	repoLog := baseLog.With("repo", "UserRepo")
	return &userRepo{db: db, log: repoLog}
}

func (ur *userRepo) Create(dbc dbctx.Context, u *types.User) (*types.User, error) {
	if u == nil {
		return nil, fmt.Errorf("create user: nil user")
	}
	u.Email = normalizeEmail(u.Email)
	if err := dbc.Conn(ur.db).Create(u).Error; err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (ur *userRepo) GetByID(dbc dbctx.Context, userID uuid.UUID) (*types.User, error) {
	if userID == uuid.Nil {
		return nil, nil
	}
	return ur.first(dbc, "id = ?", userID)
}

func (ur *userRepo) GetByEmail(dbc dbctx.Context, email string) (*types.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, nil
	}
	return ur.first(dbc, "email = ?", email)
}

func (ur *userRepo) ExistsByEmailOrUsername(dbc dbctx.Context, email, username string) (bool, error) {
	var count int64
	if err := dbc.Conn(ur.db).
		Model(&types.User{}).
		Where("email = ? OR username = ?", normalizeEmail(email), username).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return count > 0, nil
}

func (ur *userRepo) first(dbc dbctx.Context, query string, args ...interface{}) (*types.User, error) {
	var u types.User
	err := dbc.Conn(ur.db).Where(query, args...).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
