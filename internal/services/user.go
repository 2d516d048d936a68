package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yungbote/wellness-backend/internal/data/repos"
	types "github.com/yungbote/wellness-backend/internal/domain"
	"github.com/yungbote/wellness-backend/internal/platform/apierr"
	"github.com/yungbote/wellness-backend/internal/platform/ctxutil"
	"github.com/yungbote/wellness-backend/internal/platform/dbctx"
	"github.com/yungbote/wellness-backend/internal/platform/logger"
)

type UserService interface {
	GetMe(dbc dbctx.Context) (*types.User, error)
}

type userService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo repos.UserRepo
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo) UserService {
	serviceLog := log.With("service", "UserService")
	return &userService{
		db:       db,
		log:      serviceLog,
		userRepo: userRepo,
	}
}

func (us *userService) GetMe(dbc dbctx.Context) (*types.User, error) {
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if rd == nil {
		us.log.Warn("Request data not set in context")
		return nil, apierr.Unauthorized(CodeUnauthorized, errors.New("not signed in"))
	}
	u, err := us.userRepo.GetByID(dbc, rd.UserID)
	if err != nil {
		us.log.Error("Failed to load user", "user_id", rd.UserID, "error", err)
		return nil, apierr.Internal(CodeStorageFault, errors.New("could not load profile"))
	}
	if u == nil {
		return nil, apierr.Unauthorized(CodeUnauthorized, errors.New("user no longer exists"))
	}
	return u, nil
}
