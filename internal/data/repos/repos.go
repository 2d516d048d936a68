package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/wellness-backend/internal/data/repos/auth"
	"github.com/yungbote/wellness-backend/internal/data/repos/user"
	"github.com/yungbote/wellness-backend/internal/data/repos/wellness"
	"github.com/yungbote/wellness-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type InvalidatedTokenRepo = auth.InvalidatedTokenRepo
type WellnessResponseRepo = wellness.WellnessResponseRepo

var (
	ErrUserExists        = user.ErrUserExists
	ErrDuplicateResponse = wellness.ErrDuplicateResponse
)

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return user.NewUserRepo(db, baseLog) }

func NewInvalidatedTokenRepo(db *gorm.DB, baseLog *logger.Logger) InvalidatedTokenRepo {
	return auth.NewInvalidatedTokenRepo(db, baseLog)
}

func NewWellnessResponseRepo(db *gorm.DB, baseLog *logger.Logger) WellnessResponseRepo {
	return wellness.NewWellnessResponseRepo(db, baseLog)
}
