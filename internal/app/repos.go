package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/wellness-backend/internal/data/repos"
	"github.com/yungbote/wellness-backend/internal/platform/logger"
)

type Repos struct {
	User             repos.UserRepo
	InvalidatedToken repos.InvalidatedTokenRepo
	WellnessResponse repos.WellnessResponseRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:             repos.NewUserRepo(db, log),
		InvalidatedToken: repos.NewInvalidatedTokenRepo(db, log),
		WellnessResponse: repos.NewWellnessResponseRepo(db, log),
	}
}
