package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/wellness-backend/internal/observability"
	"github.com/yungbote/wellness-backend/internal/platform/logger"
	"github.com/yungbote/wellness-backend/internal/scoring"
	"github.com/yungbote/wellness-backend/internal/services"
)

type Services struct {
	Auth     services.AuthService
	User     services.UserService
	Wellness services.WellnessService
	Janitor  *services.TokenJanitor
}

func loadScoringEngine(log *logger.Logger, path string) (*scoring.Engine, error) {
	cfg := scoring.DefaultConfig()
	if path != "" {
		loaded, err := scoring.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
		log.Info("Loaded scoring config", "path", path)
	}
	return scoring.NewEngine(cfg)
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, clients Clients, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	engine, err := loadScoringEngine(log, cfg.ScoringConfigPath)
	if err != nil {
		return Services{}, fmt.Errorf("init scoring engine: %w", err)
	}

	// A nil *RevocationCache must not become a non-nil interface.
	var cache services.RevocationCache
	if clients.Revocations != nil {
		cache = clients.Revocations
	}
	var (
		authObs   services.AuthObserver
		submitObs services.SubmissionObserver
	)
	if metrics != nil {
		authObs, submitObs = metrics, metrics
	}

	auth := services.NewAuthService(db, log, reposet.User, reposet.InvalidatedToken, cache, services.AuthConfig{
		SecretKey:  cfg.JWTSecretKey,
		Issuer:     cfg.JWTIssuer,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
		Observer:   authObs,
	})
	return Services{
		Auth: auth,
		User: services.NewUserService(db, log, reposet.User),
		Wellness: services.NewWellnessService(db, log, reposet.WellnessResponse, engine, services.WellnessServiceOptions{
			Location: cfg.Location,
			Observer: submitObs,
		}),
		Janitor: services.NewTokenJanitor(log, auth, cfg.TokenPurgeInterval),
	}, nil
}
