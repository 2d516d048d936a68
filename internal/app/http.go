package app

import (
	"context"

	"github.com/yungbote/wellness-backend/internal/clients/redis"
	"github.com/yungbote/wellness-backend/internal/data/db"
	"github.com/yungbote/wellness-backend/internal/http"
	httpH "github.com/yungbote/wellness-backend/internal/http/handlers"
	httpMW "github.com/yungbote/wellness-backend/internal/http/middleware"
	"github.com/yungbote/wellness-backend/internal/observability"
	"github.com/yungbote/wellness-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health   *httpH.HealthHandler
	Auth     *httpH.AuthHandler
	User     *httpH.UserHandler
	Wellness *httpH.WellnessHandler
}

func healthChecks(dbs db.Service, cache *redis.RevocationCache) map[string]httpH.Checker {
	checks := map[string]httpH.Checker{
		"database": func(ctx context.Context) error {
			sqlDB, err := dbs.DB().DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if cache != nil {
		checks["redis"] = cache.Ping
	}
	return checks
}

func wireHandlers(log *logger.Logger, cfg Config, services Services, checks map[string]httpH.Checker) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health: httpH.NewHealthHandler(checks),
		Auth:   httpH.NewAuthHandler(services.Auth),
		User:   httpH.NewUserHandler(services.User),
		Wellness: httpH.NewWellnessHandlerWithDeps(httpH.WellnessHandlerDeps{
			Log:      log,
			Wellness: services.Wellness,
			MaxDays:  cfg.HistoryMaxDays,
		}),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware, metrics *observability.Metrics) *http.Server {
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return http.NewServer(http.RouterConfig{
		Log:             log,
		ServiceName:     serviceName,
		AllowedOrigins:  cfg.AllowedOrigins,
		Metrics:         metrics,
		HealthHandler:   handlers.Health,
		AuthHandler:     handlers.Auth,
		AuthMiddleware:  middleware.Auth,
		UserHandler:     handlers.User,
		WellnessHandler: handlers.Wellness,
	})
}
