package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/wellness-backend/internal/http/handlers"
	httpMW "github.com/yungbote/wellness-backend/internal/http/middleware"
	"github.com/yungbote/wellness-backend/internal/observability"
	"github.com/yungbote/wellness-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AllowedOrigins []string
	Metrics        *observability.Metrics

	AuthHandler     *httpH.AuthHandler
	AuthMiddleware  *httpMW.AuthMiddleware
	UserHandler     *httpH.UserHandler
	WellnessHandler *httpH.WellnessHandler
	HealthHandler   *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log, "/healthcheck", "/readyz", "/metrics"))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")

	// Auth (public)
	if cfg.AuthHandler != nil {
		auth := api.Group("/auth")
		auth.POST("/register", cfg.AuthHandler.Register)
		auth.POST("/login", cfg.AuthHandler.Login)
		auth.POST("/introspect", cfg.AuthHandler.Introspect)
		auth.POST("/refresh", cfg.AuthHandler.Refresh)
	}

	protected := api.Group("/")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}
	{
		// Auth (protected)
		if cfg.AuthHandler != nil {
			protected.POST("/auth/logout", cfg.AuthHandler.Logout)
		}

		// User (Me)
		if cfg.UserHandler != nil {
			protected.GET("/me", cfg.UserHandler.GetMe)
		}

		// Daily check-in
		if cfg.WellnessHandler != nil {
			fuieds := protected.Group("/fuieds")
			fuieds.POST("/submit", cfg.WellnessHandler.Submit)
			fuieds.GET("/today", cfg.WellnessHandler.Today)
			fuieds.GET("/history", cfg.WellnessHandler.History)
			fuieds.GET("/summary", cfg.WellnessHandler.Summary)
		}
	}

	return r
}
