package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/wellness-backend/internal/clients/redis"
	"github.com/yungbote/wellness-backend/internal/data/db"
	"github.com/yungbote/wellness-backend/internal/observability"
	"github.com/yungbote/wellness-backend/internal/platform/envutil"
	"github.com/yungbote/wellness-backend/internal/platform/logger"
)

const defaultJWTSecret = "defaultsecret"

type Config struct {
	Port string

	DB db.Config

	JWTSecretKey    string
	JWTIssuer       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	Location          *time.Location
	ScoringConfigPath string
	HistoryMaxDays    int

	Redis             redis.Config
	RedisPingInterval time.Duration

	TokenPurgeInterval time.Duration
	ShutdownTimeout    time.Duration
	AllowedOrigins     []string

	MetricsEnabled bool
	Otel           observability.OtelConfig
}

func LoadConfig(log *logger.Logger) (Config, error) {
	tz := envutil.String("APP_TIMEZONE", "UTC", log)
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return Config{}, fmt.Errorf("APP_TIMEZONE %q: %w", tz, err)
	}

	cfg := Config{
		Port: envutil.String("PORT", "8080", log),
		DB: db.Config{
			Driver:           envutil.String("DB_DRIVER", db.DriverPostgres, log),
			PostgresHost:     envutil.String("POSTGRES_HOST", "localhost", log),
			PostgresPort:     envutil.String("POSTGRES_PORT", "5432", log),
			PostgresUser:     envutil.String("POSTGRES_USER", "postgres", log),
			PostgresPassword: envutil.String("POSTGRES_PASSWORD", "", log),
			PostgresName:     envutil.String("POSTGRES_NAME", "wellness", log),
			PostgresSSLMode:  envutil.String("POSTGRES_SSLMODE", "disable", log),
			SQLitePath:       envutil.String("SQLITE_PATH", "wellness.db", log),
			SlowThreshold:    envutil.Duration("DB_SLOW_THRESHOLD", 200*time.Millisecond, log),
		},

		JWTSecretKey:    envutil.String("JWT_SECRET_KEY", defaultJWTSecret, log),
		JWTIssuer:       envutil.String("JWT_ISSUER", "wellness-backend", log),
		AccessTokenTTL:  envutil.Seconds("ACCESS_TOKEN_TTL", time.Hour, log),
		RefreshTokenTTL: envutil.Seconds("REFRESH_TOKEN_TTL", 24*time.Hour, log),

		Location:          loc,
		ScoringConfigPath: envutil.String("SCORING_CONFIG_PATH", "", log),
		HistoryMaxDays:    envutil.Int("HISTORY_MAX_DAYS", 365, log),

		Redis: redis.Config{
			Addr:      envutil.String("REDIS_ADDR", "", log),
			Password:  envutil.String("REDIS_PASSWORD", "", log),
			DB:        envutil.Int("REDIS_DB", 0, log),
			KeyPrefix: envutil.String("REDIS_KEY_PREFIX", "", log),
		},
		RedisPingInterval: envutil.Duration("REDIS_PING_INTERVAL", 15*time.Second, log),

		TokenPurgeInterval: envutil.Duration("TOKEN_PURGE_INTERVAL", time.Hour, log),
		ShutdownTimeout:    envutil.Duration("SHUTDOWN_TIMEOUT", 15*time.Second, log),
		AllowedOrigins:     envutil.List("CORS_ALLOWED_ORIGINS", nil, log),

		MetricsEnabled: envutil.Bool("METRICS_ENABLED", true, log),
		Otel: observability.OtelConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false, log),
			ServiceName: envutil.String("OTEL_SERVICE_NAME", "wellness-backend", log),
			Environment: envutil.String("OTEL_ENVIRONMENT", "development", log),
			Version:     envutil.String("OTEL_SERVICE_VERSION", "", log),
			SampleRatio: envutil.Float("OTEL_SAMPLER_RATIO", 1, log),
			Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", "", log),
			Headers:     envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "", log),
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false, log),
		},
	}
	if err := cfg.validate(log); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate(log *logger.Logger) error {
	if strings.TrimSpace(c.JWTSecretKey) == "" {
		return fmt.Errorf("JWT_SECRET_KEY must not be empty")
	}
	if c.JWTSecretKey == defaultJWTSecret && log != nil {
		log.Warn("JWT_SECRET_KEY is the built-in default; set it outside local development")
	}
	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL must be positive")
	}
	if c.RefreshTokenTTL < c.AccessTokenTTL {
		return fmt.Errorf("REFRESH_TOKEN_TTL (%s) must not be shorter than ACCESS_TOKEN_TTL (%s)", c.RefreshTokenTTL, c.AccessTokenTTL)
	}
	if c.HistoryMaxDays <= 0 {
		return fmt.Errorf("HISTORY_MAX_DAYS must be positive")
	}
	return nil
}
