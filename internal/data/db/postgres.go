package db

import (
	"fmt"
	"net/url"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/yungbote/wellness-backend/internal/platform/logger"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(logg *logger.Logger, cfg Config) (*PostgresService, error) {
	serviceLog := logg.With("service", "PostgresService")

	sslMode := cfg.PostgresSSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	dsn := (&url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.PostgresUser, cfg.PostgresPassword),
		Host:     cfg.PostgresHost + ":" + cfg.PostgresPort,
		Path:     "/" + cfg.PostgresName,
		RawQuery: "sslmode=" + url.QueryEscape(sslMode),
	}).String()

	db, err := gorm.Open(postgres.Open(dsn), gormConfig(logg, cfg.SlowThreshold))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	serviceLog.Info("Connected to Postgres", "host", cfg.PostgresHost, "database", cfg.PostgresName)
	return &PostgresService{db: db, log: serviceLog}, nil
}

func (s *PostgresService) DB() *gorm.DB { return s.db }

func (s *PostgresService) Close() error { return closeGorm(s.db) }
