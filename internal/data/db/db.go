package db

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/wellness-backend/internal/platform/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Driver string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresName     string
	PostgresSSLMode  string

	SQLitePath string

	SlowThreshold time.Duration
}

// Service is a connected database handle.
type Service interface {
	DB() *gorm.DB
	Close() error
}

// Open connects to the database selected by cfg.Driver.
func Open(log *logger.Logger, cfg Config) (Service, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverPostgres:
		return NewPostgresService(log, cfg)
	case DriverSQLite:
		return NewSQLiteService(log, cfg)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}
}

func gormConfig(log *logger.Logger, slow time.Duration) *gorm.Config {
	if slow <= 0 {
		slow = 1 * time.Second
	}
	base := zap.NewNop()
	if log != nil && log.SugaredLogger != nil {
		base = log.SugaredLogger.Desugar().With(zap.String("component", "gorm"))
	}
	gormLog := gormLogger.New(
		zap.NewStdLog(base),
		gormLogger.Config{
			SlowThreshold:             slow,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	return &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
		Logger:                                   gormLog,
		NowFunc:                                  func() time.Time { return time.Now().UTC() },
	}
}

func closeGorm(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
