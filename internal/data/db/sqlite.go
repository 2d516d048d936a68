package db

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yungbote/wellness-backend/internal/platform/logger"
)

// SQLiteService backs local development and tests. Use
// "file:<name>?mode=memory&cache=shared" for an in-memory database.
type SQLiteService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSQLiteService(logg *logger.Logger, cfg Config) (*SQLiteService, error) {
	serviceLog := logg.With("service", "SQLiteService")

	path := cfg.SQLitePath
	if path == "" {
		path = "wellness.db"
	}
	db, err := gorm.Open(sqlite.Open(path), gormConfig(logg, cfg.SlowThreshold))
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite %q: %w", path, err)
	}
	// One writer at a time; the busy handler is per connection.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	serviceLog.Info("Opened SQLite database", "path", path)
	return &SQLiteService{db: db, log: serviceLog}, nil
}

func (s *SQLiteService) DB() *gorm.DB { return s.db }

func (s *SQLiteService) Close() error { return closeGorm(s.db) }
