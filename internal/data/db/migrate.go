package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/wellness-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(domain.Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return EnsureWellnessIndexes(db)
}

// EnsureWellnessIndexes adds indexes the struct tags cannot express.
func EnsureWellnessIndexes(db *gorm.DB) error {
	if db.Dialector.Name() != DriverPostgres {
		return nil
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_wellness_response_good_enough
		ON wellness_response (user_id, response_date DESC)
		WHERE is_good_enough;
	`).Error; err != nil {
		return fmt.Errorf("create idx_wellness_response_good_enough: %w", err)
	}
	return nil
}
