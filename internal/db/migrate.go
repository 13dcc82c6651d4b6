package db

import (
	"fundtrack/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.FundSnapshot{},
		&models.FundPosition{},
		&models.AISuggestion{},
	)
}
