package database

import (
	"fmt"
	"log/slog"

	"cashdesk-backend/internal/config"
	"cashdesk-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to Postgres. It does not migrate.
func Open(cfg *config.Config) (*gorm.DB, error) {
	gormLogger := logger.Default.LogMode(logger.Warn)
	if cfg.SlogLevel() == slog.LevelDebug {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates all tables. The order matters: referenced
// tables come before the tables holding the foreign keys.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.CashDesk{},
		&models.Employee{},
		&models.Payment{},
		&models.PaymentItem{},
		&models.User{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}

	slog.Info("database migration finished")
	return nil
}
