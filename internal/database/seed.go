package database

import (
	"fmt"
	"log/slog"

	"cashdesk-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Seed inserts a demo cash desk, a cashier and a manager. Existing rows are
// left untouched, so it can be run repeatedly.
func Seed(db *gorm.DB) error {
	cashier, err := models.NewCashier(1, "John", "Doe",
		models.Address{Street: "Spengergasse 20", City: "Wien", Zip: "1050"}, "General")
	if err != nil {
		return err
	}
	manager, err := models.NewManager(2, "Jane", "Smith",
		models.Address{Street: "Spengergasse 20", City: "Wien", Zip: "1050"}, "Kombi")
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.CashDesk{Number: 1}).Error; err != nil {
			return fmt.Errorf("seed cash desk: %w", err)
		}
		for _, e := range []models.Employee{cashier, manager} {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&e).Error; err != nil {
				return fmt.Errorf("seed employee %d: %w", e.RegistrationNumber, err)
			}
		}
		slog.Info("seed data inserted", "cash_desks", 1, "employees", 2)
		return nil
	})
}
