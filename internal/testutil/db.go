// Package testutil holds helpers shared by the package tests. It must not be
// imported from production code.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"cashdesk-backend/internal/database"
	"cashdesk-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns a migrated, empty in-memory SQLite database that lives as
// long as the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection keeps the in-memory database alive and serializes
	// transactions
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// SeedBasics inserts cash desk 1, cashier 1 and manager 2.
func SeedBasics(t *testing.T, db *gorm.DB) (models.CashDesk, models.Employee, models.Employee) {
	t.Helper()

	desk := models.CashDesk{Number: 1}
	require.NoError(t, db.Create(&desk).Error)

	cashier, err := models.NewCashier(1, "John", "Doe", models.Address{Street: "Main St 1", City: "Wien", Zip: "1050"}, "General")
	require.NoError(t, err)
	require.NoError(t, db.Create(&cashier).Error)

	manager, err := models.NewManager(2, "Jane", "Smith", models.Address{Street: "Main St 2", City: "Wien", Zip: "1050"}, "Kombi")
	require.NoError(t, err)
	require.NoError(t, db.Create(&manager).Error)

	return desk, cashier, manager
}

// Now returns the current time the way the service stores it.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// InsertPayment stores a payment directly, bypassing the service rules.
func InsertPayment(t *testing.T, db *gorm.DB, deskNumber, registrationNumber int, paymentType models.PaymentType, confirmed *time.Time) models.Payment {
	t.Helper()

	now := Now()
	p := models.Payment{
		CashDeskNumber:             deskNumber,
		EmployeeRegistrationNumber: registrationNumber,
		PaymentDateTime:            now,
		PaymentType:                paymentType,
		Confirmed:                  confirmed,
		LastUpdated:                now,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func InsertItem(t *testing.T, db *gorm.DB, paymentID uint, article string, amount int, price string) models.PaymentItem {
	t.Helper()

	it := models.PaymentItem{
		PaymentID:   paymentID,
		ArticleName: article,
		Amount:      amount,
		Price:       decimal.RequireFromString(price),
		LastUpdated: Now(),
	}
	require.NoError(t, db.Create(&it).Error)
	return it
}
