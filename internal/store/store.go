// Package store is the persistence boundary of the payment backend. The
// service layer only talks to the Store interface; GormStore is the
// production implementation.
package store

import (
	"context"
	"errors"
	"time"

	"cashdesk-backend/internal/models"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned by the compare-and-swap updates when the row
	// no longer matches the expected state.
	ErrConflict = errors.New("record was modified concurrently")
)

type PaymentFilter struct {
	CashDesk *int
	DateFrom *time.Time
}

type Store interface {
	// Transaction runs fn against a Store bound to a single transaction.
	// Returning an error from fn rolls everything back.
	Transaction(ctx context.Context, fn func(tx Store) error) error

	FindCashDesk(ctx context.Context, number int) (*models.CashDesk, error)
	ListCashDesks(ctx context.Context) ([]models.CashDesk, error)
	CreateCashDesk(ctx context.Context, desk *models.CashDesk) error

	FindEmployee(ctx context.Context, registrationNumber int) (*models.Employee, error)
	ListEmployees(ctx context.Context) ([]models.Employee, error)
	CreateEmployee(ctx context.Context, employee *models.Employee) error

	// FindPayment loads a payment with its cash desk, employee and items.
	// Inside Transaction the payment row stays locked until the transaction
	// ends, so item checks and writes on it are serialized.
	FindPayment(ctx context.Context, id uint) (*models.Payment, error)
	ListPayments(ctx context.Context, filter PaymentFilter) ([]models.Payment, error)
	CreatePayment(ctx context.Context, payment *models.Payment) error
	UpdatePayment(ctx context.Context, payment *models.Payment, expectedLastUpdated time.Time) error
	ConfirmPayment(ctx context.Context, id uint, confirmed, lastUpdated time.Time) error
	DeletePayment(ctx context.Context, id uint) error

	CountPaymentItems(ctx context.Context, paymentID uint) (int64, error)
	PaymentItemExists(ctx context.Context, paymentID uint, articleName string) (bool, error)
	FindPaymentItem(ctx context.Context, id uint) (*models.PaymentItem, error)
	CreatePaymentItem(ctx context.Context, item *models.PaymentItem) error
	UpdatePaymentItem(ctx context.Context, item *models.PaymentItem, expectedLastUpdated time.Time) error
	DeletePaymentItem(ctx context.Context, id uint) error
	DeletePaymentItems(ctx context.Context, paymentID uint) (int64, error)
}
