package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cashdesk-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormStore struct {
	db *gorm.DB
	// inTx is set on the store handed to Transaction callbacks.
	inTx bool
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx, inTx: true})
	})
}

func (s *GormStore) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// ---------------------------------------------------------------
// Cash desks
// ---------------------------------------------------------------

func (s *GormStore) FindCashDesk(ctx context.Context, number int) (*models.CashDesk, error) {
	var desk models.CashDesk
	if err := s.conn(ctx).First(&desk, "number = ?", number).Error; err != nil {
		return nil, notFound(err)
	}
	return &desk, nil
}

func (s *GormStore) ListCashDesks(ctx context.Context) ([]models.CashDesk, error) {
	var desks []models.CashDesk
	if err := s.conn(ctx).Order("number").Find(&desks).Error; err != nil {
		return nil, fmt.Errorf("list cash desks: %w", err)
	}
	return desks, nil
}

func (s *GormStore) CreateCashDesk(ctx context.Context, desk *models.CashDesk) error {
	return s.conn(ctx).Create(desk).Error
}

// ---------------------------------------------------------------
// Employees
// ---------------------------------------------------------------

func (s *GormStore) FindEmployee(ctx context.Context, registrationNumber int) (*models.Employee, error) {
	var employee models.Employee
	if err := s.conn(ctx).First(&employee, "registration_number = ?", registrationNumber).Error; err != nil {
		return nil, notFound(err)
	}
	return &employee, nil
}

func (s *GormStore) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	var employees []models.Employee
	if err := s.conn(ctx).Order("registration_number").Find(&employees).Error; err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	return employees, nil
}

func (s *GormStore) CreateEmployee(ctx context.Context, employee *models.Employee) error {
	return s.conn(ctx).Create(employee).Error
}

// ---------------------------------------------------------------
// Payments
// ---------------------------------------------------------------

func (s *GormStore) FindPayment(ctx context.Context, id uint) (*models.Payment, error) {
	var payment models.Payment
	q := s.conn(ctx)
	if s.inTx {
		// SELECT ... FOR UPDATE; the sqlite driver drops the clause
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := q.
		Preload("CashDesk").
		Preload("Employee").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&payment, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &payment, nil
}

func (s *GormStore) ListPayments(ctx context.Context, filter PaymentFilter) ([]models.Payment, error) {
	q := s.conn(ctx).Model(&models.Payment{}).
		Preload("Employee").
		Preload("Items")

	if filter.CashDesk != nil {
		q = q.Where("cash_desk_number = ?", *filter.CashDesk)
	}
	if filter.DateFrom != nil {
		q = q.Where("payment_date_time >= ?", filter.DateFrom.UTC())
	}

	var payments []models.Payment
	if err := q.Order("payment_date_time DESC, id DESC").Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

func (s *GormStore) CreatePayment(ctx context.Context, payment *models.Payment) error {
	return s.conn(ctx).Omit(clause.Associations).Create(payment).Error
}

// UpdatePayment overwrites the mutable payment columns only if last_updated
// still equals expectedLastUpdated.
func (s *GormStore) UpdatePayment(ctx context.Context, payment *models.Payment, expectedLastUpdated time.Time) error {
	res := s.conn(ctx).Model(&models.Payment{}).
		Where("id = ? AND last_updated = ?", payment.ID, expectedLastUpdated).
		Updates(map[string]interface{}{
			"cash_desk_number":             payment.CashDeskNumber,
			"employee_registration_number": payment.EmployeeRegistrationNumber,
			"payment_date_time":            payment.PaymentDateTime,
			"payment_type":                 payment.PaymentType,
			"last_updated":                 payment.LastUpdated,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

// ConfirmPayment sets confirmed only while it is still NULL.
func (s *GormStore) ConfirmPayment(ctx context.Context, id uint, confirmed, lastUpdated time.Time) error {
	res := s.conn(ctx).Model(&models.Payment{}).
		Where("id = ? AND confirmed IS NULL", id).
		Updates(map[string]interface{}{
			"confirmed":    confirmed,
			"last_updated": lastUpdated,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

func (s *GormStore) DeletePayment(ctx context.Context, id uint) error {
	res := s.conn(ctx).Delete(&models.Payment{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ---------------------------------------------------------------
// Payment items
// ---------------------------------------------------------------

func (s *GormStore) CountPaymentItems(ctx context.Context, paymentID uint) (int64, error) {
	var count int64
	err := s.conn(ctx).Model(&models.PaymentItem{}).Where("payment_id = ?", paymentID).Count(&count).Error
	return count, err
}

func (s *GormStore) PaymentItemExists(ctx context.Context, paymentID uint, articleName string) (bool, error) {
	var count int64
	err := s.conn(ctx).Model(&models.PaymentItem{}).
		Where("payment_id = ? AND article_name = ?", paymentID, articleName).
		Count(&count).Error
	return count > 0, err
}

func (s *GormStore) FindPaymentItem(ctx context.Context, id uint) (*models.PaymentItem, error) {
	var item models.PaymentItem
	if err := s.conn(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &item, nil
}

func (s *GormStore) CreatePaymentItem(ctx context.Context, item *models.PaymentItem) error {
	return s.conn(ctx).Omit(clause.Associations).Create(item).Error
}

func (s *GormStore) UpdatePaymentItem(ctx context.Context, item *models.PaymentItem, expectedLastUpdated time.Time) error {
	res := s.conn(ctx).Model(&models.PaymentItem{}).
		Where("id = ? AND last_updated = ?", item.ID, expectedLastUpdated).
		Updates(map[string]interface{}{
			"article_name": item.ArticleName,
			"amount":       item.Amount,
			"price":        item.Price,
			"last_updated": item.LastUpdated,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

func (s *GormStore) DeletePaymentItem(ctx context.Context, id uint) error {
	res := s.conn(ctx).Delete(&models.PaymentItem{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) DeletePaymentItems(ctx context.Context, paymentID uint) (int64, error) {
	res := s.conn(ctx).Where("payment_id = ?", paymentID).Delete(&models.PaymentItem{})
	return res.RowsAffected, res.Error
}
