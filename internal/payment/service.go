// Package payment holds the payment lifecycle rules: creating payments,
// managing their items while they are open, confirming them and deleting
// them. The HTTP handlers in this package are thin adapters over Service.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cashdesk-backend/internal/models"
	"cashdesk-backend/internal/store"
)

// ItemPolicy decides when AddPaymentItem rejects an item as a duplicate.
type ItemPolicy string

const (
	// ItemPolicySingle allows at most one item per payment.
	ItemPolicySingle ItemPolicy = "single"
	// ItemPolicyPerArticle allows one item per article name.
	ItemPolicyPerArticle ItemPolicy = "per-article"
)

// DefaultTolerance is how far ahead of the clock a payment or confirmation
// date may lie unless WithTolerance says otherwise.
const DefaultTolerance = time.Minute

// Service runs the payment lifecycle against a store.Store. It is safe for
// concurrent use; ordering between requests comes from store transactions.
type Service struct {
	store      store.Store
	now        func() time.Time
	tolerance  time.Duration
	itemPolicy ItemPolicy
	log        *slog.Logger
}

// Option configures a Service in NewService.
type Option func(*Service)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithTolerance sets how far in the future payment and confirmation dates
// may lie.
func WithTolerance(d time.Duration) Option {
	return func(s *Service) { s.tolerance = d }
}

// WithItemPolicy selects the duplicate rule for AddPaymentItem. The default
// is ItemPolicySingle.
func WithItemPolicy(p ItemPolicy) Option {
	return func(s *Service) { s.itemPolicy = p }
}

// WithLogger sets the logger for lifecycle events. It defaults to
// slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

func NewService(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:      st,
		now:        time.Now,
		tolerance:  DefaultTolerance,
		itemPolicy: ItemPolicySingle,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// normalize brings a timestamp to the precision the database keeps.
func normalize(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func (s *Service) clock() time.Time {
	return normalize(s.now())
}

// nextToken returns a concurrency token that is guaranteed to differ from prev.
func (s *Service) nextToken(prev time.Time) time.Time {
	now := s.clock()
	if !now.After(prev) {
		now = prev.Add(time.Microsecond)
	}
	return now
}

func (s *Service) inFuture(t time.Time) bool {
	return t.After(s.clock().Add(s.tolerance))
}

// ---------------------------------------------------------------
// Queries
// ---------------------------------------------------------------

func (s *Service) ListPayments(ctx context.Context, filter store.PaymentFilter) ([]models.Payment, error) {
	payments, err := s.store.ListPayments(ctx, filter)
	if err != nil {
		return nil, persistenceError(store.Describe(err), err)
	}
	return payments, nil
}

func (s *Service) GetPayment(ctx context.Context, id uint) (*models.Payment, error) {
	return findPayment(ctx, s.store, id)
}

func findPayment(ctx context.Context, st store.Store, id uint) (*models.Payment, error) {
	p, err := st.FindPayment(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, newError(KindNotFound, "id", "Payment not found")
	}
	if err != nil {
		return nil, persistenceError(store.Describe(err), err)
	}
	return p, nil
}

// ---------------------------------------------------------------
// Payments
// ---------------------------------------------------------------

type references struct {
	desk        *models.CashDesk
	employee    *models.Employee
	paymentType models.PaymentType
}

// resolve checks the references and the enum of a payment command. The
// cash desk is checked first so a missing desk always wins.
func (s *Service) resolve(ctx context.Context, st store.Store, deskNumber, registrationNumber int, paymentType string, paymentDateTime time.Time) (references, error) {
	var refs references

	desk, err := st.FindCashDesk(ctx, deskNumber)
	if errors.Is(err, store.ErrNotFound) {
		return refs, newError(KindInvalidReference, "cashDeskNumber", "Invalid cash desk")
	}
	if err != nil {
		return refs, persistenceError(store.Describe(err), err)
	}

	employee, err := st.FindEmployee(ctx, registrationNumber)
	if errors.Is(err, store.ErrNotFound) {
		return refs, newError(KindInvalidReference, "employeeRegistrationNumber", "Invalid employee")
	}
	if err != nil {
		return refs, persistenceError(store.Describe(err), err)
	}

	pt, err := models.ParsePaymentType(paymentType)
	if err != nil {
		return refs, &Error{Kind: KindInvalidEnum, Field: "paymentType", Message: "Invalid payment type", Err: err}
	}

	if pt == models.PaymentTypeCreditCard && !employee.CanTakeCreditCard() {
		return refs, newError(KindInsufficientRights, "employeeRegistrationNumber", "Insufficient rights to create a credit card payment")
	}

	if s.inFuture(paymentDateTime) {
		return refs, newError(KindInvalidDate, "paymentDateTime", "Payment date is invalid")
	}

	refs.desk, refs.employee, refs.paymentType = desk, employee, pt
	return refs, nil
}

func (s *Service) CreatePayment(ctx context.Context, cmd NewPaymentCommand) (*models.Payment, error) {
	refs, err := s.resolve(ctx, s.store, cmd.CashDeskNumber, cmd.EmployeeRegistrationNumber, cmd.PaymentType, cmd.PaymentDateTime)
	if err != nil {
		return nil, err
	}

	p := &models.Payment{
		CashDeskNumber:             refs.desk.Number,
		EmployeeRegistrationNumber: refs.employee.RegistrationNumber,
		PaymentDateTime:            normalize(cmd.PaymentDateTime),
		PaymentType:                refs.paymentType,
		LastUpdated:                s.clock(),
	}
	if err := s.store.CreatePayment(ctx, p); err != nil {
		return nil, persistenceError(store.Describe(err), err)
	}
	p.CashDesk, p.Employee = refs.desk, refs.employee

	s.log.InfoContext(ctx, "payment created", "payment_id", p.ID, "cash_desk", p.CashDeskNumber, "type", p.PaymentType)
	return p, nil
}

// ConfirmPayment marks the payment as confirmed. A nil confirmed means now;
// an explicit value may not lie beyond the tolerance and is capped at now.
func (s *Service) ConfirmPayment(ctx context.Context, id uint, confirmed *time.Time) (*models.Payment, error) {
	p, err := findPayment(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	if p.IsConfirmed() {
		return nil, newError(KindAlreadyConfirmed, "confirmed", "Payment already confirmed")
	}

	now := s.clock()
	at := now
	if confirmed != nil {
		if s.inFuture(*confirmed) {
			return nil, newError(KindInvalidDate, "confirmed", fmt.Sprintf("The confirmed date cannot be more than %s in the future.", s.tolerance))
		}
		if c := normalize(*confirmed); c.Before(now) {
			at = c
		}
	}
	token := s.nextToken(p.LastUpdated)

	err = s.store.ConfirmPayment(ctx, id, at, token)
	if errors.Is(err, store.ErrConflict) {
		// someone else confirmed it after we read it
		return nil, newError(KindAlreadyConfirmed, "confirmed", "Payment already confirmed")
	}
	if err != nil {
		return nil, persistenceError(store.Describe(err), err)
	}

	p.Confirmed = &at
	p.LastUpdated = token
	s.log.InfoContext(ctx, "payment confirmed", "payment_id", id, "confirmed", at)
	return p, nil
}

func (s *Service) UpdatePayment(ctx context.Context, id uint, cmd UpdatePaymentCommand) (*models.Payment, error) {
	if id != cmd.ID {
		return nil, newError(KindIDMismatch, "id", "Payment ID mismatch")
	}

	var updated *models.Payment
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		p, err := findPayment(ctx, tx, id)
		if err != nil {
			return err
		}

		refs, err := s.resolve(ctx, tx, cmd.CashDeskNumber, cmd.EmployeeRegistrationNumber, cmd.PaymentType, cmd.PaymentDateTime)
		if err != nil {
			return err
		}

		if cmd.LastUpdated == nil {
			return newError(KindInvalidArgument, "lastUpdated", "lastUpdated is required")
		}
		if !normalize(*cmd.LastUpdated).Equal(p.LastUpdated) {
			return newError(KindConcurrencyConflict, "lastUpdated", "Payment has changed")
		}

		expected := p.LastUpdated
		p.CashDeskNumber = refs.desk.Number
		p.CashDesk = refs.desk
		p.EmployeeRegistrationNumber = refs.employee.RegistrationNumber
		p.Employee = refs.employee
		p.PaymentDateTime = normalize(cmd.PaymentDateTime)
		p.PaymentType = refs.paymentType
		p.LastUpdated = s.nextToken(expected)

		err = tx.UpdatePayment(ctx, p, expected)
		if errors.Is(err, store.ErrConflict) {
			return newError(KindConcurrencyConflict, "lastUpdated", "Payment has changed")
		}
		if err != nil {
			return persistenceError(store.Describe(err), err)
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, asServiceError(err)
	}

	s.log.InfoContext(ctx, "payment updated", "payment_id", id)
	return updated, nil
}

// DeletePayment removes the payment, and with deleteItems also its items,
// in one transaction. A missing payment is not an error; the returned
// payment is nil in that case.
func (s *Service) DeletePayment(ctx context.Context, id uint, deleteItems bool) (*models.Payment, error) {
	var deleted *models.Payment
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		p, err := tx.FindPayment(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return persistenceError(store.Describe(err), err)
		}

		if len(p.Items) > 0 {
			if !deleteItems {
				return newError(KindHasDependents, "deleteItems", "Payment has payment items")
			}
			if _, err := tx.DeletePaymentItems(ctx, id); err != nil {
				return persistenceError(store.Describe(err), err)
			}
		}

		if err := tx.DeletePayment(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
			return persistenceError(store.Describe(err), err)
		}
		deleted = p
		return nil
	})
	if err != nil {
		return nil, asServiceError(err)
	}

	if deleted != nil {
		s.log.InfoContext(ctx, "payment deleted", "payment_id", id, "items", len(deleted.Items))
	}
	return deleted, nil
}

// ---------------------------------------------------------------
// Payment items
// ---------------------------------------------------------------

func (s *Service) AddPaymentItem(ctx context.Context, cmd NewPaymentItemCommand) (*models.PaymentItem, error) {
	var item *models.PaymentItem
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		p, err := findPayment(ctx, tx, cmd.PaymentID)
		if err != nil {
			return err
		}
		if p.IsConfirmed() {
			return newError(KindAlreadyConfirmed, "paymentId", "Payment already confirmed")
		}

		if err := s.checkDuplicate(ctx, tx, p.ID, cmd.ArticleName); err != nil {
			return err
		}

		if err := validateItem(cmd.ArticleName, cmd.Amount, cmd.Price); err != nil {
			return err
		}

		item = &models.PaymentItem{
			PaymentID:   p.ID,
			ArticleName: strings.TrimSpace(cmd.ArticleName),
			Amount:      cmd.Amount,
			Price:       cmd.Price,
			LastUpdated: s.clock(),
		}
		if err := tx.CreatePaymentItem(ctx, item); err != nil {
			return persistenceError(store.Describe(err), err)
		}
		return nil
	})
	if err != nil {
		return nil, asServiceError(err)
	}

	s.log.InfoContext(ctx, "payment item added", "payment_id", item.PaymentID, "item_id", item.ID)
	return item, nil
}

func (s *Service) checkDuplicate(ctx context.Context, st store.Store, paymentID uint, articleName string) error {
	var exists bool
	switch s.itemPolicy {
	case ItemPolicyPerArticle:
		found, err := st.PaymentItemExists(ctx, paymentID, strings.TrimSpace(articleName))
		if err != nil {
			return persistenceError(store.Describe(err), err)
		}
		exists = found
	default:
		count, err := st.CountPaymentItems(ctx, paymentID)
		if err != nil {
			return persistenceError(store.Describe(err), err)
		}
		exists = count > 0
	}
	if exists {
		return newError(KindDuplicateItem, "articleName", "Payment item already exists for this payment")
	}
	return nil
}

// openItem loads an item together with its payment and refuses items of
// confirmed payments.
func openItem(ctx context.Context, st store.Store, id uint) (*models.PaymentItem, *models.Payment, error) {
	item, err := st.FindPaymentItem(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, newError(KindNotFound, "id", "Payment item not found")
	}
	if err != nil {
		return nil, nil, persistenceError(store.Describe(err), err)
	}
	p, err := findPayment(ctx, st, item.PaymentID)
	if err != nil {
		return nil, nil, err
	}
	if p.IsConfirmed() {
		return nil, nil, newError(KindAlreadyConfirmed, "paymentId", "Payment already confirmed")
	}
	return item, p, nil
}

func (s *Service) UpdatePaymentItem(ctx context.Context, id uint, cmd UpdatePaymentItemCommand) (*models.PaymentItem, error) {
	if id != cmd.ID {
		return nil, newError(KindIDMismatch, "id", "Payment item ID mismatch")
	}
	if err := validateItem(cmd.ArticleName, cmd.Amount, cmd.Price); err != nil {
		return nil, err
	}

	var updated *models.PaymentItem
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		item, p, err := openItem(ctx, tx, id)
		if err != nil {
			return err
		}

		if cmd.LastUpdated == nil {
			return newError(KindInvalidArgument, "lastUpdated", "lastUpdated is required")
		}
		if !normalize(*cmd.LastUpdated).Equal(item.LastUpdated) {
			return newError(KindConcurrencyConflict, "lastUpdated", "Payment item has changed")
		}

		name := strings.TrimSpace(cmd.ArticleName)
		if s.itemPolicy == ItemPolicyPerArticle && name != item.ArticleName {
			if err := s.checkDuplicate(ctx, tx, p.ID, name); err != nil {
				return err
			}
		}

		expected := item.LastUpdated
		item.ArticleName = name
		item.Amount = cmd.Amount
		item.Price = cmd.Price
		item.LastUpdated = s.nextToken(expected)

		err = tx.UpdatePaymentItem(ctx, item, expected)
		if errors.Is(err, store.ErrConflict) {
			return newError(KindConcurrencyConflict, "lastUpdated", "Payment item has changed")
		}
		if err != nil {
			return persistenceError(store.Describe(err), err)
		}
		updated = item
		return nil
	})
	if err != nil {
		return nil, asServiceError(err)
	}
	return updated, nil
}

func (s *Service) DeletePaymentItem(ctx context.Context, id uint) (*models.PaymentItem, error) {
	var deleted *models.PaymentItem
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		item, _, err := openItem(ctx, tx, id)
		if err != nil {
			return err
		}
		err = tx.DeletePaymentItem(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return newError(KindNotFound, "id", "Payment item not found")
		}
		if err != nil {
			return persistenceError(store.Describe(err), err)
		}
		deleted = item
		return nil
	})
	if err != nil {
		return nil, asServiceError(err)
	}

	s.log.InfoContext(ctx, "payment item deleted", "payment_id", deleted.PaymentID, "item_id", id)
	return deleted, nil
}

// asServiceError makes sure errors coming out of a transaction (commit
// failures for instance) carry a kind.
func asServiceError(err error) error {
	var perr *Error
	if errors.As(err, &perr) {
		return perr
	}
	return persistenceError(store.Describe(err), err)
}
