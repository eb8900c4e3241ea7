package store_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"cashdesk-backend/internal/models"
	"cashdesk-backend/internal/store"
	"cashdesk-backend/internal/testutil"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func Test_GormStore_FindCashDesk(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.SeedBasics(t, db)
	s := store.NewGormStore(db)
	ctx := context.Background()

	desk, err := s.FindCashDesk(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, desk.Number)

	_, err = s.FindCashDesk(ctx, 999)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func Test_GormStore_FindEmployee_KeepsVariantColumns(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.SeedBasics(t, db)
	s := store.NewGormStore(db)
	ctx := context.Background()

	cashier, err := s.FindEmployee(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.EmployeeTypeCashier, cashier.Type)
	require.NotNil(t, cashier.JobSpecialisation)
	assert.Nil(t, cashier.CarType)

	manager, err := s.FindEmployee(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, models.EmployeeTypeManager, manager.Type)
	require.NotNil(t, manager.CarType)
	assert.Equal(t, "Kombi", *manager.CarType)
	assert.Equal(t, "Wien", manager.Address.City)
}

func Test_GormStore_FindPayment_PreloadsRelations(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.SeedBasics(t, db)
	s := store.NewGormStore(db)

	p := testutil.InsertPayment(t, db, 1, 1, models.PaymentTypeCash, nil)
	testutil.InsertItem(t, db, p.ID, "Cola", 2, "1.50")
	testutil.InsertItem(t, db, p.ID, "Chips", 1, "2.00")

	got, err := s.FindPayment(context.Background(), p.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Employee)
	require.NotNil(t, got.CashDesk)
	assert.Equal(t, "John", got.Employee.FirstName)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Cola", got.Items[0].ArticleName)
	assert.Equal(t, 3, got.TotalAmount())
	assert.True(t, got.TotalPrice().Equal(decimal.NewFromInt(5)))

	_, err = s.FindPayment(context.Background(), 999)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func Test_GormStore_ListPayments_Filters(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.SeedBasics(t, db)
	require.NoError(t, db.Create(&models.CashDesk{Number: 2}).Error)
	s := store.NewGormStore(db)
	ctx := context.Background()

	old := testutil.InsertPayment(t, db, 1, 1, models.PaymentTypeCash, nil)
	require.NoError(t, db.Model(&old).Update("payment_date_time", testutil.Now().Add(-48*time.Hour)).Error)
	testutil.InsertPayment(t, db, 1, 2, models.PaymentTypeMaestro, nil)
	testutil.InsertPayment(t, db, 2, 2, models.PaymentTypeCreditCard, nil)

	all, err := s.ListPayments(ctx, store.PaymentFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	desk := 1
	byDesk, err := s.ListPayments(ctx, store.PaymentFilter{CashDesk: &desk})
	require.NoError(t, err)
	assert.Len(t, byDesk, 2)

	from := testutil.Now().Add(-24 * time.Hour)
	recent, err := s.ListPayments(ctx, store.PaymentFilter{CashDesk: &desk, DateFrom: &from})
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, models.PaymentTypeMaestro, recent[0].PaymentType)
}

func Test_GormStore_UpdatePayment_CompareAndSwap(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.SeedBasics(t, db)
	s := store.NewGormStore(db)
	ctx := context.Background()

	p := testutil.InsertPayment(t, db, 1, 1, models.PaymentTypeCash, nil)
	stored, err := s.FindPayment(ctx, p.ID)
	require.NoError(t, err)

	stale := stored.LastUpdated.Add(-time.Second)
	upd := *stored
	upd.PaymentType = models.PaymentTypeMaestro
	upd.LastUpdated = stored.LastUpdated.Add(time.Second)

	err = s.UpdatePayment(ctx, &upd, stale)
	assert.ErrorIs(t, err, store.ErrConflict)

	require.NoError(t, s.UpdatePayment(ctx, &upd, stored.LastUpdated))

	after, err := s.FindPayment(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentTypeMaestro, after.PaymentType)
	assert.True(t, after.LastUpdated.Equal(upd.LastUpdated))

	// the old token is spent now
	err = s.UpdatePayment(ctx, &upd, stored.LastUpdated)
	assert.ErrorIs(t, err, store.ErrConflict)
}

func Test_GormStore_ConfirmPayment_OnlyOnce(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.SeedBasics(t, db)
	s := store.NewGormStore(db)
	ctx := context.Background()

	p := testutil.InsertPayment(t, db, 1, 1, models.PaymentTypeCash, nil)
	first := testutil.Now()

	require.NoError(t, s.ConfirmPayment(ctx, p.ID, first, first))
	err := s.ConfirmPayment(ctx, p.ID, first.Add(time.Second), first.Add(time.Second))
	assert.ErrorIs(t, err, store.ErrConflict)

	got, err := s.FindPayment(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Confirmed)
	assert.True(t, got.Confirmed.Equal(first))
}

func Test_GormStore_DeletePayment_AfterItems(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.SeedBasics(t, db)
	s := store.NewGormStore(db)
	ctx := context.Background()

	p := testutil.InsertPayment(t, db, 1, 1, models.PaymentTypeCash, nil)
	testutil.InsertItem(t, db, p.ID, "Cola", 1, "1.00")

	n, err := s.DeletePaymentItems(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.NoError(t, s.DeletePayment(ctx, p.ID))

	assert.ErrorIs(t, s.DeletePayment(ctx, p.ID), store.ErrNotFound)
}

func Test_GormStore_Transaction_RollsBack(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.SeedBasics(t, db)
	s := store.NewGormStore(db)
	ctx := context.Background()

	p := testutil.InsertPayment(t, db, 1, 1, models.PaymentTypeCash, nil)
	testutil.InsertItem(t, db, p.ID, "Cola", 1, "1.00")

	boom := errors.New("boom")
	err := s.Transaction(ctx, func(tx store.Store) error {
		if _, err := tx.DeletePaymentItems(ctx, p.ID); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	count, err := s.CountPaymentItems(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func Test_GormStore_FindPayment_LocksInsideTransaction(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.SeedBasics(t, db)
	s := store.NewGormStore(db)
	ctx := context.Background()

	var locked []bool
	err := db.Callback().Query().Before("gorm:query").Register("test:payment_lock", func(tx *gorm.DB) {
		if tx.Statement.Table == "payments" {
			_, ok := tx.Statement.Clauses["FOR"]
			locked = append(locked, ok)
		}
	})
	require.NoError(t, err)

	p := testutil.InsertPayment(t, db, 1, 1, models.PaymentTypeCash, nil)

	_, err = s.FindPayment(ctx, p.ID)
	require.NoError(t, err)

	err = s.Transaction(ctx, func(tx store.Store) error {
		found, err := tx.FindPayment(ctx, p.ID)
		if err != nil {
			return err
		}
		assert.Equal(t, p.ID, found.ID)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []bool{false, true}, locked)
}

func Test_GormStore_PaymentItems(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.SeedBasics(t, db)
	s := store.NewGormStore(db)
	ctx := context.Background()

	p := testutil.InsertPayment(t, db, 1, 1, models.PaymentTypeCash, nil)
	it := testutil.InsertItem(t, db, p.ID, "Cola", 2, "1.50")

	exists, err := s.PaymentItemExists(ctx, p.ID, "Cola")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.PaymentItemExists(ctx, p.ID, "Chips")
	require.NoError(t, err)
	assert.False(t, exists)

	stored, err := s.FindPaymentItem(ctx, it.ID)
	require.NoError(t, err)
	assert.True(t, stored.Price.Equal(it.Price))

	upd := *stored
	upd.Amount = 5
	upd.LastUpdated = stored.LastUpdated.Add(time.Second)
	assert.ErrorIs(t, s.UpdatePaymentItem(ctx, &upd, stored.LastUpdated.Add(-time.Second)), store.ErrConflict)
	require.NoError(t, s.UpdatePaymentItem(ctx, &upd, stored.LastUpdated))

	require.NoError(t, s.DeletePaymentItem(ctx, it.ID))
	assert.ErrorIs(t, s.DeletePaymentItem(ctx, it.ID), store.ErrNotFound)
}

func Test_Describe_FallsBackToErrorText(t *testing.T) {
	assert.Equal(t, "", store.Describe(nil))
	assert.Equal(t, "plain", store.Describe(errors.New("plain")))
	assert.False(t, store.IsConstraintViolation(errors.New("plain")))
}

func Test_ConstraintHelpers(t *testing.T) {
	unique := fmt.Errorf("create cash desk: %w", &pgconn.PgError{
		Code:           "23505",
		Message:        "duplicate key value violates unique constraint \"cash_desks_pkey\"",
		Detail:         "Key (number)=(1) already exists.",
		ConstraintName: "cash_desks_pkey",
	})
	assert.True(t, store.IsUniqueViolation(unique))
	assert.True(t, store.IsConstraintViolation(unique))
	assert.Equal(t, "cash_desks_pkey", store.ConstraintName(unique))
	assert.Equal(t, "duplicate key value violates unique constraint \"cash_desks_pkey\": Key (number)=(1) already exists.", store.Describe(unique))

	fk := &pgconn.PgError{Code: "23503", ConstraintName: "fk_payments_cash_desk"}
	assert.False(t, store.IsUniqueViolation(fk))
	assert.True(t, store.IsConstraintViolation(fk))

	syntax := &pgconn.PgError{Code: "42601"}
	assert.False(t, store.IsConstraintViolation(syntax))
	assert.Equal(t, "", store.ConstraintName(errors.New("plain")))
}
