package models

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ParsePaymentType(t *testing.T) {
	for _, s := range []string{"Cash", "Maestro", "CreditCard"} {
		pt, err := ParsePaymentType(s)
		require.NoError(t, err)
		assert.Equal(t, PaymentType(s), pt)
	}

	for _, s := range []string{"", "cash", "CREDITCARD", "Bitcoin"} {
		_, err := ParsePaymentType(s)
		assert.Error(t, err, s)
	}
}

func Test_NewCashier(t *testing.T) {
	e, err := NewCashier(1, " John ", "Doe", Address{City: "Wien"}, "General")
	require.NoError(t, err)
	assert.Equal(t, EmployeeTypeCashier, e.Type)
	assert.Equal(t, "John", e.FirstName)
	require.NotNil(t, e.JobSpecialisation)
	assert.Nil(t, e.CarType)
	assert.False(t, e.CanTakeCreditCard())

	_, err = NewCashier(0, "John", "Doe", Address{}, "")
	assert.ErrorIs(t, err, ErrInvalidRegistrationNumber)

	_, err = NewCashier(1, " ", "Doe", Address{}, "")
	assert.ErrorIs(t, err, ErrEmptyEmployeeName)
}

func Test_NewManager(t *testing.T) {
	e, err := NewManager(2, "Jane", "Smith", Address{}, "Kombi")
	require.NoError(t, err)
	assert.Equal(t, EmployeeTypeManager, e.Type)
	assert.True(t, e.IsManager())
	assert.True(t, e.CanTakeCreditCard())
	assert.Nil(t, e.JobSpecialisation)

	_, err = NewManager(2, "Jane", "Smith", Address{}, strings.Repeat("x", 26))
	assert.ErrorIs(t, err, ErrCarTypeTooLong)

	// the limit is in characters, not bytes
	e, err = NewManager(2, "Jane", "Smith", Address{}, strings.Repeat("Ö", 25))
	require.NoError(t, err)
	require.NotNil(t, e.CarType)
	assert.Equal(t, strings.Repeat("Ö", 25), *e.CarType)

	_, err = NewManager(2, "Jane", "Smith", Address{}, strings.Repeat("Ö", 26))
	assert.ErrorIs(t, err, ErrCarTypeTooLong)
}

func Test_Payment_Totals(t *testing.T) {
	p := Payment{Items: []PaymentItem{
		{Amount: 2, Price: decimal.RequireFromString("1.25")},
		{Amount: 1, Price: decimal.RequireFromString("0.50")},
	}}

	assert.Equal(t, 3, p.TotalAmount())
	assert.True(t, p.TotalPrice().Equal(decimal.RequireFromString("3.00")))
	assert.False(t, p.IsConfirmed())
}
