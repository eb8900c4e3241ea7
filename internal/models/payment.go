package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentType string

const (
	PaymentTypeCash       PaymentType = "Cash"
	PaymentTypeMaestro    PaymentType = "Maestro"
	PaymentTypeCreditCard PaymentType = "CreditCard"
)

var paymentTypes = []PaymentType{PaymentTypeCash, PaymentTypeMaestro, PaymentTypeCreditCard}

// ParsePaymentType matches the enum name exactly (case sensitive).
func ParsePaymentType(s string) (PaymentType, error) {
	for _, t := range paymentTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown payment type %q", s)
}

type Payment struct {
	ID                         uint        `gorm:"primaryKey"`
	CashDeskNumber             int         `gorm:"index;not null"`
	CashDesk                   *CashDesk   `gorm:"foreignKey:CashDeskNumber;references:Number;constraint:OnDelete:RESTRICT"`
	EmployeeRegistrationNumber int         `gorm:"index;not null"`
	Employee                   *Employee   `gorm:"foreignKey:EmployeeRegistrationNumber;references:RegistrationNumber;constraint:OnDelete:RESTRICT"`
	PaymentDateTime            time.Time   `gorm:"index;not null"`
	PaymentType                PaymentType `gorm:"size:20;not null"`
	Confirmed                  *time.Time  // nil = unconfirmed
	LastUpdated                time.Time   `gorm:"not null"` // optimistic concurrency token
	CreatedAt                  time.Time
	UpdatedAt                  time.Time

	Items []PaymentItem `gorm:"constraint:OnDelete:RESTRICT"`
}

func (p Payment) IsConfirmed() bool {
	return p.Confirmed != nil
}

// TotalAmount is the number of articles across all items.
func (p Payment) TotalAmount() int {
	total := 0
	for _, it := range p.Items {
		total += it.Amount
	}
	return total
}

// TotalPrice sums amount*price across all items.
func (p Payment) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, it := range p.Items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Amount))))
	}
	return total
}

type PaymentItem struct {
	ID          uint            `gorm:"primaryKey"`
	PaymentID   uint            `gorm:"index;not null"`
	ArticleName string          `gorm:"size:255;not null"`
	Amount      int             `gorm:"not null"`
	Price       decimal.Decimal `gorm:"type:decimal(9,2);not null"`
	LastUpdated time.Time       `gorm:"not null"` // optimistic concurrency token
}
