package payment

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	MaxArticleNameLength = 255
	MaxItemAmount        = 999999
)

var (
	MinItemPrice = decimal.RequireFromString("0.01")
	MaxItemPrice = decimal.RequireFromString("999999.99")
)

type NewPaymentCommand struct {
	CashDeskNumber             int       `json:"cashDeskNumber"`
	PaymentDateTime            time.Time `json:"paymentDateTime"`
	PaymentType                string    `json:"paymentType"`
	EmployeeRegistrationNumber int       `json:"employeeRegistrationNumber"`
}

type UpdatePaymentCommand struct {
	ID                         uint       `json:"id"`
	CashDeskNumber             int        `json:"cashDeskNumber"`
	PaymentDateTime            time.Time  `json:"paymentDateTime"`
	PaymentType                string     `json:"paymentType"`
	EmployeeRegistrationNumber int        `json:"employeeRegistrationNumber"`
	LastUpdated                *time.Time `json:"lastUpdated"`
}

type NewPaymentItemCommand struct {
	ArticleName string          `json:"articleName"`
	Amount      int             `json:"amount"`
	Price       decimal.Decimal `json:"price"`
	PaymentID   uint            `json:"paymentId"`
}

type UpdatePaymentItemCommand struct {
	ID          uint            `json:"id"`
	ArticleName string          `json:"articleName"`
	Amount      int             `json:"amount"`
	Price       decimal.Decimal `json:"price"`
	LastUpdated *time.Time      `json:"lastUpdated"`
}

func validateItem(articleName string, amount int, price decimal.Decimal) error {
	name := strings.TrimSpace(articleName)
	switch {
	case name == "":
		return newError(KindInvalidArgument, "articleName", "Article name is required")
	case utf8.RuneCountInString(name) > MaxArticleNameLength:
		return newError(KindInvalidArgument, "articleName", "Invalid article name")
	case amount <= 0:
		return newError(KindInvalidArgument, "amount", "Amount must be greater than zero")
	case amount > MaxItemAmount:
		return newError(KindInvalidArgument, "amount", "Invalid amount")
	case !price.IsPositive():
		return newError(KindInvalidArgument, "price", "Price must be greater than zero")
	case price.LessThan(MinItemPrice) || price.GreaterThan(MaxItemPrice):
		return newError(KindInvalidArgument, "price", "Invalid price")
	}
	return nil
}
