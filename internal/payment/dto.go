package payment

import (
	"time"

	"cashdesk-backend/internal/models"

	"github.com/shopspring/decimal"
)

type PaymentSummaryResponse struct {
	ID                uint               `json:"id"`
	EmployeeFirstName string             `json:"employeeFirstName"`
	EmployeeLastName  string             `json:"employeeLastName"`
	PaymentDateTime   time.Time          `json:"paymentDateTime"`
	CashDeskNumber    int                `json:"cashDeskNumber"`
	PaymentType       models.PaymentType `json:"paymentType"`
	Confirmed         *time.Time         `json:"confirmed"`
	TotalAmount       int                `json:"totalAmount"`
	TotalPrice        decimal.Decimal    `json:"totalPrice"`
}

type PaymentItemResponse struct {
	ID          uint            `json:"id"`
	ArticleName string          `json:"articleName"`
	Amount      int             `json:"amount"`
	Price       decimal.Decimal `json:"price"`
	LastUpdated time.Time       `json:"lastUpdated"`
}

type PaymentDetailResponse struct {
	ID                         uint                  `json:"id"`
	EmployeeRegistrationNumber int                   `json:"employeeRegistrationNumber"`
	EmployeeFirstName          string                `json:"employeeFirstName"`
	EmployeeLastName           string                `json:"employeeLastName"`
	CashDeskNumber             int                   `json:"cashDeskNumber"`
	PaymentType                models.PaymentType    `json:"paymentType"`
	PaymentDateTime            time.Time             `json:"paymentDateTime"`
	Confirmed                  *time.Time            `json:"confirmed"`
	LastUpdated                time.Time             `json:"lastUpdated"`
	PaymentItems               []PaymentItemResponse `json:"paymentItems"`
}

func employeeName(p *models.Payment) (string, string) {
	if p.Employee == nil {
		return "", ""
	}
	return p.Employee.FirstName, p.Employee.LastName
}

func toSummary(p *models.Payment) PaymentSummaryResponse {
	first, last := employeeName(p)
	return PaymentSummaryResponse{
		ID:                p.ID,
		EmployeeFirstName: first,
		EmployeeLastName:  last,
		PaymentDateTime:   p.PaymentDateTime,
		CashDeskNumber:    p.CashDeskNumber,
		PaymentType:       p.PaymentType,
		Confirmed:         p.Confirmed,
		TotalAmount:       p.TotalAmount(),
		TotalPrice:        p.TotalPrice(),
	}
}

func toItem(it *models.PaymentItem) PaymentItemResponse {
	return PaymentItemResponse{
		ID:          it.ID,
		ArticleName: it.ArticleName,
		Amount:      it.Amount,
		Price:       it.Price,
		LastUpdated: it.LastUpdated,
	}
}

func toDetail(p *models.Payment) PaymentDetailResponse {
	first, last := employeeName(p)
	items := make([]PaymentItemResponse, 0, len(p.Items))
	for i := range p.Items {
		items = append(items, toItem(&p.Items[i]))
	}
	return PaymentDetailResponse{
		ID:                         p.ID,
		EmployeeRegistrationNumber: p.EmployeeRegistrationNumber,
		EmployeeFirstName:          first,
		EmployeeLastName:           last,
		CashDeskNumber:             p.CashDeskNumber,
		PaymentType:                p.PaymentType,
		PaymentDateTime:            p.PaymentDateTime,
		Confirmed:                  p.Confirmed,
		LastUpdated:                p.LastUpdated,
		PaymentItems:               items,
	}
}

// auditSnapshot is the payment as written to the audit log, without the
// preloaded relations.
func auditSnapshot(p *models.Payment) map[string]interface{} {
	return map[string]interface{}{
		"id":                           p.ID,
		"cash_desk_number":             p.CashDeskNumber,
		"employee_registration_number": p.EmployeeRegistrationNumber,
		"payment_date_time":            p.PaymentDateTime,
		"payment_type":                 p.PaymentType,
		"confirmed":                    p.Confirmed,
		"last_updated":                 p.LastUpdated,
		"items":                        len(p.Items),
	}
}

func itemSnapshot(it *models.PaymentItem) map[string]interface{} {
	return map[string]interface{}{
		"id":           it.ID,
		"payment_id":   it.PaymentID,
		"article_name": it.ArticleName,
		"amount":       it.Amount,
		"price":        it.Price,
		"last_updated": it.LastUpdated,
	}
}
