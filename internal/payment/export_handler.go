package payment

import (
	"bytes"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	paymentsSheet = "Payments"
	itemsSheet    = "Items"
	xlsxMimeType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var (
	paymentsHeader = []interface{}{"ID", "Date", "Cash desk", "Employee", "Type", "Confirmed", "Articles", "Total"}
	itemsHeader    = []interface{}{"Payment ID", "Item ID", "Article", "Amount", "Price", "Line total"}
)

// -------------------------------------------------
// GET /api/payments/export?cashDesk=1&dateFrom=2025-02-01
// -------------------------------------------------
func ExportPaymentsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		filter, err := parseFilter(c)
		if err != nil {
			return err
		}

		payments, err := svc.ListPayments(c.UserContext(), filter)
		if err != nil {
			return err
		}

		f := excelize.NewFile()
		defer f.Close()

		// NewFile starts with "Sheet1"
		if err := f.SetSheetName("Sheet1", paymentsSheet); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Export could not be created")
		}
		if _, err := f.NewSheet(itemsSheet); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Export could not be created")
		}

		if err := f.SetSheetRow(paymentsSheet, "A1", &paymentsHeader); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Export could not be created")
		}
		if err := f.SetSheetRow(itemsSheet, "A1", &itemsHeader); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Export could not be created")
		}

		itemRow := 2
		for i := range payments {
			p := &payments[i]
			first, last := employeeName(p)
			confirmed := ""
			if p.Confirmed != nil {
				confirmed = p.Confirmed.Format(time.RFC3339)
			}
			row := []interface{}{
				p.ID,
				p.PaymentDateTime.Format(time.RFC3339),
				p.CashDeskNumber,
				first + " " + last,
				string(p.PaymentType),
				confirmed,
				p.TotalAmount(),
				p.TotalPrice().InexactFloat64(),
			}
			if err := f.SetSheetRow(paymentsSheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Export could not be created")
			}

			for _, it := range p.Items {
				line := []interface{}{
					p.ID,
					it.ID,
					it.ArticleName,
					it.Amount,
					it.Price.InexactFloat64(),
					it.Price.Mul(decimal.NewFromInt(int64(it.Amount))).InexactFloat64(),
				}
				if err := f.SetSheetRow(itemsSheet, fmt.Sprintf("A%d", itemRow), &line); err != nil {
					return fiber.NewError(fiber.StatusInternalServerError, "Export could not be created")
				}
				itemRow++
			}
		}

		var buf bytes.Buffer
		if err := f.Write(&buf); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Export could not be written")
		}

		c.Attachment(fmt.Sprintf("payments-%s.xlsx", time.Now().Format("20060102")))
		c.Set(fiber.HeaderContentType, xlsxMimeType)
		return c.Send(buf.Bytes())
	}
}
