package payment

import (
	"fmt"
	"strconv"
	"time"

	"cashdesk-backend/internal/audit"
	"cashdesk-backend/internal/models"
	"cashdesk-backend/internal/store"

	"github.com/gofiber/fiber/v2"
)

type ConfirmPaymentRequest struct {
	Confirmed *time.Time `json:"confirmed"`
}

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid id")
	}
	return uint(id), nil
}

// parseFilter reads ?cashDesk=1&dateFrom=2025-02-24 (or an RFC 3339 timestamp).
func parseFilter(c *fiber.Ctx) (store.PaymentFilter, error) {
	var filter store.PaymentFilter

	if s := c.Query("cashDesk"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return filter, fiber.NewError(fiber.StatusBadRequest, "cashDesk must be a number")
		}
		filter.CashDesk = &n
	}

	if s := c.Query("dateFrom"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			t, err = time.Parse("2006-01-02", s)
		}
		if err != nil {
			return filter, fiber.NewError(fiber.StatusBadRequest, "dateFrom must be 'YYYY-MM-DD' or an RFC 3339 timestamp")
		}
		filter.DateFrom = &t
	}

	return filter, nil
}

// -------------------------------------------------
// GET /api/payments?cashDesk=1&dateFrom=2025-02-24
// -------------------------------------------------
func ListPaymentsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		filter, err := parseFilter(c)
		if err != nil {
			return err
		}

		payments, err := svc.ListPayments(c.UserContext(), filter)
		if err != nil {
			return err
		}

		res := make([]PaymentSummaryResponse, 0, len(payments))
		for i := range payments {
			res = append(res, toSummary(&payments[i]))
		}
		return c.JSON(res)
	}
}

// -------------------------------------------------
// GET /api/payments/:id
// -------------------------------------------------
func GetPaymentHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}

		p, err := svc.GetPayment(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(toDetail(p))
	}
}

// -------------------------------------------------
// POST /api/payments
// -------------------------------------------------
func CreatePaymentHandler(svc *Service, auditLog *audit.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body NewPaymentCommand
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		p, err := svc.CreatePayment(c.UserContext(), body)
		if err != nil {
			return err
		}

		auditLog.Record(c, audit.LogOptions{
			EntityType:  "payment",
			EntityID:    p.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Payment created at cash desk %d (%s)", p.CashDeskNumber, p.PaymentType),
			After:       auditSnapshot(p),
		})

		c.Location(fmt.Sprintf("/api/payments/%d", p.ID))
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": p.ID})
	}
}

// -------------------------------------------------
// PUT /api/payments/:id
// -------------------------------------------------
func UpdatePaymentHandler(svc *Service, auditLog *audit.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}

		var body UpdatePaymentCommand
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		before, err := svc.GetPayment(c.UserContext(), id)
		if err != nil && KindOf(err) != KindNotFound {
			return err
		}
		var beforeData any
		if before != nil {
			beforeData = auditSnapshot(before)
		}

		p, err := svc.UpdatePayment(c.UserContext(), id, body)
		if err != nil {
			return err
		}

		auditLog.Record(c, audit.LogOptions{
			EntityType:  "payment",
			EntityID:    p.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Payment %d updated", p.ID),
			Before:      beforeData,
			After:       auditSnapshot(p),
		})

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// -------------------------------------------------
// PATCH /api/payments/:id   body: {"confirmed": "..."} (optional)
// -------------------------------------------------
func ConfirmPaymentHandler(svc *Service, auditLog *audit.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}

		var body ConfirmPaymentRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&body); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
			}
		}

		p, err := svc.ConfirmPayment(c.UserContext(), id, body.Confirmed)
		if err != nil {
			return err
		}

		auditLog.Record(c, audit.LogOptions{
			EntityType:  "payment",
			EntityID:    p.ID,
			Action:      models.AuditActionConfirm,
			Description: fmt.Sprintf("Payment %d confirmed", p.ID),
			After:       auditSnapshot(p),
		})

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// -------------------------------------------------
// DELETE /api/payments/:id?deleteItems=true
// -------------------------------------------------
func DeletePaymentHandler(svc *Service, auditLog *audit.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}

		deleted, err := svc.DeletePayment(c.UserContext(), id, c.QueryBool("deleteItems", false))
		if err != nil {
			return err
		}

		if deleted != nil {
			auditLog.Record(c, audit.LogOptions{
				EntityType:  "payment",
				EntityID:    deleted.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Payment %d deleted with %d items", deleted.ID, len(deleted.Items)),
				Before:      auditSnapshot(deleted),
			})
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// -------------------------------------------------
// POST /api/payments/:id/items
// -------------------------------------------------
func AddPaymentItemHandler(svc *Service, auditLog *audit.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}

		var body NewPaymentItemCommand
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.PaymentID != 0 && body.PaymentID != id {
			return newError(KindIDMismatch, "paymentId", "Payment ID mismatch")
		}
		body.PaymentID = id

		item, err := svc.AddPaymentItem(c.UserContext(), body)
		if err != nil {
			return err
		}

		auditLog.Record(c, audit.LogOptions{
			EntityType:  "payment_item",
			EntityID:    item.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Item %q added to payment %d", item.ArticleName, item.PaymentID),
			After:       itemSnapshot(item),
		})

		return c.Status(fiber.StatusCreated).JSON(toItem(item))
	}
}

// -------------------------------------------------
// PUT /api/paymentItems/:id
// -------------------------------------------------
func UpdatePaymentItemHandler(svc *Service, auditLog *audit.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}

		var body UpdatePaymentItemCommand
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		item, err := svc.UpdatePaymentItem(c.UserContext(), id, body)
		if err != nil {
			return err
		}

		auditLog.Record(c, audit.LogOptions{
			EntityType:  "payment_item",
			EntityID:    item.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Item %d of payment %d updated", item.ID, item.PaymentID),
			After:       itemSnapshot(item),
		})

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// -------------------------------------------------
// DELETE /api/paymentItems/:id
// -------------------------------------------------
func DeletePaymentItemHandler(svc *Service, auditLog *audit.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}

		item, err := svc.DeletePaymentItem(c.UserContext(), id)
		if err != nil {
			return err
		}

		auditLog.Record(c, audit.LogOptions{
			EntityType:  "payment_item",
			EntityID:    item.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Item %q removed from payment %d", item.ArticleName, item.PaymentID),
			Before:      itemSnapshot(item),
		})

		return c.SendStatus(fiber.StatusNoContent)
	}
}
