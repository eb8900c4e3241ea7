package admin

import (
	"errors"
	"fmt"

	"cashdesk-backend/internal/audit"
	"cashdesk-backend/internal/models"
	"cashdesk-backend/internal/store"

	"github.com/gofiber/fiber/v2"
)

type CreateCashDeskRequest struct {
	Number int `json:"number"`
}

type CashDeskResponse struct {
	Number    int    `json:"number"`
	CreatedAt string `json:"created_at"`
}

func toCashDeskResponse(d models.CashDesk) CashDeskResponse {
	return CashDeskResponse{
		Number:    d.Number,
		CreatedAt: d.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// ----------------------------------------
// CASH DESKS
// ----------------------------------------

func CreateCashDeskHandler(st store.Store, auditLog *audit.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateCashDeskRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.Number <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid cash desk number")
		}

		ctx := c.UserContext()
		_, err := st.FindCashDesk(ctx, body.Number)
		if err == nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cash desk already exists")
		}
		if !errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusInternalServerError, "Cash desk could not be created")
		}

		desk := models.CashDesk{Number: body.Number}
		if err := st.CreateCashDesk(ctx, &desk); err != nil {
			// a concurrent create won the race
			if store.IsUniqueViolation(err) {
				return fiber.NewError(fiber.StatusBadRequest, "Cash desk already exists")
			}
			return fiber.NewError(fiber.StatusBadRequest, store.Describe(err))
		}

		auditLog.Record(c, audit.LogOptions{
			EntityType:  "cash_desk",
			EntityID:    uint(desk.Number),
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Cash desk %d created", desk.Number),
			After:       desk,
		})

		return c.Status(fiber.StatusCreated).JSON(toCashDeskResponse(desk))
	}
}

func ListCashDesksHandler(st store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		desks, err := st.ListCashDesks(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Cash desks could not be listed")
		}

		res := make([]CashDeskResponse, 0, len(desks))
		for _, d := range desks {
			res = append(res, toCashDeskResponse(d))
		}
		return c.JSON(res)
	}
}
