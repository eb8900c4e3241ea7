package server

import (
	"errors"
	"log/slog"

	"cashdesk-backend/internal/payment"

	"github.com/gofiber/fiber/v2"
)

// ProblemResponse is the body of every error response.
type ProblemResponse struct {
	Error  string              `json:"error"`
	Status int                 `json:"status"`
	Kind   string              `json:"kind,omitempty"`
	Errors map[string][]string `json:"errors,omitempty"`
}

func statusForKind(kind payment.ErrorKind) int {
	switch kind {
	case payment.KindNotFound:
		return fiber.StatusNotFound
	case payment.KindInsufficientRights:
		return fiber.StatusForbidden
	default:
		return fiber.StatusBadRequest
	}
}

func errorHandler(log *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var perr *payment.Error
		if errors.As(err, &perr) {
			status := statusForKind(perr.Kind)
			res := ProblemResponse{
				Error:  perr.Message,
				Status: status,
				Kind:   string(perr.Kind),
			}
			if perr.Field != "" {
				res.Errors = map[string][]string{perr.Field: {perr.Message}}
			}
			if perr.Kind == payment.KindPersistenceFailure {
				log.Warn("persistence failure", "path", c.Path(), "error", perr.Err)
			}
			return c.Status(status).JSON(res)
		}

		var ferr *fiber.Error
		if errors.As(err, &ferr) {
			return c.Status(ferr.Code).JSON(ProblemResponse{
				Error:  ferr.Message,
				Status: ferr.Code,
			})
		}

		log.Error("unexpected error", "method", c.Method(), "path", c.Path(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ProblemResponse{
			Error:  "Unexpected server error",
			Status: fiber.StatusInternalServerError,
		})
	}
}
