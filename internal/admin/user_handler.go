package admin

import (
	"cashdesk-backend/internal/auth"
	"cashdesk-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// CreateOperatorHandler lets an admin create an operator account that may
// work with payments but not with the master data.
func CreateOperatorHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body auth.RegisterRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		user, err := auth.CreateUser(db.WithContext(c.UserContext()), body, models.RoleOperator)
		if err != nil {
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(auth.UserResponse{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
			Role:  user.Role,
		})
	}
}
