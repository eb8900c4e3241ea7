package admin

import (
	"errors"
	"fmt"

	"cashdesk-backend/internal/audit"
	"cashdesk-backend/internal/models"
	"cashdesk-backend/internal/store"

	"github.com/gofiber/fiber/v2"
)

type CreateEmployeeRequest struct {
	RegistrationNumber int                 `json:"registrationNumber"`
	FirstName          string              `json:"firstName"`
	LastName           string              `json:"lastName"`
	Address            models.Address      `json:"address"`
	Type               models.EmployeeType `json:"type"`
	JobSpecialisation  string              `json:"jobSpecialisation"` // cashier only
	CarType            string              `json:"carType"`           // manager only
}

func (r CreateEmployeeRequest) build() (models.Employee, error) {
	switch r.Type {
	case models.EmployeeTypeCashier:
		if r.CarType != "" {
			return models.Employee{}, errors.New("carType is only allowed for managers")
		}
		return models.NewCashier(r.RegistrationNumber, r.FirstName, r.LastName, r.Address, r.JobSpecialisation)
	case models.EmployeeTypeManager:
		if r.JobSpecialisation != "" {
			return models.Employee{}, errors.New("jobSpecialisation is only allowed for cashiers")
		}
		return models.NewManager(r.RegistrationNumber, r.FirstName, r.LastName, r.Address, r.CarType)
	default:
		return models.Employee{}, fmt.Errorf("invalid employee type %q (Cashier|Manager)", r.Type)
	}
}

// ----------------------------------------
// EMPLOYEES
// ----------------------------------------

func CreateEmployeeHandler(st store.Store, auditLog *audit.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateEmployeeRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		employee, err := body.build()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		ctx := c.UserContext()
		_, err = st.FindEmployee(ctx, employee.RegistrationNumber)
		if err == nil {
			return fiber.NewError(fiber.StatusBadRequest, "Registration number is already taken")
		}
		if !errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusInternalServerError, "Employee could not be created")
		}

		if err := st.CreateEmployee(ctx, &employee); err != nil {
			if store.IsUniqueViolation(err) {
				return fiber.NewError(fiber.StatusBadRequest, "Registration number is already taken")
			}
			return fiber.NewError(fiber.StatusBadRequest, store.Describe(err))
		}

		auditLog.Record(c, audit.LogOptions{
			EntityType:  "employee",
			EntityID:    uint(employee.RegistrationNumber),
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("%s %s %s created", employee.Type, employee.FirstName, employee.LastName),
			After:       employee,
		})

		return c.Status(fiber.StatusCreated).JSON(employee)
	}
}

func ListEmployeesHandler(st store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		employees, err := st.ListEmployees(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Employees could not be listed")
		}
		if employees == nil {
			employees = []models.Employee{}
		}
		return c.JSON(employees)
	}
}
