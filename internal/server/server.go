// Package server assembles the Fiber application: middleware, error
// handling and routes.
package server

import (
	"log/slog"
	"strings"

	"cashdesk-backend/internal/admin"
	"cashdesk-backend/internal/audit"
	"cashdesk-backend/internal/auth"
	"cashdesk-backend/internal/config"
	"cashdesk-backend/internal/dashboard"
	"cashdesk-backend/internal/models"
	"cashdesk-backend/internal/payment"
	"cashdesk-backend/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"gorm.io/gorm"
)

type Deps struct {
	Config *config.Config
	DB     *gorm.DB
	Logger *slog.Logger
	// AccessLog turns on the per-request access log.
	AccessLog bool
}

func New(deps Deps) *fiber.App {
	cfg, db, log := deps.Config, deps.DB, deps.Logger
	if log == nil {
		log = slog.Default()
	}

	json := jsoniter.ConfigCompatibleWithStandardLibrary
	app := fiber.New(fiber.Config{
		AppName:      "cashdesk-backend",
		ErrorHandler: errorHandler(log),
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	if deps.AccessLog {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
		}))
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.CORSOriginList(), ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))

	st := store.NewGormStore(db)
	svc := payment.NewService(st,
		payment.WithTolerance(cfg.ConfirmTolerance),
		payment.WithItemPolicy(payment.ItemPolicy(cfg.ItemPolicy)),
		payment.WithLogger(log),
	)
	auditLog := audit.NewLogger(db, log)

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(db))
	api.Post("/auth/login", auth.LoginHandler(db, cfg.JWTSecret))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg.JWTSecret))

	protected.Get("/auth/me", auth.MeHandler(db))

	// Payments
	protected.Get("/payments", payment.ListPaymentsHandler(svc))
	protected.Get("/payments/export", payment.ExportPaymentsHandler(svc))
	protected.Get("/payments/:id", payment.GetPaymentHandler(svc))
	protected.Post("/payments", payment.CreatePaymentHandler(svc, auditLog))
	protected.Put("/payments/:id", payment.UpdatePaymentHandler(svc, auditLog))
	protected.Patch("/payments/:id", payment.ConfirmPaymentHandler(svc, auditLog))
	protected.Delete("/payments/:id", payment.DeletePaymentHandler(svc, auditLog))

	// Payment items
	protected.Post("/payments/:id/items", payment.AddPaymentItemHandler(svc, auditLog))
	protected.Put("/paymentItems/:id", payment.UpdatePaymentItemHandler(svc, auditLog))
	protected.Delete("/paymentItems/:id", payment.DeletePaymentItemHandler(svc, auditLog))

	// Dashboard
	protected.Get("/dashboard/payment-chart", dashboard.PaymentChartHandler(svc))

	// Admin routes
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))

	adminRoutes.Get("/cashdesks", admin.ListCashDesksHandler(st))
	adminRoutes.Post("/cashdesks", admin.CreateCashDeskHandler(st, auditLog))
	adminRoutes.Get("/employees", admin.ListEmployeesHandler(st))
	adminRoutes.Post("/employees", admin.CreateEmployeeHandler(st, auditLog))
	adminRoutes.Post("/users", admin.CreateOperatorHandler(db))

	// Audit logs
	protected.Get("/audit-logs", auth.RequireRole(models.RoleAdmin), audit.ListAuditLogsHandler(db))

	return app
}
