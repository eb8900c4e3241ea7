package audit

import (
	"context"
	"fmt"
	"log/slog"

	"cashdesk-backend/internal/auth"
	"cashdesk-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"gorm.io/gorm"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type LogOptions struct {
	UserID      uint
	UserName    string
	RequestID   string
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

type Logger struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewLogger(db *gorm.DB, log *slog.Logger) *Logger {
	if log == nil {
		log = slog.Default()
	}
	return &Logger{db: db, log: log}
}

// snapshot encodes v for a jsonb column. nil and values that fail to encode
// are stored as the JSON literal null; encoding failures are logged.
func (l *Logger) snapshot(opts LogOptions, which string, v any) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		l.log.Warn("audit snapshot could not be encoded",
			"entity_type", opts.EntityType, "entity_id", opts.EntityID, "snapshot", which, "error", err)
		return "null"
	}
	return string(b)
}

func (l *Logger) Write(ctx context.Context, opts LogOptions) error {
	beforeStr := l.snapshot(opts, "before", opts.Before)
	afterStr := l.snapshot(opts, "after", opts.After)

	entry := models.AuditLog{
		UserID:      opts.UserID,
		UserName:    opts.UserName,
		RequestID:   opts.RequestID,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  beforeStr,
		AfterData:   afterStr,
	}

	if err := l.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("audit log could not be saved: %w", err)
	}
	return nil
}

// Record fills the actor and request id from the request and writes the
// entry. A failing audit write never fails the request, it is only logged.
func (l *Logger) Record(c *fiber.Ctx, opts LogOptions) {
	opts.UserID, opts.UserName = auth.CurrentUser(c)
	if rid, ok := c.Locals("requestid").(string); ok {
		opts.RequestID = rid
	}

	if err := l.Write(c.UserContext(), opts); err != nil {
		l.log.Warn("audit log write failed", "entity_type", opts.EntityType, "entity_id", opts.EntityID, "error", err)
	}
}
