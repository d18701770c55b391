package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/backoffice/internal/api/dto"
	"github.com/spec-kit/backoffice/internal/audit"
	"github.com/spec-kit/backoffice/internal/service"
)

// LogsHandler exposes the audit log.
type LogsHandler struct {
	logs *service.AuditLogService
}

// NewLogsHandler constructs handler.
func NewLogsHandler(logs *service.AuditLogService) *LogsHandler {
	return &LogsHandler{logs: logs}
}

// List handles GET /logs?limit=.
func (h *LogsHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", audit.DefaultListLimit)
	page, err := h.logs.Recent(c.UserContext(), actorFrom(c), limit)
	if err != nil {
		return err
	}
	byAction := page.Stats.ByAction
	if byAction == nil {
		byAction = map[string]int64{}
	}
	return c.JSON(fiber.Map{
		"success": true,
		"logs":    mapSlice(page.Logs, auditLogResponse),
		"stats": dto.AuditStatsResponse{
			Total:    page.Stats.Total,
			Last24h:  page.Stats.Last24h,
			ByAction: byAction,
		},
	})
}
