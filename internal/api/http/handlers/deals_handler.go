package handlers

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/backoffice/internal/api/dto"
	"github.com/spec-kit/backoffice/internal/domain"
	"github.com/spec-kit/backoffice/internal/service"
	apperrors "github.com/spec-kit/backoffice/pkg/util/errorutil"
)

// DealsHandler exposes the deal pipeline.
type DealsHandler struct {
	deals *service.DealService
	now   func() time.Time
}

// NewDealsHandler constructs handler.
func NewDealsHandler(deals *service.DealService) *DealsHandler {
	return &DealsHandler{deals: deals, now: time.Now}
}

// List handles GET /deals.
func (h *DealsHandler) List(c *fiber.Ctx) error {
	statuses, err := parseStatuses(c.Query("status"))
	if err != nil {
		return err
	}
	views, err := h.deals.List(c.UserContext(), actorFrom(c), service.DealListFilter{
		Search:          c.Query("search"),
		Statuses:        statuses,
		IncludeArchived: c.QueryBool("show_archived", false),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"deals":   mapSlice(views, dealViewResponse),
		"count":   len(views),
	})
}

// Create handles POST /deals.
func (h *DealsHandler) Create(c *fiber.Ctx) error {
	var req dto.DealRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	fields, err := dealFields(req)
	if err != nil {
		return err
	}
	deal, err := h.deals.Create(c.UserContext(), actorFrom(c), fields)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "deal": dealResponse(*deal)})
}

// Get handles GET /deals/:id.
func (h *DealsHandler) Get(c *fiber.Ctx) error {
	view, err := h.deals.Get(c.UserContext(), actorFrom(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "deal": dealViewResponse(*view)})
}

// Update handles PUT /deals/:id. The status field is ignored.
func (h *DealsHandler) Update(c *fiber.Ctx) error {
	var req dto.DealRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	fields, err := dealFields(req)
	if err != nil {
		return err
	}
	deal, err := h.deals.Update(c.UserContext(), actorFrom(c), c.Params("id"), fields)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "deal": dealResponse(*deal)})
}

// Delete handles DELETE /deals/:id.
func (h *DealsHandler) Delete(c *fiber.Ctx) error {
	if err := h.deals.Delete(c.UserContext(), actorFrom(c), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}

// SetStatus handles PUT /deals/:id/status.
func (h *DealsHandler) SetStatus(c *fiber.Ctx) error {
	var req dto.DealStatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	deal, err := h.deals.SetStatus(c.UserContext(), actorFrom(c), c.Params("id"), req.Status, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "deal": dealResponse(*deal)})
}

// Reopen handles PUT /deals/:id/reopen.
func (h *DealsHandler) Reopen(c *fiber.Ctx) error {
	deal, err := h.deals.Reopen(c.UserContext(), actorFrom(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "deal": dealResponse(*deal)})
}

// Archive handles PUT /deals/:id/archive.
func (h *DealsHandler) Archive(c *fiber.Ctx) error {
	var req dto.DealArchiveRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Archived == nil {
		return apperrors.NewValidationError("archived is required", map[string]any{"field": "archived"})
	}
	deal, err := h.deals.Archive(c.UserContext(), actorFrom(c), c.Params("id"), *req.Archived)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "deal": dealResponse(*deal)})
}

// History handles GET /deals/:id/history.
func (h *DealsHandler) History(c *fiber.Ctx) error {
	history, err := h.deals.History(c.UserContext(), actorFrom(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "history": mapSlice(history, historyResponse)})
}

// Export handles GET /deals/export and streams a CSV attachment.
func (h *DealsHandler) Export(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if _, err := h.deals.Export(c.UserContext(), actorFrom(c), &buf, c.QueryBool("show_archived", false)); err != nil {
		return err
	}
	filename := fmt.Sprintf("deals-%s.csv", h.now().UTC().Format("20060102"))
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(buf.Bytes())
}

func parseStatuses(raw string) ([]domain.DealStatus, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "all" {
		return nil, nil
	}
	var statuses []domain.DealStatus
	for _, part := range strings.Split(raw, ",") {
		status, ok := domain.ParseDealStatus(strings.TrimSpace(part))
		if !ok {
			return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": part})
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func dealFields(req dto.DealRequest) (service.DealFields, error) {
	fields := service.DealFields{
		Title:        req.Title,
		Organization: req.Organization,
		ContactName:  req.ContactName,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
		Value:        req.Value,
		QualityLead:  req.QualityLead,
		Status:       req.Status,
		Margin:       req.Margin,
		ProposalType: req.ProposalType,
		Channel:      req.Channel,
		Notes:        req.Notes,
	}
	due, dueSet, err := parseDate("due_date", req.DueDate)
	if err != nil {
		return fields, err
	}
	delivery, deliverySet, err := parseDate("delivery_date", req.DeliveryDate)
	if err != nil {
		return fields, err
	}
	fields.DueDate = due
	fields.ClearDueDate = dueSet && due == nil
	fields.DeliveryDate = delivery
	fields.ClearDeliveryDate = deliverySet && delivery == nil
	return fields, nil
}
