package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/backoffice/internal/api/dto"
	"github.com/spec-kit/backoffice/internal/domain"
	"github.com/spec-kit/backoffice/internal/repository"
	"github.com/spec-kit/backoffice/internal/service"
)

// SubscribersHandler exposes the mailing list, both the admin surface and
// the public newsletter form.
type SubscribersHandler struct {
	subscribers *service.SubscriberService
}

// NewSubscribersHandler constructs handler.
func NewSubscribersHandler(subscribers *service.SubscriberService) *SubscribersHandler {
	return &SubscribersHandler{subscribers: subscribers}
}

// List handles GET /subscribers.
func (h *SubscribersHandler) List(c *fiber.Ctx) error {
	filter := repository.SubscriberFilter{Search: c.Query("search")}
	if raw := strings.TrimSpace(c.Query("status")); raw != "all" {
		filter.Status = domain.SubscriberStatus(raw)
	}
	subscribers, err := h.subscribers.List(c.UserContext(), actorFrom(c), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": mapSlice(subscribers, subscriberResponse)})
}

// Stats handles GET /subscribers/stats.
func (h *SubscribersHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.subscribers.Stats(c.UserContext(), actorFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": dto.SubscriberStatsResponse{
		Total:        stats.Total,
		Active:       stats.Active,
		Unsubscribed: stats.Unsubscribed,
	}})
}

// Create handles POST /subscribers.
func (h *SubscribersHandler) Create(c *fiber.Ctx) error {
	var req dto.SubscriberRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	subscriber, err := h.subscribers.Create(c.UserContext(), actorFrom(c), subscriberInput(req))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": subscriberResponse(*subscriber)})
}

// Update handles PATCH /subscribers/:id.
func (h *SubscribersHandler) Update(c *fiber.Ctx) error {
	var req dto.SubscriberRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	subscriber, err := h.subscribers.Update(c.UserContext(), actorFrom(c), c.Params("id"), subscriberInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": subscriberResponse(*subscriber)})
}

// Delete handles DELETE /subscribers/:id.
func (h *SubscribersHandler) Delete(c *fiber.Ctx) error {
	if err := h.subscribers.Delete(c.UserContext(), actorFrom(c), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}

// Subscribe handles POST /newsletter/subscribe.
func (h *SubscribersHandler) Subscribe(c *fiber.Ctx) error {
	var req dto.NewsletterRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if _, err := h.subscribers.Subscribe(c.UserContext(), clientMeta(c), req.Email, req.Name, req.Source); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "message": "subscribed"})
}

// Unsubscribe handles POST /newsletter/unsubscribe.
func (h *SubscribersHandler) Unsubscribe(c *fiber.Ctx) error {
	var req dto.NewsletterRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.subscribers.Unsubscribe(c.UserContext(), req.Email); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "message": "unsubscribed"})
}

func subscriberInput(req dto.SubscriberRequest) service.SubscriberInput {
	return service.SubscriberInput{
		Email:  req.Email,
		Name:   req.Name,
		Status: req.Status,
		Source: req.Source,
	}
}
