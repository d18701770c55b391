package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/backoffice/internal/api/dto"
	"github.com/spec-kit/backoffice/internal/service"
)

// ActivitiesHandler exposes follow-up activities and notes.
type ActivitiesHandler struct {
	activities *service.ActivityService
}

// NewActivitiesHandler constructs handler.
func NewActivitiesHandler(activities *service.ActivityService) *ActivitiesHandler {
	return &ActivitiesHandler{activities: activities}
}

// List handles GET /deals/:id/activities.
func (h *ActivitiesHandler) List(c *fiber.Ctx) error {
	activities, err := h.activities.List(c.UserContext(), actorFrom(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "activities": mapSlice(activities, activityResponse)})
}

// Create handles POST /deals/:id/activities.
func (h *ActivitiesHandler) Create(c *fiber.Ctx) error {
	var req dto.ActivityRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	scheduled, _, err := parseDate("scheduled_date", &req.ScheduledDate)
	if err != nil {
		return err
	}
	activity, err := h.activities.Create(c.UserContext(), actorFrom(c), c.Params("id"), service.ActivityInput{
		Title:         req.Title,
		Description:   req.Description,
		Type:          req.Type,
		ScheduledDate: scheduled,
		ScheduledTime: req.ScheduledTime,
		AssignedTo:    req.AssignedTo,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "activity": activityResponse(*activity)})
}

// Get handles GET /activities/:id.
func (h *ActivitiesHandler) Get(c *fiber.Ctx) error {
	activity, err := h.activities.Get(c.UserContext(), actorFrom(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "activity": activityResponse(*activity)})
}

// Complete handles PUT /activities/:id/complete.
func (h *ActivitiesHandler) Complete(c *fiber.Ctx) error {
	activity, err := h.activities.Complete(c.UserContext(), actorFrom(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "activity": activityResponse(*activity)})
}

// Cancel handles PUT /activities/:id/cancel.
func (h *ActivitiesHandler) Cancel(c *fiber.Ctx) error {
	activity, err := h.activities.Cancel(c.UserContext(), actorFrom(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "activity": activityResponse(*activity)})
}

// ListNotes handles GET /deals/:id/notes.
func (h *ActivitiesHandler) ListNotes(c *fiber.Ctx) error {
	notes, err := h.activities.ListNotes(c.UserContext(), actorFrom(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "notes": mapSlice(notes, noteResponse)})
}

// AddNote handles POST /deals/:id/notes.
func (h *ActivitiesHandler) AddNote(c *fiber.Ctx) error {
	var req dto.NoteRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	note, err := h.activities.AddNote(c.UserContext(), actorFrom(c), c.Params("id"), req.Content)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "note": noteResponse(*note)})
}
