package dto

import (
	"time"

	"github.com/spec-kit/backoffice/internal/domain"
)

// ActivityRequest schedules a follow-up. ScheduledDate uses YYYY-MM-DD and
// ScheduledTime HH:MM.
type ActivityRequest struct {
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	Type          domain.ActivityType `json:"activity_type"`
	ScheduledDate string              `json:"scheduled_date"`
	ScheduledTime *string             `json:"scheduled_time"`
	AssignedTo    *string             `json:"assigned_to"`
}

// ActivityResponse is an activity as returned by the API.
type ActivityResponse struct {
	ID            string                `json:"id"`
	DealID        string                `json:"deal_id"`
	Title         string                `json:"title"`
	Description   string                `json:"description"`
	Type          domain.ActivityType   `json:"activity_type"`
	Status        domain.ActivityStatus `json:"status"`
	ScheduledDate string                `json:"scheduled_date"`
	ScheduledTime *string               `json:"scheduled_time"`
	CompletedAt   *time.Time            `json:"completed_at"`
	CreatedBy     string                `json:"created_by"`
	AssignedTo    *string               `json:"assigned_to"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// NoteRequest adds a note.
type NoteRequest struct {
	Content string `json:"content"`
}

// NoteResponse is a note as returned by the API.
type NoteResponse struct {
	ID        string    `json:"id"`
	DealID    string    `json:"deal_id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
