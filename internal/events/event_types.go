package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/backoffice/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventDealCreated       EventType = "deal_created"
	EventDealStatusChanged EventType = "deal_status_changed"
	EventDealDeleted       EventType = "deal_deleted"
	EventActivityScheduled EventType = "activity_scheduled"
	EventSubscriberJoined  EventType = "subscriber_joined"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	DealID     string      `json:"deal_id,omitempty"`
	ActorEmail string      `json:"actor_email"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload"`
}

// New stamps an event with a fresh id and the current time.
func New(eventType EventType, dealID, actorEmail string, payload interface{}) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		DealID:     dealID,
		ActorEmail: actorEmail,
		Timestamp:  time.Now().UTC(),
		Payload:    payload,
	}
}

// DealCreatedPayload payload.
type DealCreatedPayload struct {
	Title        string            `json:"title"`
	Organization string            `json:"organization"`
	Value        float64           `json:"value"`
	Status       domain.DealStatus `json:"status"`
}

// DealStatusChangedPayload payload.
type DealStatusChangedPayload struct {
	Title     string            `json:"title"`
	OldStatus domain.DealStatus `json:"old_status"`
	NewStatus domain.DealStatus `json:"new_status"`
	Value     float64           `json:"value"`
	Reason    string            `json:"reason,omitempty"`
}

// DealDeletedPayload payload.
type DealDeletedPayload struct {
	Title string `json:"title"`
}

// ActivityScheduledPayload payload.
type ActivityScheduledPayload struct {
	ActivityID    string              `json:"activity_id"`
	DealTitle     string              `json:"deal_title"`
	Title         string              `json:"title"`
	Type          domain.ActivityType `json:"type"`
	ScheduledDate time.Time           `json:"scheduled_date"`
	ScheduledTime *string             `json:"scheduled_time,omitempty"`
}

// SubscriberJoinedPayload payload.
type SubscriberJoinedPayload struct {
	Email  string `json:"email"`
	Source string `json:"source"`
}
