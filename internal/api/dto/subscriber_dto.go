package dto

import (
	"time"

	"github.com/spec-kit/backoffice/internal/domain"
)

// SubscriberRequest is the admin create/update payload.
type SubscriberRequest struct {
	Email  *string                  `json:"email"`
	Name   *string                  `json:"name"`
	Status *domain.SubscriberStatus `json:"status"`
	Source *string                  `json:"source"`
}

// NewsletterRequest is the public sign-up payload.
type NewsletterRequest struct {
	Email  string  `json:"email"`
	Name   *string `json:"name"`
	Source string  `json:"source"`
}

// SubscriberResponse is a subscriber as returned by the API.
type SubscriberResponse struct {
	ID        string                  `json:"id"`
	Email     string                  `json:"email"`
	Name      *string                 `json:"name"`
	Status    domain.SubscriberStatus `json:"status"`
	Source    string                  `json:"source"`
	CreatedAt time.Time               `json:"created_at"`
	UpdatedAt time.Time               `json:"updated_at"`
}

// SubscriberStatsResponse counts subscribers by status.
type SubscriberStatsResponse struct {
	Total        int64 `json:"total"`
	Active       int64 `json:"active"`
	Unsubscribed int64 `json:"unsubscribed"`
}
