package domain

import "time"

// SubscriberStatus enumerates mailing-list membership states.
type SubscriberStatus string

const (
	SubscriberActive       SubscriberStatus = "active"
	SubscriberUnsubscribed SubscriberStatus = "unsubscribed"
)

// Valid reports whether s is a recognized subscriber status.
func (s SubscriberStatus) Valid() bool {
	return s == SubscriberActive || s == SubscriberUnsubscribed
}

// DefaultSubscriberSource tags sign-ups coming from the public site.
const DefaultSubscriberSource = "website"

// Subscriber is a newsletter list entry. Email is stored lower-cased.
type Subscriber struct {
	ID        string
	Email     string
	Name      *string
	Status    SubscriberStatus
	Source    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SubscriberStats counts subscribers by status.
type SubscriberStats struct {
	Total        int64
	Active       int64
	Unsubscribed int64
}
