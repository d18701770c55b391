package dto

import (
	"time"

	"github.com/spec-kit/backoffice/internal/domain"
)

// DealRequest is the create/update payload. Omitted fields stay untouched
// on update. Dates use YYYY-MM-DD.
type DealRequest struct {
	Title        *string            `json:"title"`
	Organization *string            `json:"organization"`
	ContactName  *string            `json:"contact_name"`
	ContactEmail *string            `json:"contact_email"`
	ContactPhone *string            `json:"contact_phone"`
	Value        *float64           `json:"value"`
	QualityLead  *int               `json:"quality_lead"`
	Status       *domain.DealStatus `json:"status"`
	Margin       *float64           `json:"margin"`
	ProposalType *string            `json:"proposal_type"`
	Channel      *string            `json:"channel"`
	DueDate      *string            `json:"due_date"`
	DeliveryDate *string            `json:"delivery_date"`
	Notes        *string            `json:"notes"`
}

// DealStatusRequest changes a deal's stage.
type DealStatusRequest struct {
	Status domain.DealStatus `json:"status"`
	Reason string            `json:"reason"`
}

// DealArchiveRequest toggles the archived flag.
type DealArchiveRequest struct {
	Archived *bool `json:"archived"`
}

// DealResponse is a deal as returned by the API.
type DealResponse struct {
	ID             string               `json:"id"`
	Title          string               `json:"title"`
	Organization   string               `json:"organization"`
	ContactName    string               `json:"contact_name"`
	ContactEmail   string               `json:"contact_email"`
	ContactPhone   string               `json:"contact_phone"`
	Value          float64              `json:"value"`
	QualityLead    int                  `json:"quality_lead"`
	Status         domain.DealStatus    `json:"status"`
	Margin         *float64             `json:"margin"`
	ProposalType   *string              `json:"proposal_type"`
	Channel        *string              `json:"channel"`
	DueDate        *string              `json:"due_date"`
	DeliveryDate   *string              `json:"delivery_date"`
	Notes          string               `json:"notes"`
	Archived       bool                 `json:"archived"`
	CreatedBy      string               `json:"created_by"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
	NextActivity   *ActivityResponse    `json:"next_activity,omitempty"`
	ActivityStatus domain.FollowUpState `json:"activity_status,omitempty"`
}

// DealHistoryResponse is one stage change.
type DealHistoryResponse struct {
	ID        string             `json:"id"`
	DealID    string             `json:"deal_id"`
	OldStatus *domain.DealStatus `json:"old_status"`
	NewStatus domain.DealStatus  `json:"new_status"`
	ChangedBy string             `json:"changed_by"`
	Reason    *string            `json:"reason"`
	CreatedAt time.Time          `json:"created_at"`
}
