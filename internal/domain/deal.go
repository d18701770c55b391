package domain

import "time"

// DealStatus enumerates pipeline stages.
type DealStatus string

const (
	DealStatusGeneralProspecting    DealStatus = "Prospección General"
	DealStatusContingentProspecting DealStatus = "Prospección Contingente"
	DealStatusStudy                 DealStatus = "Estudio"
	DealStatusDelivered             DealStatus = "Entregadas"
	DealStatusNegotiation           DealStatus = "Negociación"
	DealStatusWon                   DealStatus = "Ganado"
	DealStatusLost                  DealStatus = "Perdido"
)

// DealStatuses lists pipeline stages in board order.
var DealStatuses = []DealStatus{
	DealStatusGeneralProspecting,
	DealStatusContingentProspecting,
	DealStatusStudy,
	DealStatusDelivered,
	DealStatusNegotiation,
	DealStatusWon,
	DealStatusLost,
}

const (
	// DefaultQualityLead is assigned when a deal is created without a score.
	DefaultQualityLead = 1
	MinQualityLead     = 1
	MaxQualityLead     = 5

	// ReopenReason is recorded on the history row written by a reopen.
	ReopenReason = "Deal reabierto"
)

// ParseDealStatus resolves a raw stage name.
func ParseDealStatus(raw string) (DealStatus, bool) {
	for _, status := range DealStatuses {
		if string(status) == raw {
			return status, true
		}
	}
	return "", false
}

// Valid reports whether s is a known stage.
func (s DealStatus) Valid() bool {
	_, ok := ParseDealStatus(string(s))
	return ok
}

// Closed reports whether s is one of the conventional end stages. The data
// layer does not enforce it.
func (s DealStatus) Closed() bool {
	return s == DealStatusWon || s == DealStatusLost
}

// Deal is a tracked sales opportunity.
type Deal struct {
	ID           string
	Title        string
	Organization string
	ContactName  string
	ContactEmail string
	ContactPhone string
	Value        float64
	QualityLead  int
	Status       DealStatus
	Margin       *float64
	ProposalType *string
	Channel      *string
	DueDate      *time.Time
	DeliveryDate *time.Time
	Notes        string
	Archived     bool
	CreatedBy    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DealStatusHistory records a single stage change.
type DealStatusHistory struct {
	ID        string
	DealID    string
	OldStatus *DealStatus
	NewStatus DealStatus
	ChangedBy string
	Reason    *string
	CreatedAt time.Time
}

// DealNote is an immutable annotation on a deal.
type DealNote struct {
	ID        string
	DealID    string
	AuthorID  string
	Content   string
	CreatedAt time.Time
}
