package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/backoffice/internal/audit"
	"github.com/spec-kit/backoffice/internal/auth"
	"github.com/spec-kit/backoffice/internal/domain"
	"github.com/spec-kit/backoffice/internal/events"
	"github.com/spec-kit/backoffice/internal/repository"
	apperrors "github.com/spec-kit/backoffice/pkg/util/errorutil"
)

// DealService coordinates the sales pipeline.
type DealService struct {
	deals      repository.DealRepository
	history    repository.DealHistoryRepository
	activities repository.ActivityRepository
	recorder   *audit.Recorder
	dispatcher events.Dispatcher
	now        func() time.Time
}

// DealDependencies bundles collaborators for the deal service.
type DealDependencies struct {
	DealRepo     repository.DealRepository
	HistoryRepo  repository.DealHistoryRepository
	ActivityRepo repository.ActivityRepository
	Recorder     *audit.Recorder
	Dispatcher   events.Dispatcher
	Now          func() time.Time
}

// DealFields carries deal attributes. Nil fields are left untouched on
// update and defaulted on create.
type DealFields struct {
	Title        *string
	Organization *string
	ContactName  *string
	ContactEmail *string
	ContactPhone *string
	Value        *float64
	QualityLead  *int
	Status       *domain.DealStatus
	Margin       *float64
	ProposalType *string
	Channel      *string
	DueDate      *time.Time
	DeliveryDate *time.Time
	Notes        *string

	// ClearDueDate and ClearDeliveryDate unset the dates on update.
	ClearDueDate      bool
	ClearDeliveryDate bool
}

// DealListFilter describes pipeline listing parameters.
type DealListFilter struct {
	Search          string
	Statuses        []domain.DealStatus
	IncludeArchived bool
}

// DealView is a deal with its derived follow-up state.
type DealView struct {
	domain.Deal
	NextActivity   *domain.Activity
	ActivityStatus domain.FollowUpState
}

// NewDealService constructs the service.
func NewDealService(deps DealDependencies) *DealService {
	return &DealService{
		deals:      deps.DealRepo,
		history:    deps.HistoryRepo,
		activities: deps.ActivityRepo,
		recorder:   deps.Recorder,
		dispatcher: deps.Dispatcher,
		now:        clockOrDefault(deps.Now),
	}
}

// Create opens a new deal. Status defaults to general prospecting and the
// quality lead score to 1.
func (s *DealService) Create(ctx context.Context, actor Actor, fields DealFields) (*domain.Deal, error) {
	if err := actor.authorize(auth.OpManageDeals); err != nil {
		return nil, err
	}
	if fields.Title == nil || strings.TrimSpace(*fields.Title) == "" {
		return nil, apperrors.NewValidationError("title is required", map[string]any{"field": "title"})
	}

	deal := &domain.Deal{
		Status:      domain.DealStatusGeneralProspecting,
		QualityLead: domain.DefaultQualityLead,
		CreatedBy:   actor.Email(),
	}
	if err := applyDealFields(deal, fields, true); err != nil {
		return nil, err
	}

	if err := s.deals.Create(ctx, deal); err != nil {
		return nil, storeError(err, "deal")
	}

	record(s.recorder, actor, audit.ActionCreateDeal, "deal:"+deal.ID,
		fmt.Sprintf("title=%q status=%q value=%.2f", deal.Title, deal.Status, deal.Value))
	publish(ctx, s.dispatcher, events.New(events.EventDealCreated, deal.ID, actor.Email(), events.DealCreatedPayload{
		Title:        deal.Title,
		Organization: deal.Organization,
		Value:        deal.Value,
		Status:       deal.Status,
	}))
	return deal, nil
}

// Get returns a deal with its next pending activity.
func (s *DealService) Get(ctx context.Context, actor Actor, id string) (*DealView, error) {
	if err := actor.authorize(auth.OpViewDeals); err != nil {
		return nil, err
	}
	deal, err := s.deals.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "deal")
	}
	activities, err := s.activities.ListByDeal(ctx, id)
	if err != nil {
		return nil, storeError(err, "activity")
	}
	view := s.view(*deal, activities)
	return &view, nil
}

// List returns deals ordered by most recent update, each with its derived
// follow-up state.
func (s *DealService) List(ctx context.Context, actor Actor, filter DealListFilter) ([]DealView, error) {
	if err := actor.authorize(auth.OpViewDeals); err != nil {
		return nil, err
	}
	deals, err := s.deals.List(ctx, repository.DealFilter{
		Search:          filter.Search,
		Statuses:        filter.Statuses,
		IncludeArchived: filter.IncludeArchived,
	})
	if err != nil {
		return nil, storeError(err, "deal")
	}

	ids := make([]string, len(deals))
	for i, deal := range deals {
		ids[i] = deal.ID
	}
	pending, err := s.activities.ListPendingByDeals(ctx, ids)
	if err != nil {
		return nil, storeError(err, "activity")
	}

	views := make([]DealView, 0, len(deals))
	for _, deal := range deals {
		views = append(views, s.view(deal, pending[deal.ID]))
	}
	return views, nil
}

// Update merges the provided fields. Status is ignored here so every stage
// change goes through SetStatus and leaves a history row.
func (s *DealService) Update(ctx context.Context, actor Actor, id string, fields DealFields) (*domain.Deal, error) {
	if err := actor.authorize(auth.OpManageDeals); err != nil {
		return nil, err
	}
	deal, err := s.deals.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "deal")
	}
	if err := applyDealFields(deal, fields, false); err != nil {
		return nil, err
	}
	if err := s.deals.Update(ctx, deal); err != nil {
		return nil, storeError(err, "deal")
	}

	record(s.recorder, actor, audit.ActionUpdateDeal, "deal:"+deal.ID, fmt.Sprintf("title=%q", deal.Title))
	return deal, nil
}

// SetStatus moves the deal to status and appends one history row. Any
// stage may follow any other.
func (s *DealService) SetStatus(ctx context.Context, actor Actor, id string, status domain.DealStatus, reason string) (*domain.Deal, error) {
	if err := actor.authorize(auth.OpManageDeals); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": string(status)})
	}
	return s.transition(ctx, actor, id, status, reason, audit.ActionChangeDealStatus)
}

// Reopen resets the deal to general prospecting regardless of its stage.
func (s *DealService) Reopen(ctx context.Context, actor Actor, id string) (*domain.Deal, error) {
	if err := actor.authorize(auth.OpManageDeals); err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, id, domain.DealStatusGeneralProspecting, domain.ReopenReason, audit.ActionReopenDeal)
}

// Archive hides or restores a deal. It is not a status change.
func (s *DealService) Archive(ctx context.Context, actor Actor, id string, archived bool) (*domain.Deal, error) {
	if err := actor.authorize(auth.OpManageDeals); err != nil {
		return nil, err
	}
	deal, err := s.deals.SetArchived(ctx, id, archived)
	if err != nil {
		return nil, storeError(err, "deal")
	}
	record(s.recorder, actor, audit.ActionArchiveDeal, "deal:"+id, fmt.Sprintf("archived=%t", archived))
	return deal, nil
}

// Delete removes the deal together with its activities, notes and history.
func (s *DealService) Delete(ctx context.Context, actor Actor, id string) error {
	if err := actor.authorize(auth.OpManageDeals); err != nil {
		return err
	}
	deal, err := s.deals.GetByID(ctx, id)
	if err != nil {
		return storeError(err, "deal")
	}
	if err := s.deals.Delete(ctx, id); err != nil {
		return storeError(err, "deal")
	}

	record(s.recorder, actor, audit.ActionDeleteDeal, "deal:"+id, fmt.Sprintf("title=%q", deal.Title))
	publish(ctx, s.dispatcher, events.New(events.EventDealDeleted, id, actor.Email(), events.DealDeletedPayload{Title: deal.Title}))
	return nil
}

// History lists status changes of a deal, newest first.
func (s *DealService) History(ctx context.Context, actor Actor, id string) ([]domain.DealStatusHistory, error) {
	if err := actor.authorize(auth.OpViewDeals); err != nil {
		return nil, err
	}
	if _, err := s.deals.GetByID(ctx, id); err != nil {
		return nil, storeError(err, "deal")
	}
	history, err := s.history.ListByDeal(ctx, id)
	if err != nil {
		return nil, storeError(err, "deal history")
	}
	return history, nil
}

func (s *DealService) transition(ctx context.Context, actor Actor, id string, status domain.DealStatus, reason, action string) (*domain.Deal, error) {
	var reasonPtr *string
	if trimmed := strings.TrimSpace(reason); trimmed != "" {
		reasonPtr = &trimmed
	}

	deal, entry, err := s.deals.UpdateStatus(ctx, id, status, actor.Email(), reasonPtr)
	if err != nil {
		return nil, storeError(err, "deal")
	}

	var old domain.DealStatus
	if entry.OldStatus != nil {
		old = *entry.OldStatus
	}
	record(s.recorder, actor, action, "deal:"+id, fmt.Sprintf("%s -> %s", old, status))
	publish(ctx, s.dispatcher, events.New(events.EventDealStatusChanged, id, actor.Email(), events.DealStatusChangedPayload{
		Title:     deal.Title,
		OldStatus: old,
		NewStatus: status,
		Value:     deal.Value,
		Reason:    strings.TrimSpace(reason),
	}))
	return deal, nil
}

func (s *DealService) view(deal domain.Deal, activities []domain.Activity) DealView {
	next, state := domain.DeriveFollowUp(s.now(), activities)
	return DealView{Deal: deal, NextActivity: next, ActivityStatus: state}
}

func applyDealFields(deal *domain.Deal, fields DealFields, creating bool) error {
	if fields.Title != nil {
		title := strings.TrimSpace(*fields.Title)
		if title == "" {
			return apperrors.NewValidationError("title is required", map[string]any{"field": "title"})
		}
		deal.Title = title
	}
	if fields.Organization != nil {
		deal.Organization = strings.TrimSpace(*fields.Organization)
	}
	if fields.ContactName != nil {
		deal.ContactName = strings.TrimSpace(*fields.ContactName)
	}
	if fields.ContactEmail != nil {
		deal.ContactEmail = strings.TrimSpace(*fields.ContactEmail)
	}
	if fields.ContactPhone != nil {
		deal.ContactPhone = strings.TrimSpace(*fields.ContactPhone)
	}
	if fields.Value != nil {
		if *fields.Value < 0 {
			return apperrors.NewValidationError("value must be non-negative", map[string]any{"field": "value"})
		}
		deal.Value = *fields.Value
	}
	if fields.QualityLead != nil {
		if *fields.QualityLead < domain.MinQualityLead || *fields.QualityLead > domain.MaxQualityLead {
			return apperrors.NewValidationError(
				fmt.Sprintf("quality_lead must be between %d and %d", domain.MinQualityLead, domain.MaxQualityLead),
				map[string]any{"field": "quality_lead"})
		}
		deal.QualityLead = *fields.QualityLead
	}
	if creating && fields.Status != nil {
		if !fields.Status.Valid() {
			return apperrors.NewValidationError("invalid status", map[string]any{"status": string(*fields.Status)})
		}
		deal.Status = *fields.Status
	}
	if fields.Margin != nil {
		if *fields.Margin < 0 {
			return apperrors.NewValidationError("margin must be non-negative", map[string]any{"field": "margin"})
		}
		margin := *fields.Margin
		deal.Margin = &margin
	}
	if fields.ProposalType != nil {
		deal.ProposalType = optionalString(*fields.ProposalType)
	}
	if fields.Channel != nil {
		deal.Channel = optionalString(*fields.Channel)
	}
	if fields.DueDate != nil {
		due := *fields.DueDate
		deal.DueDate = &due
	} else if fields.ClearDueDate {
		deal.DueDate = nil
	}
	if fields.DeliveryDate != nil {
		delivered := *fields.DeliveryDate
		deal.DeliveryDate = &delivered
	} else if fields.ClearDeliveryDate {
		deal.DeliveryDate = nil
	}
	if fields.Notes != nil {
		deal.Notes = *fields.Notes
	}
	return nil
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
