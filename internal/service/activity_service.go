package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/backoffice/internal/auth"
	"github.com/spec-kit/backoffice/internal/domain"
	"github.com/spec-kit/backoffice/internal/events"
	"github.com/spec-kit/backoffice/internal/repository"
	apperrors "github.com/spec-kit/backoffice/pkg/util/errorutil"
)

// ActivityService manages scheduled follow-ups and notes on deals.
type ActivityService struct {
	deals      repository.DealRepository
	activities repository.ActivityRepository
	notes      repository.NoteRepository
	dispatcher events.Dispatcher
	now        func() time.Time
}

// ActivityDependencies bundles repositories for the activity service.
type ActivityDependencies struct {
	DealRepo     repository.DealRepository
	ActivityRepo repository.ActivityRepository
	NoteRepo     repository.NoteRepository
	Dispatcher   events.Dispatcher
	Now          func() time.Time
}

// ActivityInput describes a new activity.
type ActivityInput struct {
	Title         string
	Description   string
	Type          domain.ActivityType
	ScheduledDate *time.Time
	ScheduledTime *string
	AssignedTo    *string
}

// NewActivityService constructs the service.
func NewActivityService(deps ActivityDependencies) *ActivityService {
	return &ActivityService{
		deals:      deps.DealRepo,
		activities: deps.ActivityRepo,
		notes:      deps.NoteRepo,
		dispatcher: deps.Dispatcher,
		now:        clockOrDefault(deps.Now),
	}
}

// Create schedules a pending activity on a deal. Title and date are required.
func (s *ActivityService) Create(ctx context.Context, actor Actor, dealID string, input ActivityInput) (*domain.Activity, error) {
	if err := actor.authorize(auth.OpTrackDealActivity); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title is required", map[string]any{"field": "title"})
	}
	if input.ScheduledDate == nil || input.ScheduledDate.IsZero() {
		return nil, apperrors.NewValidationError("scheduled_date is required", map[string]any{"field": "scheduled_date"})
	}
	activityType := input.Type
	if activityType == "" {
		activityType = domain.ActivityTypeTask
	}
	if !activityType.Valid() {
		return nil, apperrors.NewValidationError("invalid activity type", map[string]any{"type": string(activityType)})
	}
	var scheduledTime *string
	if input.ScheduledTime != nil && strings.TrimSpace(*input.ScheduledTime) != "" {
		raw := strings.TrimSpace(*input.ScheduledTime)
		parsed, err := time.Parse("15:04", raw)
		if err != nil {
			return nil, apperrors.NewValidationError("scheduled_time must be HH:MM", map[string]any{"field": "scheduled_time"})
		}
		formatted := parsed.Format("15:04")
		scheduledTime = &formatted
	}

	deal, err := s.deals.GetByID(ctx, dealID)
	if err != nil {
		return nil, storeError(err, "deal")
	}

	y, m, d := input.ScheduledDate.Date()
	activity := &domain.Activity{
		DealID:        dealID,
		Title:         title,
		Description:   strings.TrimSpace(input.Description),
		Type:          activityType,
		Status:        domain.ActivityStatusPending,
		ScheduledDate: time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		ScheduledTime: scheduledTime,
		CreatedBy:     actor.Email(),
		AssignedTo:    optionalPtr(input.AssignedTo),
	}
	if err := s.activities.Create(ctx, activity); err != nil {
		return nil, storeError(err, "deal")
	}

	publish(ctx, s.dispatcher, events.New(events.EventActivityScheduled, dealID, actor.Email(), events.ActivityScheduledPayload{
		ActivityID:    activity.ID,
		DealTitle:     deal.Title,
		Title:         activity.Title,
		Type:          activity.Type,
		ScheduledDate: activity.ScheduledDate,
		ScheduledTime: activity.ScheduledTime,
	}))
	return activity, nil
}

// List returns a deal's activities ordered by schedule.
func (s *ActivityService) List(ctx context.Context, actor Actor, dealID string) ([]domain.Activity, error) {
	if err := actor.authorize(auth.OpViewDeals); err != nil {
		return nil, err
	}
	if _, err := s.deals.GetByID(ctx, dealID); err != nil {
		return nil, storeError(err, "deal")
	}
	activities, err := s.activities.ListByDeal(ctx, dealID)
	if err != nil {
		return nil, storeError(err, "activity")
	}
	return activities, nil
}

// Get returns a single activity.
func (s *ActivityService) Get(ctx context.Context, actor Actor, id string) (*domain.Activity, error) {
	if err := actor.authorize(auth.OpViewDeals); err != nil {
		return nil, err
	}
	activity, err := s.activities.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "activity")
	}
	return activity, nil
}

// Complete marks a pending activity done. Completing an already completed
// activity returns it unchanged; a cancelled one cannot be completed.
func (s *ActivityService) Complete(ctx context.Context, actor Actor, id string) (*domain.Activity, error) {
	if err := actor.authorize(auth.OpTrackDealActivity); err != nil {
		return nil, err
	}
	completedAt := s.now().UTC()
	return s.finish(ctx, id, domain.ActivityStatusCompleted, &completedAt)
}

// Cancel drops a pending activity. Cancelling twice is a no-op; a completed
// activity cannot be cancelled.
func (s *ActivityService) Cancel(ctx context.Context, actor Actor, id string) (*domain.Activity, error) {
	if err := actor.authorize(auth.OpTrackDealActivity); err != nil {
		return nil, err
	}
	return s.finish(ctx, id, domain.ActivityStatusCancelled, nil)
}

func (s *ActivityService) finish(ctx context.Context, id string, target domain.ActivityStatus, completedAt *time.Time) (*domain.Activity, error) {
	changed, err := s.activities.Transition(ctx, id, target, completedAt)
	if err != nil {
		return nil, storeError(err, "activity")
	}
	activity, err := s.activities.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "activity")
	}
	if changed || activity.Status == target {
		return activity, nil
	}
	return nil, apperrors.NewConflict(
		fmt.Sprintf("activity is already %s", activity.Status),
		map[string]any{"status": string(activity.Status)})
}

// AddNote appends an immutable note to a deal.
func (s *ActivityService) AddNote(ctx context.Context, actor Actor, dealID, content string) (*domain.DealNote, error) {
	if err := actor.authorize(auth.OpTrackDealActivity); err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewValidationError("content is required", map[string]any{"field": "content"})
	}
	if _, err := s.deals.GetByID(ctx, dealID); err != nil {
		return nil, storeError(err, "deal")
	}

	note := &domain.DealNote{DealID: dealID, AuthorID: actor.ID(), Content: content}
	if err := s.notes.Create(ctx, note); err != nil {
		return nil, storeError(err, "deal")
	}
	return note, nil
}

// ListNotes returns a deal's notes, newest first.
func (s *ActivityService) ListNotes(ctx context.Context, actor Actor, dealID string) ([]domain.DealNote, error) {
	if err := actor.authorize(auth.OpViewDeals); err != nil {
		return nil, err
	}
	if _, err := s.deals.GetByID(ctx, dealID); err != nil {
		return nil, storeError(err, "deal")
	}
	notes, err := s.notes.ListByDeal(ctx, dealID)
	if err != nil {
		return nil, storeError(err, "note")
	}
	return notes, nil
}

func optionalPtr(value *string) *string {
	if value == nil {
		return nil
	}
	return optionalString(*value)
}
