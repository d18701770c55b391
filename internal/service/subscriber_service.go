package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/backoffice/internal/audit"
	"github.com/spec-kit/backoffice/internal/auth"
	"github.com/spec-kit/backoffice/internal/domain"
	"github.com/spec-kit/backoffice/internal/events"
	"github.com/spec-kit/backoffice/internal/repository"
	apperrors "github.com/spec-kit/backoffice/pkg/util/errorutil"
)

// SubscriberService manages the newsletter list.
type SubscriberService struct {
	subscribers repository.SubscriberRepository
	recorder    *audit.Recorder
	dispatcher  events.Dispatcher
}

// SubscriberDependencies bundles collaborators for the subscriber service.
type SubscriberDependencies struct {
	SubscriberRepo repository.SubscriberRepository
	Recorder       *audit.Recorder
	Dispatcher     events.Dispatcher
}

// SubscriberInput carries subscriber fields. Nil fields are left untouched
// on update.
type SubscriberInput struct {
	Email  *string
	Name   *string
	Status *domain.SubscriberStatus
	Source *string
}

// NewSubscriberService constructs the service.
func NewSubscriberService(deps SubscriberDependencies) *SubscriberService {
	return &SubscriberService{
		subscribers: deps.SubscriberRepo,
		recorder:    deps.Recorder,
		dispatcher:  deps.Dispatcher,
	}
}

// Subscribe handles a public sign-up. Any address already on the list,
// active or unsubscribed, is reported as a conflict.
func (s *SubscriberService) Subscribe(ctx context.Context, meta domain.ClientMeta, email string, name *string, source string) (*domain.Subscriber, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	subscriber := &domain.Subscriber{
		Email:  normalized,
		Name:   optionalPtr(name),
		Status: domain.SubscriberActive,
		Source: sourceOrDefault(source),
	}
	if err := s.subscribers.Create(ctx, subscriber); err != nil {
		return nil, subscriberWriteError(err, normalized)
	}
	publish(ctx, s.dispatcher, events.New(events.EventSubscriberJoined, "", normalized, events.SubscriberJoinedPayload{
		Email:  subscriber.Email,
		Source: subscriber.Source,
	}))
	return subscriber, nil
}

// Unsubscribe handles a public opt-out. Unknown addresses are ignored so the
// endpoint does not reveal list membership.
func (s *SubscriberService) Unsubscribe(ctx context.Context, email string) error {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	existing, err := s.subscribers.GetByEmail(ctx, normalized)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return storeError(err, "subscriber")
	}
	if existing.Status == domain.SubscriberUnsubscribed {
		return nil
	}
	existing.Status = domain.SubscriberUnsubscribed
	if err := s.subscribers.Update(ctx, existing); err != nil {
		return storeError(err, "subscriber")
	}
	return nil
}

// Create adds a subscriber on behalf of an admin.
func (s *SubscriberService) Create(ctx context.Context, actor Actor, input SubscriberInput) (*domain.Subscriber, error) {
	if err := actor.authorize(auth.OpManageSubscribers); err != nil {
		return nil, err
	}
	if input.Email == nil {
		return nil, apperrors.NewValidationError("email is required", map[string]any{"field": "email"})
	}
	normalized, err := normalizeEmail(*input.Email)
	if err != nil {
		return nil, err
	}

	if _, err := s.subscribers.GetByEmail(ctx, normalized); err == nil {
		return nil, apperrors.NewConflict("email already subscribed", map[string]any{"email": normalized})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, storeError(err, "subscriber")
	}

	subscriber := &domain.Subscriber{
		Email:  normalized,
		Name:   optionalPtr(input.Name),
		Status: domain.SubscriberActive,
		Source: "admin",
	}
	if input.Source != nil {
		subscriber.Source = sourceOrDefault(*input.Source)
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": string(*input.Status)})
		}
		subscriber.Status = *input.Status
	}
	if err := s.subscribers.Create(ctx, subscriber); err != nil {
		return nil, subscriberWriteError(err, normalized)
	}

	record(s.recorder, actor, audit.ActionCreateSubscriber, "subscriber:"+subscriber.ID, "email="+normalized)
	return subscriber, nil
}

// Update changes status, name, email or source of a subscriber.
func (s *SubscriberService) Update(ctx context.Context, actor Actor, id string, input SubscriberInput) (*domain.Subscriber, error) {
	if err := actor.authorize(auth.OpManageSubscribers); err != nil {
		return nil, err
	}
	subscriber, err := s.subscribers.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "subscriber")
	}

	if input.Email != nil {
		normalized, err := normalizeEmail(*input.Email)
		if err != nil {
			return nil, err
		}
		subscriber.Email = normalized
	}
	if input.Name != nil {
		subscriber.Name = optionalString(*input.Name)
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": string(*input.Status)})
		}
		subscriber.Status = *input.Status
	}
	if input.Source != nil {
		subscriber.Source = sourceOrDefault(*input.Source)
	}

	if err := s.subscribers.Update(ctx, subscriber); err != nil {
		return nil, subscriberWriteError(err, subscriber.Email)
	}
	record(s.recorder, actor, audit.ActionUpdateSubscriber, "subscriber:"+id,
		fmt.Sprintf("email=%s status=%s", subscriber.Email, subscriber.Status))
	return subscriber, nil
}

// Delete removes a subscriber.
func (s *SubscriberService) Delete(ctx context.Context, actor Actor, id string) error {
	if err := actor.authorize(auth.OpManageSubscribers); err != nil {
		return err
	}
	subscriber, err := s.subscribers.GetByID(ctx, id)
	if err != nil {
		return storeError(err, "subscriber")
	}
	if err := s.subscribers.Delete(ctx, id); err != nil {
		return storeError(err, "subscriber")
	}
	record(s.recorder, actor, audit.ActionDeleteSubscriber, "subscriber:"+id, "email="+subscriber.Email)
	return nil
}

// List returns subscribers, newest first.
func (s *SubscriberService) List(ctx context.Context, actor Actor, filter repository.SubscriberFilter) ([]domain.Subscriber, error) {
	if err := actor.authorize(auth.OpManageSubscribers); err != nil {
		return nil, err
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": string(filter.Status)})
	}
	subscribers, err := s.subscribers.List(ctx, filter)
	if err != nil {
		return nil, storeError(err, "subscriber")
	}
	return subscribers, nil
}

// Stats counts subscribers by status.
func (s *SubscriberService) Stats(ctx context.Context, actor Actor) (domain.SubscriberStats, error) {
	if err := actor.authorize(auth.OpManageSubscribers); err != nil {
		return domain.SubscriberStats{}, err
	}
	stats, err := s.subscribers.Stats(ctx)
	if err != nil {
		return domain.SubscriberStats{}, storeError(err, "subscriber")
	}
	return stats, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", apperrors.NewValidationError("email is required", map[string]any{"field": "email"})
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperrors.NewValidationError("invalid email", map[string]any{"field": "email"})
	}
	return email, nil
}

func sourceOrDefault(source string) string {
	source = strings.TrimSpace(source)
	if source == "" {
		return domain.DefaultSubscriberSource
	}
	return source
}

func subscriberWriteError(err error, email string) error {
	if apperrors.HasCode(apperrors.MapError(err), "CONFLICT") {
		return apperrors.NewConflict("email already subscribed", map[string]any{"email": email})
	}
	return storeError(err, "subscriber")
}
