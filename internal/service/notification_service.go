package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/backoffice/internal/domain"
	"github.com/spec-kit/backoffice/internal/events"
	"github.com/spec-kit/backoffice/internal/notify"
)

const sendTimeout = 10 * time.Second

// NotificationService forwards pipeline events to a chat channel. Messages
// are sent off the request path.
type NotificationService struct {
	dispatcher events.Dispatcher
	sender     notify.Sender
	logger     *zap.Logger
	inflight   sync.WaitGroup
}

// NewNotificationService creates the service. A nil sender logs only.
func NewNotificationService(dispatcher events.Dispatcher, sender notify.Sender, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		sender:     sender,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventDealCreated, n.handleDealCreated)
	n.dispatcher.Subscribe(events.EventDealStatusChanged, n.handleDealStatusChanged)
	n.dispatcher.Subscribe(events.EventDealDeleted, n.handleDealDeleted)
	n.dispatcher.Subscribe(events.EventActivityScheduled, n.handleActivityScheduled)
	n.dispatcher.Subscribe(events.EventSubscriberJoined, n.handleSubscriberJoined)
}

func (n *NotificationService) handleDealCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.DealCreatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	n.logger.Info("DealCreated", zap.String("deal_id", event.DealID), zap.String("title", payload.Title))

	var b strings.Builder
	fmt.Fprintf(&b, "Nuevo deal: %s", payload.Title)
	if payload.Organization != "" {
		fmt.Fprintf(&b, " (%s)", payload.Organization)
	}
	fmt.Fprintf(&b, "\nValor: %.2f\nCreado por: %s", payload.Value, event.ActorEmail)
	return n.send(ctx, b.String())
}

// handleDealStatusChanged only forwards moves into a closing stage.
func (n *NotificationService) handleDealStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.DealStatusChangedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	n.logger.Info("DealStatusChanged",
		zap.String("deal_id", event.DealID),
		zap.String("old_status", string(payload.OldStatus)),
		zap.String("new_status", string(payload.NewStatus)))

	if !payload.NewStatus.Closed() || payload.OldStatus == payload.NewStatus {
		return nil
	}
	headline := "Deal ganado"
	if payload.NewStatus == domain.DealStatusLost {
		headline = "Deal perdido"
	}
	text := fmt.Sprintf("%s: %s\nValor: %.2f\nPor: %s", headline, payload.Title, payload.Value, event.ActorEmail)
	if payload.Reason != "" {
		text += "\nMotivo: " + payload.Reason
	}
	return n.send(ctx, text)
}

func (n *NotificationService) handleDealDeleted(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.DealDeletedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	n.logger.Info("DealDeleted", zap.String("deal_id", event.DealID), zap.String("title", payload.Title))
	return n.send(ctx, fmt.Sprintf("Deal eliminado: %s\nPor: %s", payload.Title, event.ActorEmail))
}

func (n *NotificationService) handleActivityScheduled(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ActivityScheduledPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	n.logger.Info("ActivityScheduled",
		zap.String("deal_id", event.DealID),
		zap.String("activity_id", payload.ActivityID))

	when := payload.ScheduledDate.Format("2006-01-02")
	if payload.ScheduledTime != nil {
		when += " " + *payload.ScheduledTime
	}
	return n.send(ctx, fmt.Sprintf("Actividad programada (%s): %s\nDeal: %s\nFecha: %s\nPor: %s",
		payload.Type, payload.Title, payload.DealTitle, when, event.ActorEmail))
}

func (n *NotificationService) handleSubscriberJoined(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.SubscriberJoinedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	n.logger.Info("SubscriberJoined", zap.String("source", payload.Source))
	return n.send(ctx, fmt.Sprintf("Nuevo suscriptor: %s\nOrigen: %s", payload.Email, payload.Source))
}

// Wait blocks until in-flight messages are delivered or have failed.
func (n *NotificationService) Wait() {
	n.inflight.Wait()
}

func (n *NotificationService) send(_ context.Context, text string) error {
	if n.sender == nil {
		return nil
	}
	n.inflight.Add(1)
	go func() {
		defer n.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		if err := n.sender.Send(ctx, text); err != nil {
			n.logger.Warn("notification delivery failed", zap.Error(err))
		}
	}()
	return nil
}
