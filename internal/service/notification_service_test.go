package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/backoffice/internal/domain"
)

type recordingSender struct {
	mu       sync.Mutex
	messages []string
}

func (s *recordingSender) Send(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, text)
	return nil
}

func TestNotificationsForNewAndClosedDeals(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sender := &recordingSender{}
	notifications := NewNotificationService(env.dispatcher, sender, zap.NewNop())
	notifications.RegisterHandlers()

	owner := env.actor(t, domain.RoleOwner)
	deal, err := env.deals.Create(ctx, owner, DealFields{Title: strPtr("Acme"), Organization: strPtr("Acme Inc"), Value: floatPtr(2500)})
	require.NoError(t, err)
	_, err = env.deals.SetStatus(ctx, owner, deal.ID, domain.DealStatusNegotiation, "")
	require.NoError(t, err)
	_, err = env.deals.SetStatus(ctx, owner, deal.ID, domain.DealStatusWon, "signed")
	require.NoError(t, err)
	_, err = env.deals.SetStatus(ctx, owner, deal.ID, domain.DealStatusWon, "")
	require.NoError(t, err)
	notifications.Wait()

	sender.mu.Lock()
	defer sender.mu.Unlock()
	require.Len(t, sender.messages, 2)
	assert.Contains(t, sender.messages, "Nuevo deal: Acme (Acme Inc)\nValor: 2500.00\nCreado por: "+owner.Email())
	assert.Contains(t, sender.messages, "Deal ganado: Acme\nValor: 2500.00\nPor: "+owner.Email()+"\nMotivo: signed")
}

func TestNotificationsForActivitiesDeletionsAndSubscribers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sender := &recordingSender{}
	notifications := NewNotificationService(env.dispatcher, sender, zap.NewNop())
	notifications.RegisterHandlers()

	owner := env.actor(t, domain.RoleOwner)
	deal, err := env.deals.Create(ctx, owner, DealFields{Title: strPtr("Globex")})
	require.NoError(t, err)

	scheduled := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)
	_, err = env.activities.Create(ctx, owner, deal.ID, ActivityInput{
		Title:         "Demo",
		Type:          domain.ActivityTypeDemo,
		ScheduledDate: &scheduled,
		ScheduledTime: strPtr("09:30"),
	})
	require.NoError(t, err)
	require.NoError(t, env.deals.Delete(ctx, owner, deal.ID))

	_, err = env.subscribers.Subscribe(ctx, domain.ClientMeta{}, "Reader@Example.com", nil, "")
	require.NoError(t, err)
	_, err = env.subscribers.Subscribe(ctx, domain.ClientMeta{}, "reader@example.com", nil, "")
	require.Error(t, err)
	notifications.Wait()

	sender.mu.Lock()
	defer sender.mu.Unlock()
	require.Len(t, sender.messages, 4)
	assert.Contains(t, sender.messages, "Actividad programada (demo): Demo\nDeal: Globex\nFecha: 2026-05-04 09:30\nPor: "+owner.Email())
	assert.Contains(t, sender.messages, "Deal eliminado: Globex\nPor: "+owner.Email())
	assert.Contains(t, sender.messages, "Nuevo suscriptor: reader@example.com\nOrigen: "+domain.DefaultSubscriberSource)
}
