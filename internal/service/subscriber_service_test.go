package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/backoffice/internal/domain"
	"github.com/spec-kit/backoffice/internal/repository"
	apperrors "github.com/spec-kit/backoffice/pkg/util/errorutil"
)

func TestCreateSubscriberConflictsCaseInsensitively(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.actor(t, domain.RoleAdmin)

	created, err := env.subscribers.Create(ctx, admin, SubscriberInput{Email: strPtr("Ana@Example.com"), Name: strPtr("Ana")})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", created.Email)
	assert.Equal(t, domain.SubscriberActive, created.Status)

	for _, email := range []string{"ana@example.com", "ANA@EXAMPLE.COM", " Ana@example.com "} {
		_, err := env.subscribers.Create(ctx, admin, SubscriberInput{Email: strPtr(email)})
		assert.True(t, apperrors.HasCode(err, "CONFLICT"), "email %q", email)
	}
	_, err = env.subscribers.Subscribe(ctx, domain.ClientMeta{}, "ANA@example.com", nil, "")
	assert.True(t, apperrors.HasCode(err, "CONFLICT"))

	list, err := env.subscribers.List(ctx, admin, repository.SubscriberFilter{})
	require.NoError(t, err)
	seen := map[string]bool{}
	for _, subscriber := range list {
		key := strings.ToLower(subscriber.Email)
		assert.False(t, seen[key], "duplicate %s", key)
		seen[key] = true
	}
	assert.Len(t, list, 1)
}

func TestSubscriberUpdateCannotCollide(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.actor(t, domain.RoleAdmin)
	_, err := env.subscribers.Create(ctx, admin, SubscriberInput{Email: strPtr("a@example.com")})
	require.NoError(t, err)
	b, err := env.subscribers.Create(ctx, admin, SubscriberInput{Email: strPtr("b@example.com")})
	require.NoError(t, err)

	_, err = env.subscribers.Update(ctx, admin, b.ID, SubscriberInput{Email: strPtr("A@example.com")})
	assert.True(t, apperrors.HasCode(err, "CONFLICT"))

	status := domain.SubscriberUnsubscribed
	updated, err := env.subscribers.Update(ctx, admin, b.ID, SubscriberInput{Status: &status, Name: strPtr("Bea")})
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriberUnsubscribed, updated.Status)
	require.NotNil(t, updated.Name)
	assert.Equal(t, "Bea", *updated.Name)

	bad := domain.SubscriberStatus("bounced")
	_, err = env.subscribers.Update(ctx, admin, b.ID, SubscriberInput{Status: &bad})
	assert.True(t, apperrors.HasCode(err, "VALIDATION_FAILED"))
}

func TestPublicSubscribeLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.actor(t, domain.RoleAdmin)

	subscriber, err := env.subscribers.Subscribe(ctx, domain.ClientMeta{}, "Lead@Example.com", strPtr("Lead"), "")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSubscriberSource, subscriber.Source)

	_, err = env.subscribers.Subscribe(ctx, domain.ClientMeta{}, "not-an-email", nil, "")
	assert.True(t, apperrors.HasCode(err, "VALIDATION_FAILED"))

	require.NoError(t, env.subscribers.Unsubscribe(ctx, "lead@example.com"))
	require.NoError(t, env.subscribers.Unsubscribe(ctx, "lead@example.com"))
	require.NoError(t, env.subscribers.Unsubscribe(ctx, "nobody@example.com"))

	stats, err := env.subscribers.Stats(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriberStats{Total: 1, Active: 0, Unsubscribed: 1}, stats)

	_, err = env.subscribers.Subscribe(ctx, domain.ClientMeta{}, "LEAD@example.com", nil, "footer")
	assert.True(t, apperrors.HasCode(err, "CONFLICT"))

	stats, err = env.subscribers.Stats(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriberStats{Total: 1, Active: 0, Unsubscribed: 1}, stats)

	list, err := env.subscribers.List(ctx, admin, repository.SubscriberFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, subscriber.ID, list[0].ID)
}

func TestSubscriberAdminOperationsRequireRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.actor(t, domain.RoleAdmin)
	marketing := env.actor(t, domain.RoleMarketing)
	created, err := env.subscribers.Create(ctx, admin, SubscriberInput{Email: strPtr("x@example.com")})
	require.NoError(t, err)

	_, err = env.subscribers.List(ctx, marketing, repository.SubscriberFilter{})
	assert.True(t, apperrors.HasCode(err, "FORBIDDEN"))
	assert.True(t, apperrors.HasCode(env.subscribers.Delete(ctx, marketing, created.ID), "FORBIDDEN"))

	require.NoError(t, env.subscribers.Delete(ctx, admin, created.ID))
	assert.True(t, apperrors.HasCode(env.subscribers.Delete(ctx, admin, created.ID), "NOT_FOUND"))
}
