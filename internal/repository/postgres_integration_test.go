//go:build integration

package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/spec-kit/backoffice/internal/domain"
	"github.com/spec-kit/backoffice/internal/persistence"
	"github.com/spec-kit/backoffice/internal/repository"
	apperrors "github.com/spec-kit/backoffice/pkg/util/errorutil"
)

// setupRepositories starts a PostgreSQL container, applies the migrations
// and returns the pgx-backed repository set.
func setupRepositories(t *testing.T) repository.Set {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("backoffice"),
		postgres.WithUsername("backoffice"),
		postgres.WithPassword("backoffice"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, persistence.RunMigrations(ctx, pool, "../../migrations", zap.NewNop()))
	return repository.NewPostgresSet(pool)
}

func newDeal(title string) *domain.Deal {
	return &domain.Deal{
		Title:       title,
		Value:       1500,
		QualityLead: domain.DefaultQualityLead,
		Status:      domain.DealStatusGeneralProspecting,
		CreatedBy:   "owner@example.com",
	}
}

func TestPostgresDealLifecycle(t *testing.T) {
	repos := setupRepositories(t)
	ctx := context.Background()

	deal := newDeal("Hospital network upgrade")
	require.NoError(t, repos.Deals.Create(ctx, deal))
	require.NotEmpty(t, deal.ID)

	history, err := repos.DealHistory.ListByDeal(ctx, deal.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Nil(t, history[0].OldStatus)
	assert.Equal(t, domain.DealStatusGeneralProspecting, history[0].NewStatus)

	reason := "budget approved"
	updated, entry, err := repos.Deals.UpdateStatus(ctx, deal.ID, domain.DealStatusNegotiation, "admin@example.com", &reason)
	require.NoError(t, err)
	assert.Equal(t, domain.DealStatusNegotiation, updated.Status)
	require.NotNil(t, entry.OldStatus)
	assert.Equal(t, domain.DealStatusGeneralProspecting, *entry.OldStatus)

	history, err = repos.DealHistory.ListByDeal(ctx, deal.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.DealStatusNegotiation, history[0].NewStatus)
	require.NotNil(t, history[0].Reason)
	assert.Equal(t, reason, *history[0].Reason)

	archived, err := repos.Deals.SetArchived(ctx, deal.ID, true)
	require.NoError(t, err)
	assert.True(t, archived.Archived)

	visible, err := repos.Deals.List(ctx, repository.DealFilter{})
	require.NoError(t, err)
	assert.Empty(t, visible)

	all, err := repos.Deals.List(ctx, repository.DealFilter{IncludeArchived: true, Search: "NETWORK"})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestPostgresSearchTreatsWildcardsLiterally(t *testing.T) {
	repos := setupRepositories(t)
	ctx := context.Background()

	require.NoError(t, repos.Deals.Create(ctx, newDeal("50% discount renewal")))
	require.NoError(t, repos.Deals.Create(ctx, newDeal("500 units")))
	require.NoError(t, repos.Deals.Create(ctx, newDeal("field_ops rollout")))
	require.NoError(t, repos.Deals.Create(ctx, newDeal("fieldXops audit")))

	found, err := repos.Deals.List(ctx, repository.DealFilter{Search: "50%"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "50% discount renewal", found[0].Title)

	found, err = repos.Deals.List(ctx, repository.DealFilter{Search: "FIELD_OPS"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "field_ops rollout", found[0].Title)

	require.NoError(t, repos.Subscribers.Create(ctx, &domain.Subscriber{Email: "a_b@example.com", Status: domain.SubscriberActive, Source: "website"}))
	require.NoError(t, repos.Subscribers.Create(ctx, &domain.Subscriber{Email: "axb@example.com", Status: domain.SubscriberActive, Source: "website"}))
	subs, err := repos.Subscribers.List(ctx, repository.SubscriberFilter{Search: "a_b"})
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "a_b@example.com", subs[0].Email)
}

func TestPostgresDealDeleteCascades(t *testing.T) {
	repos := setupRepositories(t)
	ctx := context.Background()

	deal := newDeal("Fleet tracking")
	require.NoError(t, repos.Deals.Create(ctx, deal))

	activity := &domain.Activity{
		DealID:        deal.ID,
		Title:         "Kickoff call",
		Type:          domain.ActivityTypeCall,
		Status:        domain.ActivityStatusPending,
		ScheduledDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		CreatedBy:     "owner@example.com",
	}
	require.NoError(t, repos.Activities.Create(ctx, activity))
	require.NoError(t, repos.Notes.Create(ctx, &domain.DealNote{DealID: deal.ID, AuthorID: "owner@example.com", Content: "Sent deck"}))

	require.NoError(t, repos.Deals.Delete(ctx, deal.ID))

	_, err := repos.Deals.GetByID(ctx, deal.ID)
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	_, err = repos.Activities.GetByID(ctx, activity.ID)
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	notes, err := repos.Notes.ListByDeal(ctx, deal.ID)
	require.NoError(t, err)
	assert.Empty(t, notes)
	history, err := repos.DealHistory.ListByDeal(ctx, deal.ID)
	require.NoError(t, err)
	assert.Empty(t, history)

	assert.ErrorIs(t, repos.Deals.Delete(ctx, deal.ID), pgx.ErrNoRows)
}

func TestPostgresActivityTransitionOnlyFromPending(t *testing.T) {
	repos := setupRepositories(t)
	ctx := context.Background()

	deal := newDeal("Warehouse sensors")
	require.NoError(t, repos.Deals.Create(ctx, deal))
	activity := &domain.Activity{
		DealID:        deal.ID,
		Title:         "Send proposal",
		Type:          domain.ActivityTypeProposal,
		Status:        domain.ActivityStatusPending,
		ScheduledDate: time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC),
		CreatedBy:     "owner@example.com",
	}
	require.NoError(t, repos.Activities.Create(ctx, activity))

	pending, err := repos.Activities.ListPendingByDeals(ctx, []string{deal.ID})
	require.NoError(t, err)
	assert.Len(t, pending[deal.ID], 1)

	completedAt := time.Now().UTC()
	ok, err := repos.Activities.Transition(ctx, activity.ID, domain.ActivityStatusCompleted, &completedAt)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repos.Activities.Transition(ctx, activity.ID, domain.ActivityStatusCancelled, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := repos.Activities.GetByID(ctx, activity.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ActivityStatusCompleted, stored.Status)
	assert.NotNil(t, stored.CompletedAt)

	_, err = repos.Activities.Transition(ctx, "5d7c8a4e-0000-4000-8000-000000000000", domain.ActivityStatusCompleted, &completedAt)
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestPostgresUserEmailIsUniqueIgnoringCase(t *testing.T) {
	repos := setupRepositories(t)
	ctx := context.Background()

	require.NoError(t, repos.Users.Create(ctx, &domain.User{Email: "Ana@Example.com", Role: domain.RoleOwner, Active: true, PasswordHash: "x"}))

	err := repos.Users.Create(ctx, &domain.User{Email: "ana@example.com", Role: domain.RoleAdmin, Active: true, PasswordHash: "x"})
	var pgErr *pgconn.PgError
	require.True(t, errors.As(err, &pgErr))
	assert.Equal(t, "23505", pgErr.Code)

	found, err := repos.Users.GetByEmail(ctx, "ANA@EXAMPLE.COM")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleOwner, found.Role)

	owners, err := repos.Users.CountActiveOwners(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, owners)
}

func TestPostgresMalformedIDReadsAsMissing(t *testing.T) {
	repos := setupRepositories(t)
	ctx := context.Background()

	_, err := repos.Deals.GetByID(ctx, "not-a-uuid")
	assert.True(t, apperrors.IsNotFound(err))
	_, err = repos.Users.GetByID(ctx, "42")
	assert.True(t, apperrors.IsNotFound(err))
	assert.True(t, apperrors.IsNotFound(repos.Subscribers.Delete(ctx, "x")))
}

func TestPostgresSubscriberAndAuditStats(t *testing.T) {
	repos := setupRepositories(t)
	ctx := context.Background()

	for _, sub := range []*domain.Subscriber{
		{Email: "a@example.com", Status: domain.SubscriberActive, Source: "website"},
		{Email: "b@example.com", Status: domain.SubscriberActive, Source: "website"},
		{Email: "c@example.com", Status: domain.SubscriberUnsubscribed, Source: "admin"},
	} {
		require.NoError(t, repos.Subscribers.Create(ctx, sub))
	}

	stats, err := repos.Subscribers.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriberStats{Total: 3, Active: 2, Unsubscribed: 1}, stats)

	active, err := repos.Subscribers.List(ctx, repository.SubscriberFilter{Status: domain.SubscriberActive})
	require.NoError(t, err)
	assert.Len(t, active, 2)

	for _, action := range []string{"login", "login", "create_deal"} {
		require.NoError(t, repos.Audit.Create(ctx, &domain.AuditLogEntry{
			ActorEmail: "owner@example.com",
			Action:     action,
			Resource:   "auth",
		}))
	}

	audit, err := repos.Audit.Stats(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(3), audit.Total)
	assert.Equal(t, int64(3), audit.Last24h)
	assert.Equal(t, int64(2), audit.ByAction["login"])

	recent, err := repos.Audit.ListRecent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}
