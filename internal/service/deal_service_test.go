package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/backoffice/internal/audit"
	"github.com/spec-kit/backoffice/internal/domain"
	"github.com/spec-kit/backoffice/internal/repository/memory"
	apperrors "github.com/spec-kit/backoffice/pkg/util/errorutil"
)

func TestCreateDealRejectsNonWriterRoles(t *testing.T) {
	env := newTestEnv(t)
	for _, role := range domain.Roles {
		if role == domain.RoleOwner || role == domain.RoleAdmin {
			continue
		}
		t.Run(string(role), func(t *testing.T) {
			_, err := env.deals.Create(context.Background(), env.actor(t, role), DealFields{Title: strPtr("Acme")})
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, "FORBIDDEN"))
		})
	}
	deals, err := env.deals.List(context.Background(), env.actor(t, domain.RoleAnalyst), DealListFilter{})
	require.NoError(t, err)
	assert.Empty(t, deals)
}

func TestCreateDealUnauthenticated(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.deals.Create(context.Background(), Actor{}, DealFields{Title: strPtr("Acme")})
	assert.True(t, apperrors.HasCode(err, "UNAUTHORIZED"))
}

func TestCreateDealDefaultsAndValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.actor(t, domain.RoleAdmin)

	deal, err := env.deals.Create(ctx, admin, DealFields{Title: strPtr("  Acme  "), Value: floatPtr(1500)})
	require.NoError(t, err)
	assert.Equal(t, "Acme", deal.Title)
	assert.Equal(t, domain.DealStatusGeneralProspecting, deal.Status)
	assert.Equal(t, 1, deal.QualityLead)
	assert.False(t, deal.Archived)
	assert.Equal(t, admin.Email(), deal.CreatedBy)

	cases := []struct {
		name   string
		fields DealFields
	}{
		{"missing title", DealFields{}},
		{"blank title", DealFields{Title: strPtr("   ")}},
		{"negative value", DealFields{Title: strPtr("x"), Value: floatPtr(-1)}},
		{"negative margin", DealFields{Title: strPtr("x"), Margin: floatPtr(-0.5)}},
		{"quality lead out of range", DealFields{Title: strPtr("x"), QualityLead: intPtr(9)}},
		{"unknown status", DealFields{Title: strPtr("x"), Status: statusPtr("Cerrado")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.deals.Create(ctx, admin, tc.fields)
			assert.True(t, apperrors.HasCode(err, "VALIDATION_FAILED"), "got %v", err)
		})
	}
}

func TestSetStatusAppendsHistoryHead(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.actor(t, domain.RoleOwner)
	deal := env.createDeal(t, owner, "Acme")

	for _, status := range []domain.DealStatus{domain.DealStatusStudy, domain.DealStatusWon, domain.DealStatusContingentProspecting} {
		before, err := env.deals.Get(ctx, owner, deal.ID)
		require.NoError(t, err)

		updated, err := env.deals.SetStatus(ctx, owner, deal.ID, status, "moved")
		require.NoError(t, err)
		assert.Equal(t, status, updated.Status)

		history, err := env.deals.History(ctx, owner, deal.ID)
		require.NoError(t, err)
		head := history[0]
		assert.Equal(t, status, head.NewStatus)
		require.NotNil(t, head.OldStatus)
		assert.Equal(t, before.Status, *head.OldStatus)
		assert.Equal(t, owner.Email(), head.ChangedBy)
		require.NotNil(t, head.Reason)
		assert.Equal(t, "moved", *head.Reason)
	}

	_, err := env.deals.SetStatus(ctx, owner, "missing", domain.DealStatusWon, "")
	assert.True(t, apperrors.HasCode(err, "NOT_FOUND"))
	_, err = env.deals.SetStatus(ctx, owner, deal.ID, domain.DealStatus("Cerrado"), "")
	assert.True(t, apperrors.HasCode(err, "VALIDATION_FAILED"))
}

func TestReopenIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.actor(t, domain.RoleAdmin)
	deal := env.createDeal(t, admin, "Acme")
	_, err := env.deals.SetStatus(ctx, admin, deal.ID, domain.DealStatusLost, "")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		reopened, err := env.deals.Reopen(ctx, admin, deal.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.DealStatusGeneralProspecting, reopened.Status)

		history, err := env.deals.History(ctx, admin, deal.ID)
		require.NoError(t, err)
		require.NotNil(t, history[0].Reason)
		assert.Equal(t, domain.ReopenReason, *history[0].Reason)
		assert.Equal(t, domain.DealStatusGeneralProspecting, history[0].NewStatus)
	}

	history, err := env.deals.History(ctx, admin, deal.ID)
	require.NoError(t, err)
	// initial row, lost, two reopens
	assert.Len(t, history, 4)
	assert.Nil(t, history[len(history)-1].OldStatus)

	_, err = env.deals.Reopen(ctx, env.actor(t, domain.RoleMarketing), deal.ID)
	assert.True(t, apperrors.HasCode(err, "FORBIDDEN"))
}

func TestUpdateDealKeepsStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.actor(t, domain.RoleOwner)
	deal := env.createDeal(t, owner, "Acme")

	updated, err := env.deals.Update(ctx, owner, deal.ID, DealFields{
		Organization: strPtr("Acme Inc"),
		Status:       statusPtr(domain.DealStatusWon),
		Margin:       floatPtr(120),
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme", updated.Title)
	assert.Equal(t, "Acme Inc", updated.Organization)
	assert.Equal(t, domain.DealStatusGeneralProspecting, updated.Status)
	require.NotNil(t, updated.Margin)
	assert.Equal(t, 120.0, *updated.Margin)

	history, err := env.deals.History(ctx, owner, deal.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	_, err = env.deals.Update(ctx, owner, "missing", DealFields{Title: strPtr("x")})
	assert.True(t, apperrors.HasCode(err, "NOT_FOUND"))
}

func TestListDealsDerivesFollowUpAndHidesArchived(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.actor(t, domain.RoleOwner)
	overdue := env.createDeal(t, owner, "Overdue Corp")
	today := env.createDeal(t, owner, "Today Corp")
	quiet := env.createDeal(t, owner, "Quiet Corp")
	archived := env.createDeal(t, owner, "Archived Corp")

	schedule := func(dealID string, offsetDays int) {
		_, err := env.activities.Create(ctx, owner, dealID, ActivityInput{
			Title:         "Call",
			Type:          domain.ActivityTypeCall,
			ScheduledDate: timePtr(env.now.AddDate(0, 0, offsetDays)),
		})
		require.NoError(t, err)
	}
	schedule(overdue.ID, -1)
	schedule(overdue.ID, 3)
	schedule(today.ID, 0)
	_, err := env.deals.Archive(ctx, owner, archived.ID, true)
	require.NoError(t, err)

	views, err := env.deals.List(ctx, owner, DealListFilter{})
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.Equal(t, quiet.ID, views[0].ID)

	states := map[string]domain.FollowUpState{}
	for _, view := range views {
		states[view.ID] = view.ActivityStatus
	}
	assert.Equal(t, domain.FollowUpOverdue, states[overdue.ID])
	assert.Equal(t, domain.FollowUpToday, states[today.ID])
	assert.Equal(t, domain.FollowUpNone, states[quiet.ID])

	views, err = env.deals.List(ctx, owner, DealListFilter{IncludeArchived: true, Search: "ARCHIVED"})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.True(t, views[0].Archived)

	views, err = env.deals.List(ctx, owner, DealListFilter{Statuses: []domain.DealStatus{domain.DealStatusWon}})
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestGetDealEmbedsNextActivity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.actor(t, domain.RoleOwner)
	deal := env.createDeal(t, owner, "Acme")

	_, err := env.activities.Create(ctx, owner, deal.ID, ActivityInput{Title: "Later", ScheduledDate: timePtr(env.now.AddDate(0, 0, 5))})
	require.NoError(t, err)
	soon, err := env.activities.Create(ctx, owner, deal.ID, ActivityInput{Title: "Soon", ScheduledDate: timePtr(env.now.AddDate(0, 0, 1))})
	require.NoError(t, err)

	view, err := env.deals.Get(ctx, env.actor(t, domain.RoleAnalyst), deal.ID)
	require.NoError(t, err)
	require.NotNil(t, view.NextActivity)
	assert.Equal(t, soon.ID, view.NextActivity.ID)
	assert.Equal(t, domain.FollowUpUpcoming, view.ActivityStatus)

	_, err = env.deals.Get(ctx, owner, "missing")
	assert.True(t, apperrors.HasCode(err, "NOT_FOUND"))
}

func TestDeleteDealCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.actor(t, domain.RoleOwner)
	deal := env.createDeal(t, owner, "Acme")
	_, err := env.activities.AddNote(ctx, owner, deal.ID, "first contact")
	require.NoError(t, err)

	require.NoError(t, env.deals.Delete(ctx, owner, deal.ID))

	_, err = env.deals.Get(ctx, owner, deal.ID)
	assert.True(t, apperrors.HasCode(err, "NOT_FOUND"))
	_, err = env.activities.ListNotes(ctx, owner, deal.ID)
	assert.True(t, apperrors.HasCode(err, "NOT_FOUND"))
	assert.True(t, apperrors.HasCode(env.deals.Delete(ctx, owner, deal.ID), "NOT_FOUND"))
}

func TestDealMutationsAreAudited(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.actor(t, domain.RoleOwner)
	deal := env.createDeal(t, owner, "Acme")
	_, err := env.deals.SetStatus(ctx, owner, deal.ID, domain.DealStatusWon, "")
	require.NoError(t, err)
	env.recorder.Close()

	entries, err := env.store.Audit().ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, audit.ActionChangeDealStatus, entries[0].Action)
	assert.Equal(t, audit.ActionCreateDeal, entries[1].Action)
	assert.Equal(t, owner.Email(), entries[1].ActorEmail)
	assert.Equal(t, "deal:"+deal.ID, entries[1].Resource)
}

type brokenAuditRepo struct{}

func (brokenAuditRepo) Create(context.Context, *domain.AuditLogEntry) error {
	return assert.AnError
}

func (brokenAuditRepo) ListRecent(context.Context, int) ([]domain.AuditLogEntry, error) {
	return nil, assert.AnError
}

func (brokenAuditRepo) Stats(context.Context, time.Time) (domain.AuditStats, error) {
	return domain.AuditStats{}, assert.AnError
}

func TestAuditOutageDoesNotBlockDealCreation(t *testing.T) {
	store := memory.NewStore()
	recorder := audit.NewRecorder(brokenAuditRepo{}, zap.NewNop(), nil, 4)
	recorder.Start()
	defer recorder.Close()

	deals := NewDealService(DealDependencies{
		DealRepo:     store.Deals(),
		HistoryRepo:  store.DealHistory(),
		ActivityRepo: store.Activities(),
		Recorder:     recorder,
	})
	owner := Actor{User: &domain.User{ID: "u1", Email: "owner@example.com", Role: domain.RoleOwner, Active: true}}

	deal, err := deals.Create(context.Background(), owner, DealFields{Title: strPtr("Acme")})
	require.NoError(t, err)
	assert.NotEmpty(t, deal.ID)
}

func statusPtr(v domain.DealStatus) *domain.DealStatus { return &v }
