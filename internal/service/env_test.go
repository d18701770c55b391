package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/backoffice/internal/audit"
	"github.com/spec-kit/backoffice/internal/auth"
	"github.com/spec-kit/backoffice/internal/domain"
	"github.com/spec-kit/backoffice/internal/events"
	"github.com/spec-kit/backoffice/internal/repository/memory"
)

type testEnv struct {
	store       *memory.Store
	recorder    *audit.Recorder
	dispatcher  events.Dispatcher
	now         time.Time
	deals       *DealService
	activities  *ActivityService
	subscribers *SubscriberService
	users       *UserService
	auth        *AuthService
	auditLog    *AuditLogService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		store:      memory.NewStore(),
		dispatcher: events.NewInMemoryDispatcher(zap.NewNop()),
		now:        time.Date(2024, 6, 12, 15, 30, 0, 0, time.UTC),
	}
	clock := func() time.Time { return env.now }
	env.recorder = audit.NewRecorder(env.store.Audit(), zap.NewNop(), nil, 64)
	env.recorder.Start()
	t.Cleanup(env.recorder.Close)

	registry := NewRegistry(RegistryConfig{
		Repos:        env.store.Set(),
		Recorder:     env.recorder,
		Dispatcher:   env.dispatcher,
		TokenManager: auth.NewTokenManager("test-secret", 60),
		Logger:       zap.NewNop(),
		BcryptCost:   bcrypt.MinCost,
		Now:          clock,
	})
	env.deals = registry.Deals
	env.activities = registry.Activities
	env.subscribers = registry.Subscribers
	env.users = registry.Users
	env.auth = registry.Auth
	env.auditLog = registry.AuditLog
	return env
}

// actor stores an active account with role and returns it as a caller.
func (env *testEnv) actor(t *testing.T, role domain.Role) Actor {
	t.Helper()
	hash, err := auth.HashPassword("correct-horse", bcrypt.MinCost)
	require.NoError(t, err)
	user := &domain.User{
		Email:        string(role) + "-" + uuid.NewString() + "@example.com",
		Name:         string(role),
		Role:         role,
		Active:       true,
		PasswordHash: hash,
	}
	require.NoError(t, env.store.Users().Create(context.Background(), user))
	return Actor{User: user, Meta: domain.ClientMeta{IPAddress: "127.0.0.1", UserAgent: "go-test"}}
}

func (env *testEnv) createDeal(t *testing.T, actor Actor, title string) *domain.Deal {
	t.Helper()
	deal, err := env.deals.Create(context.Background(), actor, DealFields{Title: strPtr(title)})
	require.NoError(t, err)
	return deal
}

func strPtr(v string) *string { return &v }

func floatPtr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }

func timePtr(v time.Time) *time.Time { return &v }
