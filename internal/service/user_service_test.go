package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/backoffice/internal/auth"
	"github.com/spec-kit/backoffice/internal/domain"
	apperrors "github.com/spec-kit/backoffice/pkg/util/errorutil"
)

func TestCreateUserOwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.actor(t, domain.RoleOwner)

	input := UserInput{Email: "New@Example.com", Name: "New", Role: domain.RoleAnalyst, Password: "long-enough"}
	_, err := env.users.Create(ctx, env.actor(t, domain.RoleAdmin), input)
	assert.True(t, apperrors.HasCode(err, "FORBIDDEN"))

	user, err := env.users.Create(ctx, owner, input)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", user.Email)
	assert.True(t, user.Active)
	assert.NotEqual(t, "long-enough", user.PasswordHash)
	require.NoError(t, auth.ComparePassword(user.PasswordHash, "long-enough"))

	_, err = env.users.Create(ctx, owner, input)
	assert.True(t, apperrors.HasCode(err, "CONFLICT"))

	_, err = env.users.Create(ctx, owner, UserInput{Email: "weak@example.com", Role: domain.RoleAdmin, Password: "short"})
	assert.True(t, apperrors.HasCode(err, "VALIDATION_FAILED"))
	_, err = env.users.Create(ctx, owner, UserInput{Email: "role@example.com", Role: "root", Password: "long-enough"})
	assert.True(t, apperrors.HasCode(err, "VALIDATION_FAILED"))
}

func TestDeleteLastOwnerIsRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.actor(t, domain.RoleOwner)

	err := env.users.Delete(ctx, owner, owner.ID())
	assert.True(t, apperrors.HasCode(err, "PERMISSION_DENIED"))

	second := env.actor(t, domain.RoleOwner)
	analyst := env.actor(t, domain.RoleAnalyst)
	require.NoError(t, env.users.Delete(ctx, owner, analyst.ID()))
	require.NoError(t, env.users.Delete(ctx, owner, second.ID()))

	err = env.users.Delete(ctx, owner, owner.ID())
	assert.True(t, apperrors.HasCode(err, "PERMISSION_DENIED"))
	_, err = env.store.Users().GetByID(ctx, owner.ID())
	require.NoError(t, err)
}

func TestDemoteOrDeactivateLastOwnerIsRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.actor(t, domain.RoleOwner)

	admin := domain.RoleAdmin
	_, err := env.users.Update(ctx, owner, owner.ID(), UserPatch{Role: &admin})
	assert.True(t, apperrors.HasCode(err, "PERMISSION_DENIED"))

	_, err = env.users.Update(ctx, owner, owner.ID(), UserPatch{})
	assert.True(t, apperrors.HasCode(err, "PERMISSION_DENIED"))

	stored, err := env.store.Users().GetByID(ctx, owner.ID())
	require.NoError(t, err)
	assert.True(t, stored.IsActiveOwner())
}

func TestToggleAndChangeRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.actor(t, domain.RoleOwner)
	marketing := env.actor(t, domain.RoleMarketing)

	toggled, err := env.users.Update(ctx, owner, marketing.ID(), UserPatch{})
	require.NoError(t, err)
	assert.False(t, toggled.Active)
	toggled, err = env.users.Update(ctx, owner, marketing.ID(), UserPatch{})
	require.NoError(t, err)
	assert.True(t, toggled.Active)

	promoted := domain.RoleOwner
	updated, err := env.users.Update(ctx, owner, marketing.ID(), UserPatch{Role: &promoted})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleOwner, updated.Role)

	inactive := false
	_, err = env.users.Update(ctx, owner, owner.ID(), UserPatch{Active: &inactive})
	require.NoError(t, err)

	users, err := env.users.List(ctx, Actor{User: updated})
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestBootstrapOwnerOnlyOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner, err := env.users.BootstrapOwner(ctx, "boss@example.com", "Boss", "long-enough")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleOwner, owner.Role)

	_, err = env.users.BootstrapOwner(ctx, "other@example.com", "Other", "long-enough")
	assert.True(t, apperrors.HasCode(err, "CONFLICT"))
}
