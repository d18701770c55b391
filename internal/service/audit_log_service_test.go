package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/backoffice/internal/audit"
	"github.com/spec-kit/backoffice/internal/domain"
	apperrors "github.com/spec-kit/backoffice/pkg/util/errorutil"
)

func TestAuditLogView(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.actor(t, domain.RoleOwner)
	for i := 0; i < 3; i++ {
		env.createDeal(t, owner, "Deal")
	}
	_, err := env.auth.Login(ctx, domain.ClientMeta{}, owner.Email(), "correct-horse")
	require.NoError(t, err)
	env.recorder.Close()

	page, err := env.auditLog.Recent(ctx, env.actor(t, domain.RoleAdmin), 2)
	require.NoError(t, err)
	require.Len(t, page.Logs, 2)
	assert.Equal(t, audit.ActionLogin, page.Logs[0].Action)
	assert.EqualValues(t, 4, page.Stats.Total)
	assert.EqualValues(t, 3, page.Stats.ByAction[audit.ActionCreateDeal])

	_, err = env.auditLog.Recent(ctx, env.actor(t, domain.RoleMarketing), 10)
	assert.True(t, apperrors.HasCode(err, "FORBIDDEN"))
}
