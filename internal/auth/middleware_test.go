package auth

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/backoffice/internal/domain"
	"github.com/spec-kit/backoffice/internal/repository/memory"
	apperrors "github.com/spec-kit/backoffice/pkg/util/errorutil"
)

func newMiddlewareTestApp(t *testing.T) (*fiber.App, *memory.Store, *TokenManager) {
	t.Helper()
	store := memory.NewStore()
	tokens := NewTokenManager("secret", 5)
	mw := NewAuthMiddleware(tokens, store.Users())

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			domainErr := apperrors.ToDomainError(err)
			return c.Status(domainErr.HTTPStatus).SendString(domainErr.Message)
		},
	})
	app.Get("/whoami", mw.Handle, func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("no principal")
		}
		return c.SendString(string(principal.User.Role))
	})
	return app, store, tokens
}

func TestAuthMiddleware(t *testing.T) {
	app, store, tokens := newMiddlewareTestApp(t)
	ctx := context.Background()

	active := &domain.User{Email: "admin@example.com", Role: domain.RoleAdmin, Active: true, PasswordHash: "x"}
	require.NoError(t, store.Users().Create(ctx, active))
	disabled := &domain.User{Email: "gone@example.com", Role: domain.RoleOwner, Active: false, PasswordHash: "x"}
	require.NoError(t, store.Users().Create(ctx, disabled))

	activeToken, _, err := tokens.GenerateToken(active)
	require.NoError(t, err)
	disabledToken, _, err := tokens.GenerateToken(disabled)
	require.NoError(t, err)
	ghostToken, _, err := tokens.GenerateToken(&domain.User{ID: "00000000-0000-0000-0000-000000000000", Role: domain.RoleOwner})
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{name: "missing header", header: "", wantStatus: fiber.StatusUnauthorized, wantBody: "missing authorization header"},
		{name: "wrong scheme", header: "Basic abc", wantStatus: fiber.StatusUnauthorized, wantBody: "invalid authorization header"},
		{name: "garbage token", header: "Bearer abc", wantStatus: fiber.StatusUnauthorized, wantBody: "invalid token"},
		{name: "deleted account", header: "Bearer " + ghostToken, wantStatus: fiber.StatusUnauthorized, wantBody: "account not found"},
		{name: "disabled account", header: "Bearer " + disabledToken, wantStatus: fiber.StatusUnauthorized, wantBody: "account disabled"},
		{name: "active account", header: "Bearer " + activeToken, wantStatus: fiber.StatusOK, wantBody: "admin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.header)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, tt.wantBody, string(body))
		})
	}
}

func TestAuthMiddlewareUsesCurrentRole(t *testing.T) {
	app, store, tokens := newMiddlewareTestApp(t)
	ctx := context.Background()

	user := &domain.User{Email: "mover@example.com", Role: domain.RoleAdmin, Active: true, PasswordHash: "x"}
	require.NoError(t, store.Users().Create(ctx, user))
	token, _, err := tokens.GenerateToken(user)
	require.NoError(t, err)

	user.Role = domain.RoleAnalyst
	require.NoError(t, store.Users().Update(ctx, user))

	req := httptest.NewRequest(fiber.MethodGet, "/whoami", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "analyst", string(body))
}
