package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/backoffice/internal/api/dto"
	"github.com/spec-kit/backoffice/internal/auth"
	"github.com/spec-kit/backoffice/internal/service"
	apperrors "github.com/spec-kit/backoffice/pkg/util/errorutil"
)

// AuthHandler exposes session endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	result, err := h.auth.Login(c.UserContext(), clientMeta(c), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.LoginResponse{
		Success:     true,
		AccessToken: result.Token,
		TokenType:   "Bearer",
		ExpiresAt:   result.ExpiresAt,
		User:        userResponse(*result.User),
	})
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	return c.JSON(fiber.Map{"success": true, "user": userResponse(*principal.User)})
}

// Logout handles POST /auth/logout. Tokens are stateless, so the client
// simply discards its copy.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true})
}
