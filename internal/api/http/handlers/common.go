package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/backoffice/internal/auth"
	"github.com/spec-kit/backoffice/internal/domain"
	"github.com/spec-kit/backoffice/internal/service"
	apperrors "github.com/spec-kit/backoffice/pkg/util/errorutil"
)

const dateLayout = "2006-01-02"

// actorFrom builds the service caller from the loaded principal. A missing
// principal yields an anonymous actor, which the gate rejects.
func actorFrom(c *fiber.Ctx) service.Actor {
	actor := service.Actor{Meta: clientMeta(c)}
	if principal, ok := auth.PrincipalFromContext(c); ok {
		actor.User = principal.User
	}
	return actor
}

func clientMeta(c *fiber.Ctx) domain.ClientMeta {
	return domain.ClientMeta{
		IPAddress: c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	}
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}

// parseDate reads an optional YYYY-MM-DD value. An empty string clears it.
func parseDate(field string, raw *string) (*time.Time, bool, error) {
	if raw == nil {
		return nil, false, nil
	}
	value := strings.TrimSpace(*raw)
	if value == "" {
		return nil, true, nil
	}
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, false, apperrors.NewValidationError(field+" must be YYYY-MM-DD", map[string]any{"field": field})
	}
	return &parsed, true, nil
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.Format(dateLayout)
	return &formatted
}
