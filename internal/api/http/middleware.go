package http

import (
	"context"
	"errors"
	"math"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"github.com/spec-kit/backoffice/internal/auth"
	"github.com/spec-kit/backoffice/internal/observability"
	"github.com/spec-kit/backoffice/internal/ratelimit"
	apperrors "github.com/spec-kit/backoffice/pkg/util/errorutil"
)

// MiddlewareConfig controls the global middleware chain.
type MiddlewareConfig struct {
	Timeout time.Duration
	// ExposeErrors adds the wrapped internal error to error responses.
	ExposeErrors bool
}

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, cfg MiddlewareConfig) {
	app.Use(requestid.New())
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(errorHandlingMiddleware(logger, metrics, cfg.ExposeErrors))
	if cfg.Timeout > 0 {
		app.Use(requestTimeoutMiddleware(cfg.Timeout))
	}
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics, exposeErrors bool) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := toDomainError(err)
				metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
				response := fiber.Map{
					"success": false,
					"code":    domainErr.Code,
					"message": domainErr.Message,
				}
				if len(domainErr.Details) > 0 {
					response["details"] = domainErr.Details
				}
				if exposeErrors && domainErr.Err != nil {
					response["error"] = domainErr.Err.Error()
				}
				if domainErr.HTTPStatus >= fiber.StatusInternalServerError {
					logger.Error("request failed", zap.String("path", c.Path()), zap.Error(domainErr))
				}
				c.Status(domainErr.HTTPStatus)
				_ = c.JSON(response)
				err = nil
			}
		}()
		return c.Next()
	}
}

// toDomainError also covers errors raised by fiber itself, such as unknown
// routes and malformed bodies.
func toDomainError(err error) *apperrors.DomainError {
	var fiberErr *fiber.Error
	if !errors.As(err, &fiberErr) {
		return apperrors.ToDomainError(err)
	}
	switch fiberErr.Code {
	case fiber.StatusNotFound:
		return apperrors.NewDomainError("NOT_FOUND", fiberErr.Message, fiberErr.Code, nil)
	case fiber.StatusMethodNotAllowed:
		return apperrors.NewDomainError("METHOD_NOT_ALLOWED", fiberErr.Message, fiberErr.Code, nil)
	case fiber.StatusRequestEntityTooLarge:
		return apperrors.NewDomainError("PAYLOAD_TOO_LARGE", fiberErr.Message, fiberErr.Code, nil)
	}
	if fiberErr.Code < fiber.StatusInternalServerError {
		return apperrors.NewDomainError("VALIDATION_FAILED", fiberErr.Message, fiberErr.Code, nil)
	}
	return apperrors.ToDomainError(apperrors.NewInternalError(fiberErr))
}

// KeyFunc derives the limiter bucket for a request.
type KeyFunc func(c *fiber.Ctx) string

// ByClientIP buckets requests by remote address.
func ByClientIP(prefix string) KeyFunc {
	return func(c *fiber.Ctx) string {
		return prefix + ":ip:" + c.IP()
	}
}

// ByAccount buckets requests by authenticated account, falling back to the
// remote address when no principal is loaded.
func ByAccount(prefix string) KeyFunc {
	return func(c *fiber.Ctx) string {
		if principal, ok := auth.PrincipalFromContext(c); ok {
			return prefix + ":user:" + principal.User.ID
		}
		return prefix + ":ip:" + c.IP()
	}
}

// RateLimit rejects requests over the limiter's budget with 429. Backend
// failures are logged and the request is let through.
func RateLimit(limiter ratelimit.Limiter, key KeyFunc, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if limiter == nil {
			return c.Next()
		}
		decision, err := limiter.Allow(c.UserContext(), key(c))
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.Error(err))
			return c.Next()
		}
		c.Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		if !decision.Allowed {
			seconds := int(math.Ceil(decision.RetryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(seconds))
			return apperrors.NewTooManyRequests("too many requests")
		}
		return c.Next()
	}
}
