package http

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/backoffice/internal/api/http/handlers"
	"github.com/spec-kit/backoffice/internal/auth"
	"github.com/spec-kit/backoffice/internal/ratelimit"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Deals          *handlers.DealsHandler
	Activities     *handlers.ActivitiesHandler
	Subscribers    *handlers.SubscribersHandler
	Users          *handlers.UsersHandler
	Logs           *handlers.LogsHandler
	AuthMiddleware *auth.AuthMiddleware
	// PublicLimiter guards unauthenticated endpoints, keyed by client IP.
	PublicLimiter ratelimit.Limiter
	// APILimiter guards authenticated endpoints, keyed by account.
	APILimiter ratelimit.Limiter
	Logger     *zap.Logger
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	publicLimit := RateLimit(cfg.PublicLimiter, ByClientIP("public"), cfg.Logger)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", publicLimit, cfg.Auth.Login)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Auth.Me)
	authGroup.Post("/logout", cfg.AuthMiddleware.Handle, cfg.Auth.Logout)

	newsletter := app.Group("/newsletter", publicLimit)
	newsletter.Post("/subscribe", cfg.Subscribers.Subscribe)
	newsletter.Post("/unsubscribe", cfg.Subscribers.Unsubscribe)

	protected := app.Group("", cfg.AuthMiddleware.Handle, RateLimit(cfg.APILimiter, ByAccount("api"), cfg.Logger))

	deals := protected.Group("/deals")
	deals.Get("/", cfg.Deals.List)
	deals.Post("/", cfg.Deals.Create)
	deals.Get("/export", cfg.Deals.Export)
	deals.Get("/:id", cfg.Deals.Get)
	deals.Put("/:id", cfg.Deals.Update)
	deals.Delete("/:id", cfg.Deals.Delete)
	deals.Put("/:id/status", cfg.Deals.SetStatus)
	deals.Put("/:id/reopen", cfg.Deals.Reopen)
	deals.Put("/:id/archive", cfg.Deals.Archive)
	deals.Get("/:id/history", cfg.Deals.History)
	deals.Get("/:id/activities", cfg.Activities.List)
	deals.Post("/:id/activities", cfg.Activities.Create)
	deals.Get("/:id/notes", cfg.Activities.ListNotes)
	deals.Post("/:id/notes", cfg.Activities.AddNote)

	activities := protected.Group("/activities")
	activities.Get("/:id", cfg.Activities.Get)
	activities.Put("/:id/complete", cfg.Activities.Complete)
	activities.Put("/:id/cancel", cfg.Activities.Cancel)

	subscribers := protected.Group("/subscribers")
	subscribers.Get("/", cfg.Subscribers.List)
	subscribers.Post("/", cfg.Subscribers.Create)
	subscribers.Get("/stats", cfg.Subscribers.Stats)
	subscribers.Patch("/:id", cfg.Subscribers.Update)
	subscribers.Delete("/:id", cfg.Subscribers.Delete)

	users := protected.Group("/users")
	users.Get("/", cfg.Users.List)
	users.Post("/", cfg.Users.Create)
	users.Patch("/:id", cfg.Users.Update)
	users.Delete("/:id", cfg.Users.Delete)

	protected.Get("/logs", cfg.Logs.List)
}
