package service

import (
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/backoffice/internal/audit"
	"github.com/spec-kit/backoffice/internal/auth"
	"github.com/spec-kit/backoffice/internal/events"
	"github.com/spec-kit/backoffice/internal/notify"
	"github.com/spec-kit/backoffice/internal/repository"
)

// RegistryConfig carries the shared dependencies of every service.
type RegistryConfig struct {
	Repos        repository.Set
	Recorder     *audit.Recorder
	Dispatcher   events.Dispatcher
	TokenManager *auth.TokenManager
	Sender       notify.Sender
	Logger       *zap.Logger
	BcryptCost   int
	Now          func() time.Time
}

// Registry holds one instance of each business service.
type Registry struct {
	Deals         *DealService
	Activities    *ActivityService
	Subscribers   *SubscriberService
	Users         *UserService
	Auth          *AuthService
	AuditLog      *AuditLogService
	Notifications *NotificationService
}

// NewRegistry wires the services over a repository set.
func NewRegistry(cfg RegistryConfig) *Registry {
	return &Registry{
		Deals: NewDealService(DealDependencies{
			DealRepo:     cfg.Repos.Deals,
			HistoryRepo:  cfg.Repos.DealHistory,
			ActivityRepo: cfg.Repos.Activities,
			Recorder:     cfg.Recorder,
			Dispatcher:   cfg.Dispatcher,
			Now:          cfg.Now,
		}),
		Activities: NewActivityService(ActivityDependencies{
			DealRepo:     cfg.Repos.Deals,
			ActivityRepo: cfg.Repos.Activities,
			NoteRepo:     cfg.Repos.Notes,
			Dispatcher:   cfg.Dispatcher,
			Now:          cfg.Now,
		}),
		Subscribers: NewSubscriberService(SubscriberDependencies{
			SubscriberRepo: cfg.Repos.Subscribers,
			Recorder:       cfg.Recorder,
			Dispatcher:     cfg.Dispatcher,
		}),
		Users: NewUserService(UserDependencies{
			UserRepo:   cfg.Repos.Users,
			Recorder:   cfg.Recorder,
			BcryptCost: cfg.BcryptCost,
		}),
		Auth: NewAuthService(AuthDependencies{
			UserRepo:     cfg.Repos.Users,
			TokenManager: cfg.TokenManager,
			Recorder:     cfg.Recorder,
			Logger:       cfg.Logger,
			BcryptCost:   cfg.BcryptCost,
			Now:          cfg.Now,
		}),
		AuditLog:      NewAuditLogService(cfg.Recorder, cfg.Now),
		Notifications: NewNotificationService(cfg.Dispatcher, cfg.Sender, cfg.Logger),
	}
}
