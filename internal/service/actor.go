package service

import (
	"context"
	"time"

	"github.com/spec-kit/backoffice/internal/audit"
	"github.com/spec-kit/backoffice/internal/auth"
	"github.com/spec-kit/backoffice/internal/domain"
	"github.com/spec-kit/backoffice/internal/events"
	apperrors "github.com/spec-kit/backoffice/pkg/util/errorutil"
)

// Actor is the authenticated caller of an administrative operation.
type Actor struct {
	User *domain.User
	Meta domain.ClientMeta
}

// Email returns the actor's email, or "anonymous" for public callers.
func (a Actor) Email() string {
	if a.User == nil {
		return "anonymous"
	}
	return a.User.Email
}

// ID returns the actor's account id, or "" for public callers.
func (a Actor) ID() string {
	if a.User == nil {
		return ""
	}
	return a.User.ID
}

func (a Actor) authorize(op auth.Operation) error {
	return auth.Check(a.User, op)
}

// storeError maps repository errors, naming resource in not-found cases.
func storeError(err error, resource string) error {
	if apperrors.IsNotFound(err) {
		return apperrors.NewNotFound(resource, nil)
	}
	return apperrors.MapError(err)
}

func record(recorder *audit.Recorder, actor Actor, action, resource, details string) {
	recorder.Record(audit.Entry{
		ActorEmail: actor.Email(),
		Action:     action,
		Resource:   resource,
		Details:    details,
		Meta:       actor.Meta,
	})
}

func publish(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	_ = dispatcher.Publish(ctx, event)
}

func clockOrDefault(now func() time.Time) func() time.Time {
	if now == nil {
		return time.Now
	}
	return now
}
