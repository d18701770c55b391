// Package memory provides in-process implementations of the repository
// interfaces. It backs the API when no Postgres DSN is configured and is
// used by service and handler tests.
package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/backoffice/internal/domain"
	"github.com/spec-kit/backoffice/internal/repository"
)

const uniqueViolation = "23505"

// Store holds every table behind a single lock so that multi-table
// operations such as deal deletion stay atomic.
type Store struct {
	mu sync.RWMutex

	users       map[string]domain.User
	deals       map[string]domain.Deal
	history     []domain.DealStatusHistory
	activities  map[string]domain.Activity
	notes       []domain.DealNote
	subscribers map[string]domain.Subscriber
	audit       []domain.AuditLogEntry

	now  func() time.Time
	last time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		users:       map[string]domain.User{},
		deals:       map[string]domain.Deal{},
		activities:  map[string]domain.Activity{},
		subscribers: map[string]domain.Subscriber{},
		now:         time.Now,
	}
}

// WithClock overrides the time source. Intended for tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
	return s
}

// Users exposes the user table.
func (s *Store) Users() repository.UserRepository { return &userRepository{store: s} }

// Deals exposes the deal table.
func (s *Store) Deals() repository.DealRepository { return &dealRepository{store: s} }

// DealHistory exposes the status history.
func (s *Store) DealHistory() repository.DealHistoryRepository {
	return &dealHistoryRepository{store: s}
}

// Activities exposes scheduled follow-ups.
func (s *Store) Activities() repository.ActivityRepository { return &activityRepository{store: s} }

// Notes exposes deal notes.
func (s *Store) Notes() repository.NoteRepository { return &noteRepository{store: s} }

// Subscribers exposes the newsletter list.
func (s *Store) Subscribers() repository.SubscriberRepository {
	return &subscriberRepository{store: s}
}

// Audit exposes the audit log.
func (s *Store) Audit() repository.AuditRepository { return &auditRepository{store: s} }

// tick returns a timestamp strictly after the previous one. Callers hold mu.
func (s *Store) tick() time.Time {
	t := s.now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

func newID() string {
	return uuid.NewString()
}

func duplicate(constraint string) error {
	return &pgconn.PgError{Code: uniqueViolation, ConstraintName: constraint, Message: "duplicate key value violates unique constraint"}
}

// Set exposes every table as a repository.Set.
func (s *Store) Set() repository.Set {
	return repository.Set{
		Users:       s.Users(),
		Deals:       s.Deals(),
		DealHistory: s.DealHistory(),
		Activities:  s.Activities(),
		Notes:       s.Notes(),
		Subscribers: s.Subscribers(),
		Audit:       s.Audit(),
	}
}
