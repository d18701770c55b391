package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/backoffice/internal/domain"
)

type userRepository struct {
	store *Store
}

func (r *userRepository) Create(_ context.Context, user *domain.User) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.userByEmail(user.Email, "") != nil {
		return duplicate("users_email_lower_idx")
	}
	user.ID = newID()
	user.CreatedAt = s.tick()
	user.UpdatedAt = user.CreatedAt
	s.users[user.ID] = *user
	return nil
}

func (r *userRepository) Update(_ context.Context, user *domain.User) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.users[user.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if s.userByEmail(user.Email, user.ID) != nil {
		return duplicate("users_email_lower_idx")
	}
	user.CreatedAt = current.CreatedAt
	user.LastLoginAt = current.LastLoginAt
	user.UpdatedAt = s.tick()
	s.users[user.ID] = *user
	return nil
}

func (r *userRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	user := s.userByEmail(email, "")
	if user == nil {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}

func (r *userRepository) List(_ context.Context) ([]domain.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.User, 0, len(s.users))
	for _, user := range s.users {
		result = append(result, user)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r *userRepository) Delete(_ context.Context, id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(s.users, id)
	return nil
}

func (r *userRepository) CountActiveOwners(_ context.Context) (int, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, user := range s.users {
		if user.IsActiveOwner() {
			count++
		}
	}
	return count, nil
}

func (r *userRepository) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.LastLoginAt = &at
	s.users[id] = user
	return nil
}

// userByEmail returns a copy of the user with the given email, ignoring the
// account with id skip. Callers hold mu.
func (s *Store) userByEmail(email, skip string) *domain.User {
	for id, user := range s.users {
		if id != skip && strings.EqualFold(user.Email, email) {
			found := user
			return &found
		}
	}
	return nil
}
