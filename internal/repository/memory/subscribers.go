package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/backoffice/internal/domain"
	"github.com/spec-kit/backoffice/internal/repository"
)

type subscriberRepository struct {
	store *Store
}

func (r *subscriberRepository) Create(_ context.Context, subscriber *domain.Subscriber) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.subscriberByEmail(subscriber.Email, "") != nil {
		return duplicate("subscribers_email_lower_idx")
	}
	subscriber.ID = newID()
	subscriber.CreatedAt = s.tick()
	subscriber.UpdatedAt = subscriber.CreatedAt
	s.subscribers[subscriber.ID] = *subscriber
	return nil
}

func (r *subscriberRepository) Update(_ context.Context, subscriber *domain.Subscriber) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.subscribers[subscriber.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if s.subscriberByEmail(subscriber.Email, subscriber.ID) != nil {
		return duplicate("subscribers_email_lower_idx")
	}
	subscriber.CreatedAt = current.CreatedAt
	subscriber.UpdatedAt = s.tick()
	s.subscribers[subscriber.ID] = *subscriber
	return nil
}

func (r *subscriberRepository) GetByID(_ context.Context, id string) (*domain.Subscriber, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	subscriber, ok := s.subscribers[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &subscriber, nil
}

func (r *subscriberRepository) GetByEmail(_ context.Context, email string) (*domain.Subscriber, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	subscriber := s.subscriberByEmail(email, "")
	if subscriber == nil {
		return nil, pgx.ErrNoRows
	}
	return subscriber, nil
}

func (r *subscriberRepository) List(_ context.Context, filter repository.SubscriberFilter) ([]domain.Subscriber, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(filter.Search)
	result := []domain.Subscriber{}
	for _, subscriber := range s.subscribers {
		if filter.Status != "" && subscriber.Status != filter.Status {
			continue
		}
		if search != "" {
			name := ""
			if subscriber.Name != nil {
				name = strings.ToLower(*subscriber.Name)
			}
			if !strings.Contains(strings.ToLower(subscriber.Email), search) && !strings.Contains(name, search) {
				continue
			}
		}
		result = append(result, subscriber)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *subscriberRepository) Delete(_ context.Context, id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subscribers[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(s.subscribers, id)
	return nil
}

func (r *subscriberRepository) Stats(_ context.Context) (domain.SubscriberStats, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats domain.SubscriberStats
	for _, subscriber := range s.subscribers {
		stats.Total++
		switch subscriber.Status {
		case domain.SubscriberActive:
			stats.Active++
		case domain.SubscriberUnsubscribed:
			stats.Unsubscribed++
		}
	}
	return stats, nil
}

func (s *Store) subscriberByEmail(email, skip string) *domain.Subscriber {
	for id, subscriber := range s.subscribers {
		if id != skip && strings.EqualFold(subscriber.Email, email) {
			found := subscriber
			return &found
		}
	}
	return nil
}
