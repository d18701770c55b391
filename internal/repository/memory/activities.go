package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/backoffice/internal/domain"
)

type activityRepository struct {
	store *Store
}

func (r *activityRepository) Create(_ context.Context, activity *domain.Activity) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	// Mirrors the foreign key on deal_activities.deal_id.
	if _, ok := s.deals[activity.DealID]; !ok {
		return pgx.ErrNoRows
	}
	activity.ID = newID()
	activity.CreatedAt = s.tick()
	activity.UpdatedAt = activity.CreatedAt
	s.activities[activity.ID] = *activity
	return nil
}

func (r *activityRepository) GetByID(_ context.Context, id string) (*domain.Activity, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	activity, ok := s.activities[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &activity, nil
}

func (r *activityRepository) ListByDeal(_ context.Context, dealID string) ([]domain.Activity, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []domain.Activity{}
	for _, activity := range s.activities {
		if activity.DealID == dealID {
			result = append(result, activity)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i].ScheduledAt(time.UTC), result[j].ScheduledAt(time.UTC)
		if a.Equal(b) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return a.Before(b)
	})
	return result, nil
}

func (r *activityRepository) ListPendingByDeals(_ context.Context, dealIDs []string) (map[string][]domain.Activity, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[string]struct{}, len(dealIDs))
	for _, id := range dealIDs {
		wanted[id] = struct{}{}
	}
	grouped := make(map[string][]domain.Activity, len(dealIDs))
	for _, activity := range s.activities {
		if activity.Status != domain.ActivityStatusPending {
			continue
		}
		if _, ok := wanted[activity.DealID]; ok {
			grouped[activity.DealID] = append(grouped[activity.DealID], activity)
		}
	}
	return grouped, nil
}

func (r *activityRepository) Transition(_ context.Context, id string, status domain.ActivityStatus, completedAt *time.Time) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	activity, ok := s.activities[id]
	if !ok {
		return false, pgx.ErrNoRows
	}
	if activity.Status != domain.ActivityStatusPending {
		return false, nil
	}
	activity.Status = status
	activity.CompletedAt = completedAt
	activity.UpdatedAt = s.tick()
	s.activities[id] = activity
	return true, nil
}

type noteRepository struct {
	store *Store
}

func (r *noteRepository) Create(_ context.Context, note *domain.DealNote) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.deals[note.DealID]; !ok {
		return pgx.ErrNoRows
	}
	note.ID = newID()
	note.CreatedAt = s.tick()
	s.notes = append(s.notes, *note)
	return nil
}

func (r *noteRepository) ListByDeal(_ context.Context, dealID string) ([]domain.DealNote, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []domain.DealNote{}
	for i := len(s.notes) - 1; i >= 0; i-- {
		if s.notes[i].DealID == dealID {
			result = append(result, s.notes[i])
		}
	}
	return result, nil
}
