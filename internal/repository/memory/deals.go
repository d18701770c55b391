package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/backoffice/internal/domain"
	"github.com/spec-kit/backoffice/internal/repository"
)

type dealRepository struct {
	store *Store
}

func (r *dealRepository) Create(_ context.Context, deal *domain.Deal) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	deal.ID = newID()
	deal.CreatedAt = s.tick()
	deal.UpdatedAt = deal.CreatedAt
	s.deals[deal.ID] = cloneDeal(*deal)
	s.history = append(s.history, domain.DealStatusHistory{
		ID:        newID(),
		DealID:    deal.ID,
		NewStatus: deal.Status,
		ChangedBy: deal.CreatedBy,
		CreatedAt: deal.CreatedAt,
	})
	return nil
}

func (r *dealRepository) Update(_ context.Context, deal *domain.Deal) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.deals[deal.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	deal.Status = current.Status
	deal.Archived = current.Archived
	deal.CreatedBy = current.CreatedBy
	deal.CreatedAt = current.CreatedAt
	deal.UpdatedAt = s.tick()
	s.deals[deal.ID] = cloneDeal(*deal)
	return nil
}

func (r *dealRepository) GetByID(_ context.Context, id string) (*domain.Deal, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	deal, ok := s.deals[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	found := cloneDeal(deal)
	return &found, nil
}

func (r *dealRepository) List(_ context.Context, filter repository.DealFilter) ([]domain.Deal, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	result := []domain.Deal{}
	for _, deal := range s.deals {
		if deal.Archived && !filter.IncludeArchived {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, deal.Status) {
			continue
		}
		if search != "" && !dealMatches(deal, search) {
			continue
		}
		result = append(result, cloneDeal(deal))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].UpdatedAt.Equal(result[j].UpdatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	return result, nil
}

func (r *dealRepository) UpdateStatus(_ context.Context, id string, status domain.DealStatus, changedBy string, reason *string) (*domain.Deal, *domain.DealStatusHistory, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	deal, ok := s.deals[id]
	if !ok {
		return nil, nil, pgx.ErrNoRows
	}
	old := deal.Status
	deal.Status = status
	deal.UpdatedAt = s.tick()
	s.deals[id] = deal

	entry := domain.DealStatusHistory{
		ID:        newID(),
		DealID:    id,
		OldStatus: &old,
		NewStatus: status,
		ChangedBy: changedBy,
		Reason:    cloneString(reason),
		CreatedAt: deal.UpdatedAt,
	}
	s.history = append(s.history, entry)

	updated := cloneDeal(deal)
	return &updated, &entry, nil
}

func (r *dealRepository) SetArchived(_ context.Context, id string, archived bool) (*domain.Deal, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	deal, ok := s.deals[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	deal.Archived = archived
	deal.UpdatedAt = s.tick()
	s.deals[id] = deal
	updated := cloneDeal(deal)
	return &updated, nil
}

func (r *dealRepository) Delete(_ context.Context, id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.deals[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(s.deals, id)
	for activityID, activity := range s.activities {
		if activity.DealID == id {
			delete(s.activities, activityID)
		}
	}
	s.notes = filter(s.notes, func(note domain.DealNote) bool { return note.DealID != id })
	s.history = filter(s.history, func(entry domain.DealStatusHistory) bool { return entry.DealID != id })
	return nil
}

type dealHistoryRepository struct {
	store *Store
}

func (r *dealHistoryRepository) ListByDeal(_ context.Context, dealID string) ([]domain.DealStatusHistory, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []domain.DealStatusHistory{}
	for i := len(s.history) - 1; i >= 0; i-- {
		if s.history[i].DealID == dealID {
			result = append(result, s.history[i])
		}
	}
	return result, nil
}

func dealMatches(deal domain.Deal, search string) bool {
	for _, field := range []string{deal.Title, deal.Organization, deal.ContactName, deal.ContactEmail} {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}

func containsStatus(statuses []domain.DealStatus, status domain.DealStatus) bool {
	for _, candidate := range statuses {
		if candidate == status {
			return true
		}
	}
	return false
}

func cloneDeal(deal domain.Deal) domain.Deal {
	if deal.Margin != nil {
		margin := *deal.Margin
		deal.Margin = &margin
	}
	deal.ProposalType = cloneString(deal.ProposalType)
	deal.Channel = cloneString(deal.Channel)
	if deal.DueDate != nil {
		due := *deal.DueDate
		deal.DueDate = &due
	}
	if deal.DeliveryDate != nil {
		delivered := *deal.DeliveryDate
		deal.DeliveryDate = &delivered
	}
	return deal
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}

func filter[T any](items []T, keep func(T) bool) []T {
	result := items[:0]
	for _, item := range items {
		if keep(item) {
			result = append(result, item)
		}
	}
	return result
}
