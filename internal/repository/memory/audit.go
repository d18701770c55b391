package memory

import (
	"context"
	"time"

	"github.com/spec-kit/backoffice/internal/domain"
)

type auditRepository struct {
	store *Store
}

func (r *auditRepository) Create(_ context.Context, entry *domain.AuditLogEntry) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.ID = newID()
	entry.CreatedAt = s.tick()
	s.audit = append(s.audit, *entry)
	return nil
}

func (r *auditRepository) ListRecent(_ context.Context, limit int) ([]domain.AuditLogEntry, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []domain.AuditLogEntry{}
	for i := len(s.audit) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, s.audit[i])
	}
	return result, nil
}

func (r *auditRepository) Stats(_ context.Context, since time.Time) (domain.AuditStats, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := domain.AuditStats{ByAction: map[string]int64{}}
	for _, entry := range s.audit {
		stats.Total++
		if !entry.CreatedAt.Before(since) {
			stats.Last24h++
		}
		stats.ByAction[entry.Action]++
	}
	return stats, nil
}
