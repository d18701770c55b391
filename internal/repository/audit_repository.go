package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/backoffice/internal/domain"
)

// AuditRepository appends and reads audit log entries. There is no update
// or delete path.
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditLogEntry) error
	ListRecent(ctx context.Context, limit int) ([]domain.AuditLogEntry, error)
	Stats(ctx context.Context, since time.Time) (domain.AuditStats, error)
}

type auditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository constructs repository.
func NewAuditRepository(pool *pgxpool.Pool) AuditRepository {
	return &auditRepository{pool: pool}
}

func (r *auditRepository) Create(ctx context.Context, entry *domain.AuditLogEntry) error {
	const query = `
        INSERT INTO audit_logs (actor_email, action, resource, details, ip_address, user_agent)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.ActorEmail,
		entry.Action,
		entry.Resource,
		entry.Details,
		entry.IPAddress,
		entry.UserAgent,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *auditRepository) ListRecent(ctx context.Context, limit int) ([]domain.AuditLogEntry, error) {
	const query = `
        SELECT id, actor_email, action, resource, details, ip_address, user_agent, created_at
        FROM audit_logs ORDER BY created_at DESC, id DESC LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.AuditLogEntry{}
	for rows.Next() {
		var entry domain.AuditLogEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.ActorEmail,
			&entry.Action,
			&entry.Resource,
			&entry.Details,
			&entry.IPAddress,
			&entry.UserAgent,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *auditRepository) Stats(ctx context.Context, since time.Time) (domain.AuditStats, error) {
	stats := domain.AuditStats{ByAction: map[string]int64{}}
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE created_at >= $1) FROM audit_logs`, since,
	).Scan(&stats.Total, &stats.Last24h); err != nil {
		return stats, err
	}

	rows, err := r.pool.Query(ctx, `SELECT action, COUNT(*) FROM audit_logs GROUP BY action`)
	if err != nil {
		return stats, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			action string
			count  int64
		)
		if err := rows.Scan(&action, &count); err != nil {
			return stats, err
		}
		stats.ByAction[action] = count
	}
	return stats, rows.Err()
}
