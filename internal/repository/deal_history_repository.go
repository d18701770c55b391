package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/backoffice/internal/domain"
)

// DealHistoryRepository reads the stage-change trail. Rows are written only
// by DealRepository so that each change is paired with its history entry.
type DealHistoryRepository interface {
	ListByDeal(ctx context.Context, dealID string) ([]domain.DealStatusHistory, error)
}

type dealHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewDealHistoryRepository builds repository.
func NewDealHistoryRepository(pool *pgxpool.Pool) DealHistoryRepository {
	return &dealHistoryRepository{pool: pool}
}

func insertHistory(ctx context.Context, q querier, history *domain.DealStatusHistory) error {
	const query = `
        INSERT INTO deal_status_history (deal_id, old_status, new_status, changed_by, reason)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return q.QueryRow(ctx, query,
		history.DealID,
		history.OldStatus,
		history.NewStatus,
		history.ChangedBy,
		history.Reason,
	).Scan(&history.ID, &history.CreatedAt)
}

func (r *dealHistoryRepository) ListByDeal(ctx context.Context, dealID string) ([]domain.DealStatusHistory, error) {
	const query = `
        SELECT id, deal_id, old_status, new_status, changed_by, reason, created_at
        FROM deal_status_history WHERE deal_id=$1 ORDER BY created_at DESC, id DESC`
	rows, err := r.pool.Query(ctx, query, dealID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.DealStatusHistory{}
	for rows.Next() {
		var history domain.DealStatusHistory
		if err := rows.Scan(
			&history.ID,
			&history.DealID,
			&history.OldStatus,
			&history.NewStatus,
			&history.ChangedBy,
			&history.Reason,
			&history.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, history)
	}
	return result, rows.Err()
}
