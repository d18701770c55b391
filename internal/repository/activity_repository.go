package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/backoffice/internal/domain"
)

// ActivityRepository persists scheduled follow-ups.
type ActivityRepository interface {
	Create(ctx context.Context, activity *domain.Activity) error
	GetByID(ctx context.Context, id string) (*domain.Activity, error)
	ListByDeal(ctx context.Context, dealID string) ([]domain.Activity, error)
	// ListPendingByDeals groups pending activities by deal id.
	ListPendingByDeals(ctx context.Context, dealIDs []string) (map[string][]domain.Activity, error)
	// Transition moves a pending activity to a terminal status. It reports
	// false without error when the activity exists but is no longer pending.
	Transition(ctx context.Context, id string, status domain.ActivityStatus, completedAt *time.Time) (bool, error)
}

const activityColumns = `id, deal_id, title, description, activity_type, status, scheduled_date, scheduled_time,
               completed_at, created_by, assigned_to, created_at, updated_at`

type activityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository constructs repository.
func NewActivityRepository(pool *pgxpool.Pool) ActivityRepository {
	return &activityRepository{pool: pool}
}

func (r *activityRepository) Create(ctx context.Context, activity *domain.Activity) error {
	const query = `
        INSERT INTO deal_activities (deal_id, title, description, activity_type, status, scheduled_date, scheduled_time,
            created_by, assigned_to)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		activity.DealID,
		activity.Title,
		activity.Description,
		activity.Type,
		activity.Status,
		activity.ScheduledDate,
		activity.ScheduledTime,
		activity.CreatedBy,
		activity.AssignedTo,
	).Scan(&activity.ID, &activity.CreatedAt, &activity.UpdatedAt)
}

func (r *activityRepository) GetByID(ctx context.Context, id string) (*domain.Activity, error) {
	if !validID(id) {
		return nil, pgx.ErrNoRows
	}
	query := `SELECT ` + activityColumns + ` FROM deal_activities WHERE id=$1`
	return scanActivity(r.pool.QueryRow(ctx, query, id))
}

func (r *activityRepository) ListByDeal(ctx context.Context, dealID string) ([]domain.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM deal_activities WHERE deal_id=$1
        ORDER BY scheduled_date ASC, scheduled_time ASC NULLS FIRST, created_at ASC`
	rows, err := r.pool.Query(ctx, query, dealID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanActivities(rows)
}

func (r *activityRepository) ListPendingByDeals(ctx context.Context, dealIDs []string) (map[string][]domain.Activity, error) {
	grouped := make(map[string][]domain.Activity, len(dealIDs))
	if len(dealIDs) == 0 {
		return grouped, nil
	}
	query := `SELECT ` + activityColumns + ` FROM deal_activities
        WHERE deal_id::text = ANY($1) AND status = 'pending'`
	rows, err := r.pool.Query(ctx, query, dealIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activities, err := scanActivities(rows)
	if err != nil {
		return nil, err
	}
	for _, activity := range activities {
		grouped[activity.DealID] = append(grouped[activity.DealID], activity)
	}
	return grouped, nil
}

func (r *activityRepository) Transition(ctx context.Context, id string, status domain.ActivityStatus, completedAt *time.Time) (bool, error) {
	if !validID(id) {
		return false, pgx.ErrNoRows
	}
	const query = `
        UPDATE deal_activities SET status=$1, completed_at=$2, updated_at=NOW()
        WHERE id=$3 AND status='pending'`
	cmd, err := r.pool.Exec(ctx, query, status, completedAt, id)
	if err != nil {
		return false, err
	}
	if cmd.RowsAffected() == 1 {
		return true, nil
	}
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM deal_activities WHERE id=$1)`, id).Scan(&exists); err != nil {
		return false, err
	}
	if !exists {
		return false, pgx.ErrNoRows
	}
	return false, nil
}

func scanActivity(row pgx.Row) (*domain.Activity, error) {
	var activity domain.Activity
	if err := row.Scan(
		&activity.ID,
		&activity.DealID,
		&activity.Title,
		&activity.Description,
		&activity.Type,
		&activity.Status,
		&activity.ScheduledDate,
		&activity.ScheduledTime,
		&activity.CompletedAt,
		&activity.CreatedBy,
		&activity.AssignedTo,
		&activity.CreatedAt,
		&activity.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &activity, nil
}

func scanActivities(rows pgx.Rows) ([]domain.Activity, error) {
	result := []domain.Activity{}
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *activity)
	}
	return result, rows.Err()
}
