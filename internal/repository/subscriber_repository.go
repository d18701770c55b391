package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/backoffice/internal/domain"
)

// SubscriberFilter narrows the subscriber listing.
type SubscriberFilter struct {
	Search string
	Status domain.SubscriberStatus
}

// SubscriberRepository persists the newsletter list.
type SubscriberRepository interface {
	Create(ctx context.Context, subscriber *domain.Subscriber) error
	Update(ctx context.Context, subscriber *domain.Subscriber) error
	GetByID(ctx context.Context, id string) (*domain.Subscriber, error)
	GetByEmail(ctx context.Context, email string) (*domain.Subscriber, error)
	List(ctx context.Context, filter SubscriberFilter) ([]domain.Subscriber, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (domain.SubscriberStats, error)
}

const subscriberColumns = `id, email, name, status, source, created_at, updated_at`

type subscriberRepository struct {
	pool *pgxpool.Pool
}

// NewSubscriberRepository builds repository.
func NewSubscriberRepository(pool *pgxpool.Pool) SubscriberRepository {
	return &subscriberRepository{pool: pool}
}

func (r *subscriberRepository) Create(ctx context.Context, subscriber *domain.Subscriber) error {
	const query = `
        INSERT INTO subscribers (email, name, status, source)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		subscriber.Email,
		subscriber.Name,
		subscriber.Status,
		subscriber.Source,
	).Scan(&subscriber.ID, &subscriber.CreatedAt, &subscriber.UpdatedAt)
}

func (r *subscriberRepository) Update(ctx context.Context, subscriber *domain.Subscriber) error {
	const query = `
        UPDATE subscribers SET email=$1, name=$2, status=$3, source=$4, updated_at=NOW()
        WHERE id=$5
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query,
		subscriber.Email,
		subscriber.Name,
		subscriber.Status,
		subscriber.Source,
		subscriber.ID,
	).Scan(&subscriber.UpdatedAt)
}

func (r *subscriberRepository) GetByID(ctx context.Context, id string) (*domain.Subscriber, error) {
	if !validID(id) {
		return nil, pgx.ErrNoRows
	}
	query := `SELECT ` + subscriberColumns + ` FROM subscribers WHERE id=$1`
	return scanSubscriber(r.pool.QueryRow(ctx, query, id))
}

func (r *subscriberRepository) GetByEmail(ctx context.Context, email string) (*domain.Subscriber, error) {
	query := `SELECT ` + subscriberColumns + ` FROM subscribers WHERE LOWER(email)=LOWER($1)`
	return scanSubscriber(r.pool.QueryRow(ctx, query, email))
}

func (r *subscriberRepository) List(ctx context.Context, filter SubscriberFilter) ([]domain.Subscriber, error) {
	base := `SELECT ` + subscriberColumns + ` FROM subscribers`
	var (
		clauses []string
		args    []any
	)
	if filter.Search != "" {
		args = append(args, containsPattern(filter.Search))
		clauses = append(clauses, fmt.Sprintf(`(LOWER(email) LIKE $%[1]d ESCAPE '\' OR LOWER(COALESCE(name, '')) LIKE $%[1]d ESCAPE '\')`, len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	query := base
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Subscriber{}
	for rows.Next() {
		subscriber, err := scanSubscriber(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *subscriber)
	}
	return result, rows.Err()
}

func (r *subscriberRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return pgx.ErrNoRows
	}
	cmd, err := r.pool.Exec(ctx, `DELETE FROM subscribers WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *subscriberRepository) Stats(ctx context.Context) (domain.SubscriberStats, error) {
	const query = `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE status='active'),
               COUNT(*) FILTER (WHERE status='unsubscribed')
        FROM subscribers`
	var stats domain.SubscriberStats
	err := r.pool.QueryRow(ctx, query).Scan(&stats.Total, &stats.Active, &stats.Unsubscribed)
	return stats, err
}

func scanSubscriber(row pgx.Row) (*domain.Subscriber, error) {
	var subscriber domain.Subscriber
	if err := row.Scan(
		&subscriber.ID,
		&subscriber.Email,
		&subscriber.Name,
		&subscriber.Status,
		&subscriber.Source,
		&subscriber.CreatedAt,
		&subscriber.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &subscriber, nil
}
