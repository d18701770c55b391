package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/backoffice/internal/domain"
)

// DealFilter captures pipeline listing parameters.
type DealFilter struct {
	Search          string
	Statuses        []domain.DealStatus
	IncludeArchived bool
}

// DealRepository encapsulates deal persistence.
type DealRepository interface {
	// Create inserts the deal together with its initial history row.
	Create(ctx context.Context, deal *domain.Deal) error
	// Update writes every mutable field except status and archived.
	Update(ctx context.Context, deal *domain.Deal) error
	GetByID(ctx context.Context, id string) (*domain.Deal, error)
	List(ctx context.Context, filter DealFilter) ([]domain.Deal, error)
	// UpdateStatus changes the stage and appends one history row atomically.
	UpdateStatus(ctx context.Context, id string, status domain.DealStatus, changedBy string, reason *string) (*domain.Deal, *domain.DealStatusHistory, error)
	SetArchived(ctx context.Context, id string, archived bool) (*domain.Deal, error)
	// Delete removes the deal with its activities, notes and history.
	Delete(ctx context.Context, id string) error
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const dealColumns = `id, title, organization, contact_name, contact_email, contact_phone, value, quality_lead,
               status, margin, proposal_type, channel, due_date, delivery_date, notes, archived,
               created_by, created_at, updated_at`

type dealRepository struct {
	pool *pgxpool.Pool
}

// NewDealRepository instantiates repository.
func NewDealRepository(pool *pgxpool.Pool) DealRepository {
	return &dealRepository{pool: pool}
}

func (r *dealRepository) Create(ctx context.Context, deal *domain.Deal) error {
	const query = `
        INSERT INTO deals (title, organization, contact_name, contact_email, contact_phone, value, quality_lead,
            status, margin, proposal_type, channel, due_date, delivery_date, notes, archived, created_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
        RETURNING id, created_at, updated_at`
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, query,
			deal.Title,
			deal.Organization,
			deal.ContactName,
			deal.ContactEmail,
			deal.ContactPhone,
			deal.Value,
			deal.QualityLead,
			deal.Status,
			deal.Margin,
			deal.ProposalType,
			deal.Channel,
			deal.DueDate,
			deal.DeliveryDate,
			deal.Notes,
			deal.Archived,
			deal.CreatedBy,
		).Scan(&deal.ID, &deal.CreatedAt, &deal.UpdatedAt); err != nil {
			return err
		}
		return insertHistory(ctx, tx, &domain.DealStatusHistory{
			DealID:    deal.ID,
			NewStatus: deal.Status,
			ChangedBy: deal.CreatedBy,
		})
	})
}

func (r *dealRepository) Update(ctx context.Context, deal *domain.Deal) error {
	const query = `
        UPDATE deals SET title=$1, organization=$2, contact_name=$3, contact_email=$4, contact_phone=$5,
            value=$6, quality_lead=$7, margin=$8, proposal_type=$9, channel=$10, due_date=$11,
            delivery_date=$12, notes=$13, updated_at=NOW()
        WHERE id=$14
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query,
		deal.Title,
		deal.Organization,
		deal.ContactName,
		deal.ContactEmail,
		deal.ContactPhone,
		deal.Value,
		deal.QualityLead,
		deal.Margin,
		deal.ProposalType,
		deal.Channel,
		deal.DueDate,
		deal.DeliveryDate,
		deal.Notes,
		deal.ID,
	).Scan(&deal.UpdatedAt)
}

func (r *dealRepository) GetByID(ctx context.Context, id string) (*domain.Deal, error) {
	if !validID(id) {
		return nil, pgx.ErrNoRows
	}
	query := `SELECT ` + dealColumns + ` FROM deals WHERE id=$1`
	return scanDeal(r.pool.QueryRow(ctx, query, id))
}

func (r *dealRepository) List(ctx context.Context, filter DealFilter) ([]domain.Deal, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if !filter.IncludeArchived {
		clauses = append(clauses, "archived = FALSE")
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, containsPattern(search))
		p := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			`(LOWER(title) LIKE %[1]s ESCAPE '\' OR LOWER(organization) LIKE %[1]s ESCAPE '\'
              OR LOWER(contact_name) LIKE %[1]s ESCAPE '\' OR LOWER(contact_email) LIKE %[1]s ESCAPE '\')`, p))
	}

	query := fmt.Sprintf(`SELECT %s FROM deals WHERE %s ORDER BY updated_at DESC, id`,
		dealColumns, strings.Join(clauses, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Deal{}
	for rows.Next() {
		deal, err := scanDeal(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *deal)
	}
	return result, rows.Err()
}

func (r *dealRepository) UpdateStatus(ctx context.Context, id string, status domain.DealStatus, changedBy string, reason *string) (*domain.Deal, *domain.DealStatusHistory, error) {
	var (
		deal  *domain.Deal
		entry *domain.DealStatusHistory
	)
	if !validID(id) {
		return nil, nil, pgx.ErrNoRows
	}
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var old domain.DealStatus
		if err := tx.QueryRow(ctx, `SELECT status FROM deals WHERE id=$1 FOR UPDATE`, id).Scan(&old); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE deals SET status=$1, updated_at=NOW() WHERE id=$2`, status, id); err != nil {
			return err
		}
		entry = &domain.DealStatusHistory{
			DealID:    id,
			OldStatus: &old,
			NewStatus: status,
			ChangedBy: changedBy,
			Reason:    reason,
		}
		if err := insertHistory(ctx, tx, entry); err != nil {
			return err
		}
		var err error
		deal, err = scanDeal(tx.QueryRow(ctx, `SELECT `+dealColumns+` FROM deals WHERE id=$1`, id))
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return deal, entry, nil
}

func (r *dealRepository) SetArchived(ctx context.Context, id string, archived bool) (*domain.Deal, error) {
	if !validID(id) {
		return nil, pgx.ErrNoRows
	}
	query := `UPDATE deals SET archived=$1, updated_at=NOW() WHERE id=$2 RETURNING ` + dealColumns
	return scanDeal(r.pool.QueryRow(ctx, query, archived, id))
}

func (r *dealRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return pgx.ErrNoRows
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		for _, stmt := range []string{
			`DELETE FROM deal_activities WHERE deal_id=$1`,
			`DELETE FROM deal_notes WHERE deal_id=$1`,
			`DELETE FROM deal_status_history WHERE deal_id=$1`,
		} {
			if _, err := tx.Exec(ctx, stmt, id); err != nil {
				return err
			}
		}
		cmd, err := tx.Exec(ctx, `DELETE FROM deals WHERE id=$1`, id)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	})
}

func scanDeal(row pgx.Row) (*domain.Deal, error) {
	var deal domain.Deal
	if err := row.Scan(
		&deal.ID,
		&deal.Title,
		&deal.Organization,
		&deal.ContactName,
		&deal.ContactEmail,
		&deal.ContactPhone,
		&deal.Value,
		&deal.QualityLead,
		&deal.Status,
		&deal.Margin,
		&deal.ProposalType,
		&deal.Channel,
		&deal.DueDate,
		&deal.DeliveryDate,
		&deal.Notes,
		&deal.Archived,
		&deal.CreatedBy,
		&deal.CreatedAt,
		&deal.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &deal, nil
}
