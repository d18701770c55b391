package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/backoffice/internal/domain"
)

// NoteRepository manages deal notes. Notes are never edited in place.
type NoteRepository interface {
	Create(ctx context.Context, note *domain.DealNote) error
	ListByDeal(ctx context.Context, dealID string) ([]domain.DealNote, error)
}

type noteRepository struct {
	pool *pgxpool.Pool
}

// NewNoteRepository builds repository.
func NewNoteRepository(pool *pgxpool.Pool) NoteRepository {
	return &noteRepository{pool: pool}
}

func (r *noteRepository) Create(ctx context.Context, note *domain.DealNote) error {
	const query = `
        INSERT INTO deal_notes (deal_id, author_id, content)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		note.DealID,
		note.AuthorID,
		note.Content,
	).Scan(&note.ID, &note.CreatedAt)
}

func (r *noteRepository) ListByDeal(ctx context.Context, dealID string) ([]domain.DealNote, error) {
	const query = `
        SELECT id, deal_id, author_id, content, created_at
        FROM deal_notes WHERE deal_id=$1 ORDER BY created_at DESC, id DESC`
	rows, err := r.pool.Query(ctx, query, dealID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.DealNote{}
	for rows.Next() {
		var note domain.DealNote
		if err := rows.Scan(&note.ID, &note.DealID, &note.AuthorID, &note.Content, &note.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, note)
	}
	return result, rows.Err()
}
