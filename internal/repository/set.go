package repository

import "github.com/jackc/pgx/v5/pgxpool"

// Set groups one implementation of every repository.
type Set struct {
	Users       UserRepository
	Deals       DealRepository
	DealHistory DealHistoryRepository
	Activities  ActivityRepository
	Notes       NoteRepository
	Subscribers SubscriberRepository
	Audit       AuditRepository
}

// NewPostgresSet builds the pgx-backed repositories over pool.
func NewPostgresSet(pool *pgxpool.Pool) Set {
	return Set{
		Users:       NewUserRepository(pool),
		Deals:       NewDealRepository(pool),
		DealHistory: NewDealHistoryRepository(pool),
		Activities:  NewActivityRepository(pool),
		Notes:       NewNoteRepository(pool),
		Subscribers: NewSubscriberRepository(pool),
		Audit:       NewAuditRepository(pool),
	}
}
