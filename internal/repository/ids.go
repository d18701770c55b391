package repository

import "github.com/google/uuid"

// validID reports whether id can address a uuid key. Callers answer
// pgx.ErrNoRows for anything else so a malformed path parameter reads
// as a missing row rather than a driver encode error.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
