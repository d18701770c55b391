package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestToDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{name: "domain error passes through", err: NewForbidden("nope"), wantCode: "FORBIDDEN", wantStatus: http.StatusForbidden},
		{name: "wrapped domain error", err: fmt.Errorf("ctx: %w", NewConflict("dup", nil)), wantCode: "CONFLICT", wantStatus: http.StatusConflict},
		{name: "no rows", err: pgx.ErrNoRows, wantCode: "NOT_FOUND", wantStatus: http.StatusNotFound},
		{name: "malformed uuid", err: &pgconn.PgError{Code: "22P02"}, wantCode: "NOT_FOUND", wantStatus: http.StatusNotFound},
		{name: "unique violation", err: &pgconn.PgError{Code: "23505", ConstraintName: "users_email_lower_idx"}, wantCode: "CONFLICT", wantStatus: http.StatusConflict},
		{name: "anything else", err: errors.New("connection reset"), wantCode: "STORAGE_ERROR", wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToDomainError(tt.err)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.Equal(t, tt.wantStatus, got.HTTPStatus)
		})
	}
}

func TestPermissionErrorIsBadRequest(t *testing.T) {
	err := NewPermissionError("cannot delete the last owner", nil)
	assert.True(t, HasCode(err, "PERMISSION_DENIED"))
	assert.Equal(t, http.StatusBadRequest, ToDomainError(err).HTTPStatus)
}

func TestMapErrorPreservesNil(t *testing.T) {
	assert.NoError(t, MapError(nil))
	assert.Nil(t, ToDomainError(nil))
}

func TestStorageErrorUnwraps(t *testing.T) {
	cause := errors.New("disk full")
	err := NewStorageError(cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "storage unavailable: disk full", err.Error())
}
