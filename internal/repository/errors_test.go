package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", pgx.ErrNoRows, ErrNotFound},
		{"unique violation", &pgconn.PgError{Code: codeUniqueViolation, ConstraintName: "users_email_key"}, ErrDuplicate},
		{"serialization failure", &pgconn.PgError{Code: codeSerializationFailure}, ErrUnavailable},
		{"deadlock", &pgconn.PgError{Code: codeDeadlockDetected}, ErrUnavailable},
		{"lock timeout", &pgconn.PgError{Code: codeLockNotAvailable}, ErrUnavailable},
		{"statement cancelled", &pgconn.PgError{Code: codeQueryCanceled}, ErrUnavailable},
		{"deadline", context.DeadlineExceeded, ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, classify("op", tt.err), tt.want)
		})
	}

	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, classify("op", nil))
	})

	t.Run("other errors keep their cause", func(t *testing.T) {
		cause := &pgconn.PgError{Code: "42P01"}
		err := classify("op", cause)
		assert.ErrorIs(t, err, cause)
		assert.False(t, errors.Is(err, ErrUnavailable))
		assert.False(t, errors.Is(err, ErrDuplicate))
	})
}
