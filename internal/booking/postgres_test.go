package booking

import (
	"context"
	"errors"
	"net"
	"syscall"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapErr(t *testing.T) {
	assert.NoError(t, mapErr(nil))
	assert.ErrorIs(t, mapErr(pgx.ErrNoRows), ErrNotFound)

	assert.ErrorIs(t, mapErr(&pgconn.PgError{Code: "40001", Message: "serialization failure"}), ErrConflict)
	assert.ErrorIs(t, mapErr(&pgconn.PgError{Code: "55P03", Message: "lock not available"}), ErrConflict)

	// Constraint violations and the like pass through untranslated.
	checkErr := &pgconn.PgError{Code: "23514", Message: "check constraint violated"}
	assert.Equal(t, error(checkErr), mapErr(checkErr))

	// Dial failures surface as unavailable, not as a generic internal error.
	dialErr := &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}
	assert.ErrorIs(t, mapErr(dialErr), ErrPersistenceUnavailable)

	assert.ErrorIs(t, mapErr(context.DeadlineExceeded), ErrPersistenceUnavailable)

	plain := errors.New("mutate failed")
	assert.Equal(t, plain, mapErr(plain))
}
