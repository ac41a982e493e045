package visitor

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapUniqueViolation(t *testing.T) {
	t.Run("duplicate key becomes retryable conflict", func(t *testing.T) {
		pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "visitors_occ_student_id_key"}
		err := mapUniqueViolation(pgErr)
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("other pg errors pass through", func(t *testing.T) {
		pgErr := &pgconn.PgError{Code: "23503"}
		err := mapUniqueViolation(pgErr)
		assert.NotErrorIs(t, err, ErrConflict)
		assert.ErrorIs(t, err, error(pgErr))
	})

	t.Run("non-pg errors pass through", func(t *testing.T) {
		plain := errors.New("connection reset")
		assert.Equal(t, plain, mapUniqueViolation(plain))
	})
}
