package pkg

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	PgCodeUniqueViolation = "23505"
	PgCodeUndefinedTable  = "42P01"
)

// PgErrorCode returns the SQLSTATE code of a postgres error, or "" when err
// did not come from postgres.
func PgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func IsUniqueViolationError(err error) bool {
	return PgErrorCode(err) == PgCodeUniqueViolation
}
