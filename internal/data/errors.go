package data

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// Shared sentinel errors for data-layer repositories.
var (
	// Job repository sentinels.
	ErrJobNotFound = errors.New("job not found")

	// Interview repository sentinels.
	ErrInterviewNotFound = errors.New("interview not found")
)

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation, optionally scoped to a named constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	if pgErr.Code != pgerrcode.UniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
