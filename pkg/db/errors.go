package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const sqlStateUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique-constraint violation from
// Postgres or SQLite. When constraintName is set, the constraint (or, on SQLite,
// an indexed column) must appear in the error as well.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != sqlStateUniqueViolation {
			return false
		}
		return constraintName == "" || pgErr.ConstraintName == constraintName
	}

	msg := err.Error()
	unique := strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "UNIQUE constraint failed")
	if !unique {
		return false
	}
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return true
}
