// Package pgutils classifies PostgreSQL errors.
package pgutils

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes
// See: https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	// Class 23: integrity constraint violation
	CodeUniqueViolation     = "23505"
	CodeForeignKeyViolation = "23503"
	CodeNotNullViolation    = "23502"
	CodeInvalidTextRep      = "22P02"
)

// IsUniqueViolation checks for a unique constraint violation (23505).
func IsUniqueViolation(err error) bool {
	return hasCode(err, CodeUniqueViolation)
}

// IsForeignKeyViolation checks for a foreign key violation (23503).
func IsForeignKeyViolation(err error) bool {
	return hasCode(err, CodeForeignKeyViolation)
}

// IsNotNullViolation checks for a not-null constraint violation (23502).
func IsNotNullViolation(err error) bool {
	return hasCode(err, CodeNotNullViolation)
}

// IsInvalidTextRepresentation checks for malformed input such as bad JSON (22P02).
func IsInvalidTextRepresentation(err error) bool {
	return hasCode(err, CodeInvalidTextRep)
}

// hasCode prefers the structured pgconn error and falls back to the message
// for drivers that only surface SQLSTATE in text.
func hasCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return strings.Contains(err.Error(), "SQLSTATE "+code)
}
