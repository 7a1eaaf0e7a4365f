package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes that mean the destination table cannot be reached at all:
// the table or schema does not exist, or the role lacks privilege. These
// are the fatal "destination unavailable" class, distinct from data errors
// during ingestion.
const (
	codeUndefinedTable        = "42P01"
	codeInvalidSchemaName     = "3F000"
	codeInsufficientPrivilege = "42501"
)

// IsDestinationUnavailable reports whether err indicates a missing or
// inaccessible destination table.
func IsDestinationUnavailable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case codeUndefinedTable, codeInvalidSchemaName, codeInsufficientPrivilege:
		return true
	}
	return false
}
