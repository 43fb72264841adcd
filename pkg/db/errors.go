package db

import (
	"strings"

	pkgerrors "github.com/angelmondragon/servicedesk-backend/pkg/errors"
)

// IsUniqueViolation reports whether err is a unique constraint failure, either a
// Postgres 23505 or the sqlite equivalent used in tests.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if pkgerrors.Dump(err).PGCode == "23505" {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "UNIQUE constraint failed")
}
