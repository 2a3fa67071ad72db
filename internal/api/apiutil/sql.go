package apiutil

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

// IsSQLiteUniqueViolation reports whether err is a UNIQUE constraint failure.
func IsSQLiteUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
