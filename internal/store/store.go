// Package store provides the persistence layer: plain SQL CRUD and
// aggregate queries over the users, categories and items tables. Functions
// return (nil, nil) for missing rows; callers treat absence as a value,
// not an error.
package store

import (
	"errors"

	"modernc.org/sqlite"
)

// ErrConflict wraps SQLite constraint violations (duplicate email/username/
// category name, dangling category reference) so handlers can map them to a
// client error with errors.Is.
var ErrConflict = errors.New("constraint violation")

// sqliteConstraint is the SQLITE_CONSTRAINT primary result code. Extended
// codes (UNIQUE, PRIMARYKEY, FOREIGNKEY, ...) carry it in their low byte.
const sqliteConstraint = 19

// isConstraintViolation reports whether err is any SQLite constraint
// failure.
func isConstraintViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code()&0xff == sqliteConstraint
	}
	return false
}

// wrapConflict converts constraint failures into ErrConflict and passes
// other errors through.
func wrapConflict(err error) error {
	if isConstraintViolation(err) {
		return ErrConflict
	}
	return err
}
