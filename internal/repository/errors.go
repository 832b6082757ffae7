// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services and handlers to distinguish between failure scenarios. For
// example, ErrForbidden indicates that the caller does not own the
// resource, ErrConflict signals that another account already holds it and
// ErrDuplicate that the caller itself already created the same record.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup by key matches no row.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write collides with state owned by
// someone else, such as a venue already booked by another artist on
// the same day. Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrDuplicate is returned when the same actor repeats a write that a
// unique index already holds.
var ErrDuplicate = errors.New("duplicate")

// ErrEmailExists is returned when an account email is already taken.
var ErrEmailExists = errors.New("email already exists")

const mysqlDupEntry = 1062

// isDuplicateKey reports whether err is a MySQL unique key violation.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDupEntry
}
