// Package repository holds the MySQL data access layer.  Errors shared by
// repositories are defined here so handlers can map them to HTTP statuses
// without importing driver packages.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/venue-seat-layout/internal/session"
)

// ErrLayoutNotFound is returned when a layout lookup finds no row.  It is
// the same value as session.ErrNotFound so a LayoutRepo satisfies the
// session.Store contract.  Handlers translate it into an HTTP 404.
var ErrLayoutNotFound = session.ErrNotFound

// mysqlDuplicateEntry is the server error number for a unique key clash.
const mysqlDuplicateEntry = 1062

// isDuplicateKey reports whether err is a MySQL duplicate key error, which
// for layouts means another editor created the row first.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
