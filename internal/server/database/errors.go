package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/dmitrijs2005/workloadtracker/internal/common"
)

// dbError attaches a taxonomy kind to a raw engine error without hiding it.
type dbError struct {
	kind error
	err  error
}

func (e *dbError) Error() string { return e.err.Error() }

func (e *dbError) Unwrap() []error { return []error{e.kind, e.err} }

// MySQL server error numbers that mean a constraint was violated.
var mysqlConstraintErrors = map[uint16]struct{}{
	1062: {}, // duplicate entry
	1216: {}, // child row: foreign key fails
	1217: {}, // parent row: foreign key fails
	1451: {}, // cannot delete or update a parent row
	1452: {}, // cannot add or update a child row
	3819: {}, // check constraint violated
}

// MapError classifies engine errors into the common taxonomy:
// constraint violations become ErrConflict, missing rows ErrNotFound and
// unreachable engines or exceeded timeouts ErrConnectivity. Errors that are
// already classified, and anything unrecognised, are returned unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if isClassified(err) {
		return err
	}

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return &dbError{kind: common.ErrNotFound, err: err}
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone),
		errors.Is(err, mysql.ErrInvalidConn):
		return &dbError{kind: common.ErrConnectivity, err: err}
	}

	var me *mysql.MySQLError
	if errors.As(err, &me) {
		if _, ok := mysqlConstraintErrors[me.Number]; ok {
			return &dbError{kind: common.ErrConflict, err: err}
		}
		return err
	}

	var ne net.Error
	if errors.As(err, &ne) {
		return &dbError{kind: common.ErrConnectivity, err: err}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "constraint failed"),
		strings.Contains(msg, "duplicate entry"),
		strings.Contains(msg, "unique constraint"):
		return &dbError{kind: common.ErrConflict, err: err}
	case strings.Contains(msg, "database is closed"),
		strings.Contains(msg, "connection refused"):
		return &dbError{kind: common.ErrConnectivity, err: err}
	}

	return err
}

func isClassified(err error) bool {
	for _, kind := range []error{
		common.ErrNotFound, common.ErrConflict, common.ErrConnectivity,
		common.ErrValidation, common.ErrForbidden, common.ErrUnauthorized,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

// IsConflict is shorthand for errors.Is(err, common.ErrConflict).
func IsConflict(err error) bool {
	return errors.Is(err, common.ErrConflict)
}
