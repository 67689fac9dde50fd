package mysql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"apiforge/internal/errs"
)

// MySQL server error numbers relevant to this driver.
// Full list: https://dev.mysql.com/doc/mysql-errors/8.0/en/server-error-reference.html
const (
	errAccessDenied    = 1045
	errUnknownDatabase = 1049
	errHostBlocked     = 1129
	errHostNotAllowed  = 1130
	errUnknownColumn   = 1054
	errSyntaxError     = 1064
	errNoSuchTable     = 1146
)

// mapError translates go-sql-driver native errors into *errs.Error.
// The raw driver message stays in Cause and never reaches clients.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	if errors.Is(err, sql.ErrNoRows) {
		return errs.Wrap(errs.ErrKindNotFound, "record not found", err)
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case errAccessDenied, errUnknownDatabase, errHostBlocked, errHostNotAllowed:
			return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
		default:
			return errs.Wrap(errs.ErrKindQueryFailed, msg, err)
		}
	}

	if errors.Is(err, mysql.ErrInvalidConn) || errors.Is(err, sql.ErrConnDone) {
		return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
	}

	// Fallthrough: dial / TLS / protocol errors.
	return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
}
