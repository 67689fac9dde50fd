// Package database defines the driver-neutral contract every SQL backend
// implements. All layers above this package talk only to the DB interface —
// they never import the postgres or mysql packages directly.
package database

import "context"

// DB is the central contract for all database operations.
// Implementations are connection pools: each Query/Exec call acquires a
// connection, uses it, and releases it on every exit path.
type DB interface {
	// Ping verifies the database is reachable.
	Ping(ctx context.Context) error

	// Close releases all resources held by the connection pool.
	Close()

	// Query executes a SQL statement that returns multiple rows.
	Query(ctx context.Context, sql string, args ...any) (Rows, error)

	// QueryRow executes a SQL statement that returns at most one row.
	QueryRow(ctx context.Context, sql string, args ...any) Row

	// Exec executes a statement that returns no rows (INSERT without
	// RETURNING, UPDATE, DELETE) and reports affected rows and, where the
	// backend supports it, the last generated auto-increment id.
	Exec(ctx context.Context, sql string, args ...any) (ExecResult, error)
}

// ExecResult carries the outcome of a write statement.
type ExecResult struct {
	RowsAffected int64

	// LastInsertID is the backend-generated id of the inserted row.
	// Zero on backends that only expose generated values via RETURNING.
	LastInsertID int64
}

// Rows is an abstraction over a database result set.
// Callers must always call Close() when done, even on error.
type Rows interface {
	// Next advances to the next row.
	// Returns false when no more rows exist or on error.
	Next() bool

	// Scan copies the current row's columns into the provided destinations.
	Scan(dest ...any) error

	// Columns returns the column names of the result set.
	Columns() ([]string, error)

	// Close releases resources held by the result set.
	Close()

	// Err returns any error encountered during iteration.
	Err() error
}

// Row is an abstraction over a single database row.
type Row interface {
	Scan(dest ...any) error
}
