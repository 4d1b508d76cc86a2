// Package tx provides the abstraction for transaction management in the Atlas data mapper.
// It contracts the storage connection at its interface boundary: beginning, committing
// and rolling back a physical transaction, executing a parameterized statement and
// reporting the affected-row count plus any auto-generated key, and savepoints for
// nested rollback.
package tx

import (
	"context"
	"database/sql"
)

// Result reports the outcome of a single write statement.
type Result struct {
	// RowsAffected is the number of rows the statement touched, as reported by the
	// storage engine.
	RowsAffected int64
	// LastInsertID is the auto-generated key produced by an insert, when the driver
	// supports retrieving one.
	LastInsertID int64
	// HasLastInsertID reports whether LastInsertID carries a meaningful value.
	HasLastInsertID bool
}

// Executor defines the write and read operations executable both on a plain connection
// and within an open transaction, allowing data operations to be performed the same
// way regardless of the presence of a transaction.
type Executor interface {
	// Exec executes a parameterized write statement (INSERT, UPDATE, DELETE).
	// Failures are reported as a returned error, never as a silent bad result.
	Exec(ctx context.Context, query string, args ...interface{}) (Result, error)

	// Query executes a parameterized select and returns the result rows as ordered
	// column-name to value maps. Only the selected columns appear in each map, which
	// is what lets a partial select leave the remaining columns uninitialized.
	Query(ctx context.Context, query string, args ...interface{}) ([]map[string]interface{}, error)
}

// Tx represents an ongoing database transaction.
type Tx interface {
	Executor

	// Savepoint creates a named savepoint within the current transaction, allowing a
	// later partial rollback to this point.
	Savepoint(name string) error

	// RollbackToSavepoint rolls the transaction back to the named savepoint, undoing
	// changes made after it while preserving changes made before it.
	RollbackToSavepoint(name string) error
}

// TransactionManager manages the lifecycle of database transactions.
type TransactionManager interface {
	// Begin starts a new database transaction.
	Begin(ctx context.Context, opts ...*sql.TxOptions) (Tx, error)
	// Commit commits the given transaction, making all its changes durable.
	Commit(tx Tx) error
	// Rollback rolls back the given transaction, undoing all its changes.
	Rollback(tx Tx) error
}
