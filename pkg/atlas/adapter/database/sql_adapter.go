// Package database adapts a database/sql connection to the tx contracts used by the
// Atlas data mapper. The adapter pair (connection and transaction) lets the mapper run
// the same statements inside and outside a physical transaction.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"

	"github.com/sunkan/Atlas.Orm/pkg/atlas/core/tx"
	"github.com/sunkan/Atlas.Orm/pkg/atlas/support/util/exception"
	"github.com/sunkan/Atlas.Orm/pkg/atlas/support/util/logger"
)

const moduleName = "database"

// SQLConnAdapter implements tx.Executor and tx.TransactionManager over a *sql.DB.
type SQLConnAdapter struct {
	db *sql.DB
	// driverName is kept for driver-specific error classification and logging.
	driverName string
}

// NewSQLConnAdapter wraps an open *sql.DB.
// driverName is the database/sql driver name the connection was opened with
// (e.g., "mysql", "sqlite3").
func NewSQLConnAdapter(db *sql.DB, driverName string) *SQLConnAdapter {
	return &SQLConnAdapter{db: db, driverName: driverName}
}

// Open opens a database/sql connection and wraps it.
// The caller owns the returned adapter and closes it when the scope ends.
func Open(driverName, dsn string) (*SQLConnAdapter, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, exception.NewMapperErrorf(moduleName, "failed to open %s connection: %w", driverName, err)
	}
	return NewSQLConnAdapter(db, driverName), nil
}

// DB exposes the underlying *sql.DB, e.g. for pool configuration by the caller.
func (a *SQLConnAdapter) DB() *sql.DB {
	return a.db
}

// Close closes the underlying connection pool.
func (a *SQLConnAdapter) Close() error {
	return a.db.Close()
}

// Exec implements tx.Executor on the plain connection.
func (a *SQLConnAdapter) Exec(ctx context.Context, query string, args ...interface{}) (tx.Result, error) {
	return execStatement(ctx, a.db, query, args...)
}

// Query implements tx.Executor on the plain connection.
func (a *SQLConnAdapter) Query(ctx context.Context, query string, args ...interface{}) ([]map[string]interface{}, error) {
	return queryStatement(ctx, a.db, query, args...)
}

// Begin implements tx.TransactionManager.
func (a *SQLConnAdapter) Begin(ctx context.Context, opts ...*sql.TxOptions) (tx.Tx, error) {
	var txOpts *sql.TxOptions
	if len(opts) > 0 {
		txOpts = opts[0]
	}
	sqlTx, err := a.db.BeginTx(ctx, txOpts)
	if err != nil {
		return nil, exception.NewMapperError(moduleName, "failed to begin transaction", err)
	}
	return &SQLTxAdapter{tx: sqlTx}, nil
}

// Commit implements tx.TransactionManager.
func (a *SQLConnAdapter) Commit(t tx.Tx) error {
	adapter, ok := t.(*SQLTxAdapter)
	if !ok {
		return exception.NewMapperErrorf(moduleName, "cannot commit: transaction is %T, not a SQL transaction", t)
	}
	if err := adapter.tx.Commit(); err != nil {
		return exception.NewMapperError(moduleName, "failed to commit transaction", err)
	}
	return nil
}

// Rollback implements tx.TransactionManager.
func (a *SQLConnAdapter) Rollback(t tx.Tx) error {
	adapter, ok := t.(*SQLTxAdapter)
	if !ok {
		return exception.NewMapperErrorf(moduleName, "cannot rollback: transaction is %T, not a SQL transaction", t)
	}
	if err := adapter.tx.Rollback(); err != nil {
		return exception.NewMapperError(moduleName, "failed to roll back transaction", err)
	}
	return nil
}

// SQLTxAdapter implements tx.Tx over a *sql.Tx.
type SQLTxAdapter struct {
	tx *sql.Tx
}

// Exec implements tx.Executor within the transaction.
func (t *SQLTxAdapter) Exec(ctx context.Context, query string, args ...interface{}) (tx.Result, error) {
	return execStatement(ctx, t.tx, query, args...)
}

// Query implements tx.Executor within the transaction.
func (t *SQLTxAdapter) Query(ctx context.Context, query string, args ...interface{}) ([]map[string]interface{}, error) {
	return queryStatement(ctx, t.tx, query, args...)
}

// Savepoint implements tx.Tx.
func (t *SQLTxAdapter) Savepoint(name string) error {
	if _, err := t.tx.Exec(fmt.Sprintf("SAVEPOINT %s", name)); err != nil {
		return exception.NewMapperErrorf(moduleName, "failed to create savepoint %s: %w", name, err)
	}
	return nil
}

// RollbackToSavepoint implements tx.Tx.
func (t *SQLTxAdapter) RollbackToSavepoint(name string) error {
	if _, err := t.tx.Exec(fmt.Sprintf("ROLLBACK TO SAVEPOINT %s", name)); err != nil {
		return exception.NewMapperErrorf(moduleName, "failed to roll back to savepoint %s: %w", name, err)
	}
	return nil
}

// executor is the subset of *sql.DB and *sql.Tx the helpers below need.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func execStatement(ctx context.Context, e executor, query string, args ...interface{}) (tx.Result, error) {
	res, err := e.ExecContext(ctx, query, args...)
	if err != nil {
		// Storage errors propagate unmodified; classification is the caller's concern.
		return tx.Result{}, err
	}
	out := tx.Result{}
	if out.RowsAffected, err = res.RowsAffected(); err != nil {
		return tx.Result{}, exception.NewMapperError(moduleName, "driver did not report an affected row count", err)
	}
	if id, idErr := res.LastInsertId(); idErr == nil {
		out.LastInsertID = id
		out.HasLastInsertID = true
	} else {
		// Some drivers (e.g., PostgreSQL-style) do not support LastInsertId.
		logger.Debugf("driver did not report a last-insert id: %v", idErr)
	}
	return out, nil
}

func queryStatement(ctx context.Context, e executor, query string, args ...interface{}) ([]map[string]interface{}, error) {
	rows, err := e.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, exception.NewMapperError(moduleName, "failed to read result columns", err)
	}

	var out []map[string]interface{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		scanArgs := make([]interface{}, len(columns))
		for i := range values {
			scanArgs[i] = &values[i]
		}
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, exception.NewMapperError(moduleName, "failed to scan result row", err)
		}
		rowMap := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			rowMap[col] = values[i]
		}
		out = append(out, rowMap)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// IsDuplicateKeyError reports whether the error is a unique/primary-key constraint
// violation from one of the wired drivers.
func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		// 1062: ER_DUP_ENTRY
		return mysqlErr.Number == 1062
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint &&
			(sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique || sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey)
	}
	return false
}

var (
	_ tx.Executor           = (*SQLConnAdapter)(nil)
	_ tx.TransactionManager = (*SQLConnAdapter)(nil)
	_ tx.Tx                 = (*SQLTxAdapter)(nil)
)
