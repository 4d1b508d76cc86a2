// Package database_test provides unit tests for the SQL connection and transaction
// adapters over a mocked driver.
package database_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunkan/Atlas.Orm/pkg/atlas/adapter/database"
)

func setupAdapter(t *testing.T) (*database.SQLConnAdapter, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	return database.NewSQLConnAdapter(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSQLConnAdapter_ExecReportsAffectedAndGeneratedKey(t *testing.T) {
	a, mock, cleanup := setupAdapter(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO posts (title) VALUES (?)").
		WithArgs("t").
		WillReturnResult(sqlmock.NewResult(42, 1))

	res, err := a.Exec(context.Background(), "INSERT INTO posts (title) VALUES (?)", "t")
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.RowsAffected)
	assert.True(t, res.HasLastInsertID)
	assert.Equal(t, int64(42), res.LastInsertID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLConnAdapter_QueryReturnsColumnMaps(t *testing.T) {
	a, mock, cleanup := setupAdapter(t)
	defer cleanup()

	mock.ExpectQuery("SELECT id, title FROM posts").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).
			AddRow(int64(1), "first").
			AddRow(int64(2), "second"))

	rows, err := a.Query(context.Background(), "SELECT id, title FROM posts")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0]["id"])
	assert.Equal(t, "first", rows[0]["title"])
	assert.Equal(t, int64(2), rows[1]["id"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLConnAdapter_TransactionLifecycle(t *testing.T) {
	a, mock, cleanup := setupAdapter(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE posts SET title = ? WHERE id = ?").
		WithArgs("t", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := a.Begin(context.Background())
	require.NoError(t, err)
	_, err = tx.Exec(context.Background(), "UPDATE posts SET title = ? WHERE id = ?", "t", int64(1))
	require.NoError(t, err)
	require.NoError(t, a.Commit(tx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLTxAdapter_Savepoints(t *testing.T) {
	a, mock, cleanup := setupAdapter(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec("SAVEPOINT sp_1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("ROLLBACK TO SAVEPOINT sp_1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	tx, err := a.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Savepoint("sp_1"))
	require.NoError(t, tx.RollbackToSavepoint("sp_1"))
	require.NoError(t, a.Rollback(tx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsDuplicateKeyError(t *testing.T) {
	assert.True(t, database.IsDuplicateKeyError(&mysql.MySQLError{Number: 1062}))
	assert.False(t, database.IsDuplicateKeyError(&mysql.MySQLError{Number: 1146}))

	assert.True(t, database.IsDuplicateKeyError(sqlite3.Error{
		Code:         sqlite3.ErrConstraint,
		ExtendedCode: sqlite3.ErrConstraintUnique,
	}))
	assert.True(t, database.IsDuplicateKeyError(sqlite3.Error{
		Code:         sqlite3.ErrConstraint,
		ExtendedCode: sqlite3.ErrConstraintPrimaryKey,
	}))
	assert.False(t, database.IsDuplicateKeyError(sqlite3.Error{
		Code:         sqlite3.ErrConstraint,
		ExtendedCode: sqlite3.ErrConstraintCheck,
	}))

	assert.False(t, database.IsDuplicateKeyError(nil))
	assert.False(t, database.IsDuplicateKeyError(errors.New("other")))
}
