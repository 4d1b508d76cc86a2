package gateway_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunkan/Atlas.Orm/pkg/atlas/core/identity"
	"github.com/sunkan/Atlas.Orm/pkg/atlas/core/metadata"
	"github.com/sunkan/Atlas.Orm/pkg/atlas/core/row"
	"github.com/sunkan/Atlas.Orm/pkg/atlas/core/tx"
	"github.com/sunkan/Atlas.Orm/pkg/atlas/gateway"
	"github.com/sunkan/Atlas.Orm/pkg/atlas/support/util/exception"
)

func newPostsGateway(table *metadata.Table) *gateway.Gateway {
	return gateway.NewGateway(table, identity.NewMap(false), gateway.NewStatementBuilder())
}

func TestGateway_ResolveRowExistingInstanceWins(t *testing.T) {
	table := newPostsTable()
	g := newPostsGateway(table)

	first, err := g.ResolveRow(map[string]interface{}{"id": int64(1), "title": "original", "body": "b", "views": int64(0)})
	require.NoError(t, err)
	require.NoError(t, first.Set("title", "edited in memory"))

	// A re-fetch of the same identity returns the mutated in-memory instance,
	// not a fresh row built from the storage values.
	second, err := g.ResolveRow(map[string]interface{}{"id": int64(1), "title": "stale storage value", "body": "b", "views": int64(0)})
	require.NoError(t, err)
	assert.Same(t, first, second)
	title, _ := second.Get("title")
	assert.Equal(t, "edited in memory", title)
}

func TestGateway_ResolveRowRequiresPrimaryKey(t *testing.T) {
	g := newPostsGateway(newPostsTable())
	_, err := g.ResolveRow(map[string]interface{}{"title": "no key"})
	assert.Error(t, err)
}

func TestGateway_NewInsertSkipsUnsetAutoincrementKey(t *testing.T) {
	table := newPostsTable()
	g := newPostsGateway(table)
	r, err := row.NewRow(table, map[string]interface{}{"title": "t", "views": int64(0)})
	require.NoError(t, err)

	stmt, err := g.NewInsert(r)
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO posts (title, views) VALUES (?, ?)", stmt.SQL)
	assert.Equal(t, []interface{}{"t", int64(0)}, stmt.Args)
}

func TestGateway_NewInsertRejectsPersistedRows(t *testing.T) {
	table := newPostsTable()
	g := newPostsGateway(table)
	r, err := row.NewCleanRow(table, map[string]interface{}{"id": int64(1), "title": "t"})
	require.NoError(t, err)

	_, err = g.NewInsert(r)
	assert.True(t, errors.Is(err, exception.ErrCannotInsert))
}

func TestGateway_NewUpdateIsNoopForCleanRows(t *testing.T) {
	table := newPostsTable()
	g := newPostsGateway(table)
	r, err := row.NewCleanRow(table, map[string]interface{}{"id": int64(1), "title": "t"})
	require.NoError(t, err)

	stmt, err := g.NewUpdate(r)
	assert.NoError(t, err)
	assert.Nil(t, stmt)
}

func TestGateway_NewUpdateWritesExactlyTheDirtySet(t *testing.T) {
	table := newPostsTable()
	g := newPostsGateway(table)
	r, err := row.NewCleanRow(table, map[string]interface{}{"id": int64(1), "title": "t", "body": "b", "views": int64(0)})
	require.NoError(t, err)
	require.NoError(t, r.Set("views", int64(9)))
	require.NoError(t, r.Set("body", "bb"))

	stmt, err := g.NewUpdate(r)
	require.NoError(t, err)
	assert.Equal(t, "UPDATE posts SET body = ?, views = ? WHERE id = ?", stmt.SQL)
	assert.Equal(t, []interface{}{"bb", int64(9), int64(1)}, stmt.Args)
}

func TestGateway_NewUpdateRejectsNewAndDeletedRows(t *testing.T) {
	table := newPostsTable()
	g := newPostsGateway(table)

	fresh, err := row.NewRow(table, map[string]interface{}{"title": "t"})
	require.NoError(t, err)
	_, err = g.NewUpdate(fresh)
	assert.True(t, errors.Is(err, exception.ErrCannotUpdate))

	gone, err := row.NewCleanRow(table, map[string]interface{}{"id": int64(1), "title": "t"})
	require.NoError(t, err)
	require.NoError(t, gone.MarkDeleted())
	_, err = g.NewUpdate(gone)
	assert.True(t, errors.Is(err, exception.ErrCannotUpdate))
}

func TestGateway_NewDeleteGating(t *testing.T) {
	table := newPostsTable()
	g := newPostsGateway(table)

	fresh, err := row.NewRow(table, map[string]interface{}{"title": "never stored"})
	require.NoError(t, err)
	_, err = g.NewDelete(fresh)
	assert.True(t, errors.Is(err, exception.ErrCannotDelete))

	persisted, err := row.NewCleanRow(table, map[string]interface{}{"id": int64(3), "title": "t"})
	require.NoError(t, err)
	stmt, err := g.NewDelete(persisted)
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM posts WHERE id = ?", stmt.SQL)

	require.NoError(t, persisted.MarkDeleted())
	_, err = g.NewDelete(persisted)
	assert.True(t, errors.Is(err, exception.ErrCannotDelete))
}

func TestGateway_VerifyAffected(t *testing.T) {
	g := newPostsGateway(newPostsTable())

	tests := []struct {
		name    string
		kind    gateway.StatementKind
		rows    int64
		applied bool
		wantErr bool
	}{
		{"insert one row", gateway.KindInsert, 1, true, false},
		{"insert zero rows", gateway.KindInsert, 0, false, true},
		{"update one row", gateway.KindUpdate, 1, true, false},
		{"update many rows", gateway.KindUpdate, 2, false, true},
		{"delete one row", gateway.KindDelete, 1, true, false},
		{"delete absent row", gateway.KindDelete, 0, false, false},
		{"delete many rows", gateway.KindDelete, 3, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			applied, err := g.VerifyAffected(tt.kind, tx.Result{RowsAffected: tt.rows})
			assert.Equal(t, tt.applied, applied)
			if tt.wantErr {
				assert.True(t, exception.IsUnexpectedRowCount(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
