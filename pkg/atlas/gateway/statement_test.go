// Package gateway_test provides unit tests for statement generation and the
// gateway's write-decision logic.
package gateway_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunkan/Atlas.Orm/pkg/atlas/core/metadata"
	"github.com/sunkan/Atlas.Orm/pkg/atlas/gateway"
)

func newPostsTable() *metadata.Table {
	return &metadata.Table{
		Name:          "posts",
		Columns:       []string{"id", "title", "body", "views"},
		PrimaryKey:    []string{"id"},
		AutoIncrement: true,
	}
}

func newOrderLinesTable() *metadata.Table {
	return &metadata.Table{
		Name:       "order_lines",
		Columns:    []string{"order_id", "line_no", "sku", "qty"},
		PrimaryKey: []string{"order_id", "line_no"},
	}
}

func TestStatementBuilder_Insert(t *testing.T) {
	b := gateway.NewStatementBuilder()
	stmt, err := b.Insert(newPostsTable(), []string{"title", "body"}, []interface{}{"t", "b"})
	require.NoError(t, err)

	assert.Equal(t, gateway.KindInsert, stmt.Kind)
	assert.Equal(t, "posts", stmt.Table)
	assert.Equal(t, "INSERT INTO posts (title, body) VALUES (?, ?)", stmt.SQL)
	assert.Equal(t, []interface{}{"t", "b"}, stmt.Args)

	_, err = b.Insert(newPostsTable(), nil, nil)
	assert.Error(t, err)
}

func TestStatementBuilder_UpdateKeysOnFullPrimaryKey(t *testing.T) {
	b := gateway.NewStatementBuilder()
	stmt, err := b.Update(newOrderLinesTable(), []string{"qty"}, []interface{}{3}, []interface{}{int64(10), int64(2)})
	require.NoError(t, err)

	assert.Equal(t, "UPDATE order_lines SET qty = ? WHERE order_id = ? AND line_no = ?", stmt.SQL)
	assert.Equal(t, []interface{}{3, int64(10), int64(2)}, stmt.Args)

	_, err = b.Update(newOrderLinesTable(), []string{"qty"}, []interface{}{3}, []interface{}{int64(10)})
	assert.Error(t, err)
}

func TestStatementBuilder_Delete(t *testing.T) {
	b := gateway.NewStatementBuilder()
	stmt, err := b.Delete(newPostsTable(), []interface{}{int64(5)})
	require.NoError(t, err)

	assert.Equal(t, "DELETE FROM posts WHERE id = ?", stmt.SQL)
	assert.Equal(t, []interface{}{int64(5)}, stmt.Args)
}

func TestStatementBuilder_SelectCriteriaAreDeterministic(t *testing.T) {
	b := gateway.NewStatementBuilder()
	stmt, err := b.Select(newPostsTable(), map[string]interface{}{"views": int64(0), "title": "t"}, 10)
	require.NoError(t, err)

	// Criteria columns are sorted so the same criteria always render the same SQL.
	assert.Equal(t, "SELECT id, title, body, views FROM posts WHERE title = ? AND views = ? LIMIT ?", stmt.SQL)
	assert.Equal(t, []interface{}{"t", int64(0), 10}, stmt.Args)
}

func TestStatementBuilder_SelectWithoutCriteriaOrLimit(t *testing.T) {
	b := gateway.NewStatementBuilder()
	stmt, err := b.Select(newPostsTable(), nil, 0)
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, title, body, views FROM posts", stmt.SQL)
	assert.Empty(t, stmt.Args)

	_, err = b.Select(newPostsTable(), map[string]interface{}{"nope": 1}, 0)
	assert.Error(t, err)
}
