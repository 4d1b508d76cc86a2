package metadata_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunkan/Atlas.Orm/pkg/atlas/core/metadata"
)

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := metadata.NewRegistry()
	table := &metadata.Table{
		Name:       "posts",
		Columns:    []string{"id", "title"},
		PrimaryKey: []string{"id"},
	}
	require.NoError(t, r.Register(table))

	got, ok := r.Lookup("posts")
	assert.True(t, ok)
	assert.Same(t, table, got)

	_, ok = r.Lookup("unknown")
	assert.False(t, ok)
	assert.Equal(t, []string{"posts"}, r.TableNames())
}

func TestRegistry_RejectsInvalidTables(t *testing.T) {
	r := metadata.NewRegistry()

	tests := []struct {
		name  string
		table *metadata.Table
	}{
		{"nil table", nil},
		{"no name", &metadata.Table{Columns: []string{"id"}, PrimaryKey: []string{"id"}}},
		{"no columns", &metadata.Table{Name: "t", PrimaryKey: []string{"id"}}},
		{"no primary key", &metadata.Table{Name: "t", Columns: []string{"id"}}},
		{"key outside columns", &metadata.Table{Name: "t", Columns: []string{"a"}, PrimaryKey: []string{"id"}}},
		{"autoincrement composite key", &metadata.Table{
			Name:          "t",
			Columns:       []string{"a", "b"},
			PrimaryKey:    []string{"a", "b"},
			AutoIncrement: true,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, r.Register(tt.table))
		})
	}
}

func TestRegistry_RejectsDuplicateRegistration(t *testing.T) {
	r := metadata.NewRegistry()
	table := &metadata.Table{Name: "posts", Columns: []string{"id"}, PrimaryKey: []string{"id"}}
	require.NoError(t, r.Register(table))
	assert.Error(t, r.Register(table))
}

func TestTable_ColumnPredicatesAndDefaults(t *testing.T) {
	table := &metadata.Table{
		Name:       "posts",
		Columns:    []string{"id", "title", "views"},
		PrimaryKey: []string{"id"},
		Defaults:   map[string]interface{}{"views": int64(0)},
	}

	assert.True(t, table.HasColumn("title"))
	assert.False(t, table.HasColumn("missing"))
	assert.True(t, table.IsPrimary("id"))
	assert.False(t, table.IsPrimary("title"))
	assert.Equal(t, int64(0), table.Default("views"))
	assert.Nil(t, table.Default("title"))
}
