// Package metadata provides read-only table descriptions for the Atlas data mapper.
// A Table describes the shape of one relational table; a Registry holds the tables an
// application works with and is built explicitly at startup, then injected into every
// component that needs it.
package metadata

import (
	"sync"

	"github.com/sunkan/Atlas.Orm/pkg/atlas/support/util/exception"
)

const moduleName = "metadata"

// Table describes one relational table: its name, the full ordered column list,
// the primary-key column(s), the autoincrement flag, and per-column default values.
// A Table is fixed at construction and never mutated afterwards.
type Table struct {
	// Name is the table name as known to the storage engine.
	Name string
	// Columns is the full ordered list of column names.
	Columns []string
	// PrimaryKey is the ordered list of primary-key column names. Composite keys
	// list every key column in declaration order.
	PrimaryKey []string
	// AutoIncrement indicates whether the (single-column) primary key is generated
	// by the storage engine on insert.
	AutoIncrement bool
	// Defaults maps column names to their default values. Columns absent from the
	// map default to nil.
	Defaults map[string]interface{}
}

// HasColumn reports whether the table declares the given column.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// IsPrimary reports whether the given column is part of the primary key.
func (t *Table) IsPrimary(name string) bool {
	for _, c := range t.PrimaryKey {
		if c == name {
			return true
		}
	}
	return false
}

// Default returns the declared default value for a column, or nil if none is declared.
func (t *Table) Default(name string) interface{} {
	if t.Defaults == nil {
		return nil
	}
	return t.Defaults[name]
}

// Registry is an explicit collection of Table descriptions, built once at startup.
// It replaces convention-based metadata discovery with a type-checkable wiring step.
type Registry struct {
	mu     sync.RWMutex
	tables map[string]*Table
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tables: make(map[string]*Table)}
}

// Register adds a Table description to the registry.
// A table with no name, no columns, or no primary key is rejected, as is a primary-key
// column that is not part of the column list. Registering the same table name twice
// is rejected to keep metadata single-sourced.
func (r *Registry) Register(t *Table) error {
	if t == nil || t.Name == "" {
		return exception.NewMapperError(moduleName, "cannot register a table without a name", nil)
	}
	if len(t.Columns) == 0 {
		return exception.NewMapperErrorf(moduleName, "table %q declares no columns", t.Name)
	}
	if len(t.PrimaryKey) == 0 {
		return exception.NewMapperErrorf(moduleName, "table %q declares no primary key", t.Name)
	}
	for _, pk := range t.PrimaryKey {
		if !t.HasColumn(pk) {
			return exception.NewMapperErrorf(moduleName, "table %q: primary-key column %q is not in the column list", t.Name, pk)
		}
	}
	if t.AutoIncrement && len(t.PrimaryKey) != 1 {
		return exception.NewMapperErrorf(moduleName, "table %q: autoincrement requires a single-column primary key", t.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tables[t.Name]; exists {
		return exception.NewMapperErrorf(moduleName, "table %q is already registered", t.Name)
	}
	r.tables[t.Name] = t
	return nil
}

// Lookup returns the Table registered under the given name.
// A missing table is an expected outcome reported through the boolean, not an error.
func (r *Registry) Lookup(name string) (*Table, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tables[name]
	return t, ok
}

// TableNames returns the names of all registered tables.
func (r *Registry) TableNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}
	return names
}
