// Package row provides the in-memory mirror of one storage record: a mutable bag of
// column values carrying a change-status tag, plus the immutable Identity value used
// as the identity-map key.
package row

import (
	"bytes"
	"reflect"
	"sort"

	"github.com/sunkan/Atlas.Orm/pkg/atlas/core/metadata"
	"github.com/sunkan/Atlas.Orm/pkg/atlas/support/util/exception"
)

const moduleName = "row"

// Status is the change-status tag of a Row.
type Status int

const (
	// StatusNew marks a row constructed in memory and never persisted.
	StatusNew Status = iota
	// StatusClean marks a row whose in-memory values match storage.
	StatusClean
	// StatusDirty marks a row mutated since the last sync with storage.
	StatusDirty
	// StatusDeleted marks a row removed from storage. Terminal.
	StatusDeleted
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusNew:
		return "NEW"
	case StatusClean:
		return "CLEAN"
	case StatusDirty:
		return "DIRTY"
	case StatusDeleted:
		return "DELETED"
	}
	return "UNKNOWN"
}

// Row is a mutable record of column values plus a change-status tag.
// A Row retains an immutable snapshot of its values captured when it last entered
// CLEAN; the snapshot is the baseline for computing the dirty column set on update.
type Row struct {
	table    *metadata.Table
	cols     map[string]interface{}
	snapshot map[string]interface{}
	status   Status
}

// NewRow constructs a NEW row for the given table from the supplied column values.
// Columns the table does not declare are rejected. Declared columns absent from cols
// start out at their metadata default; an absent default leaves the column
// uninitialized, which IsInitialized distinguishes from an explicit nil.
func NewRow(table *metadata.Table, cols map[string]interface{}) (*Row, error) {
	r := &Row{
		table:  table,
		cols:   make(map[string]interface{}, len(table.Columns)),
		status: StatusNew,
	}
	for name, value := range cols {
		if !table.HasColumn(name) {
			return nil, exception.NewMapperErrorf(moduleName, "table %q has no column %q", table.Name, name)
		}
		r.cols[name] = value
	}
	for name, value := range table.Defaults {
		if _, set := r.cols[name]; !set {
			r.cols[name] = value
		}
	}
	return r, nil
}

// NewCleanRow constructs a CLEAN row from values fetched out of storage.
// Only the fetched columns are initialized, which supports partial selects.
// The snapshot is captured immediately so subsequent mutations diff against it.
func NewCleanRow(table *metadata.Table, cols map[string]interface{}) (*Row, error) {
	r := &Row{
		table: table,
		cols:  make(map[string]interface{}, len(cols)),
	}
	for name, value := range cols {
		if !table.HasColumn(name) {
			return nil, exception.NewMapperErrorf(moduleName, "table %q has no column %q", table.Name, name)
		}
		r.cols[name] = value
	}
	r.markClean()
	return r, nil
}

// Table returns the metadata describing this row's table.
func (r *Row) Table() *metadata.Table {
	return r.table
}

// Status returns the row's current change-status tag.
func (r *Row) Status() Status {
	return r.status
}

// Get returns the current value of a column. The boolean reports whether the column
// is initialized, distinguishing "column absent from a partial select" from
// "column explicitly null".
func (r *Row) Get(column string) (interface{}, bool) {
	v, ok := r.cols[column]
	return v, ok
}

// IsInitialized reports whether the column carries a value, explicit nil included.
func (r *Row) IsInitialized(column string) bool {
	_, ok := r.cols[column]
	return ok
}

// Set assigns a column value.
// A DELETED row is immutable; a primary-key column is immutable once the row is no
// longer NEW, so a registered identity cannot drift. Mutating a CLEAN row moves it
// to DIRTY; mutating a dirty column back to its snapshot value can move the row back
// to CLEAN once no column differs anymore.
func (r *Row) Set(column string, value interface{}) error {
	if r.status == StatusDeleted {
		return exception.NewMapperErrorf(moduleName, "table %q: cannot mutate column %q of a DELETED row: %w", r.table.Name, column, exception.ErrImmutableRow)
	}
	if !r.table.HasColumn(column) {
		return exception.NewMapperErrorf(moduleName, "table %q has no column %q", r.table.Name, column)
	}
	if r.table.IsPrimary(column) && r.status != StatusNew {
		return exception.NewMapperErrorf(moduleName, "table %q: primary-key column %q is immutable once the row is persisted: %w", r.table.Name, column, exception.ErrImmutableRow)
	}
	r.cols[column] = value
	if r.status == StatusClean || r.status == StatusDirty {
		if len(r.DirtyColumns()) == 0 {
			r.status = StatusClean
		} else {
			r.status = StatusDirty
		}
	}
	return nil
}

// DirtyColumns returns the sorted set of columns whose current value differs from the
// CLEAN snapshot. For a NEW or DELETED row the dirty set is empty.
func (r *Row) DirtyColumns() []string {
	if r.snapshot == nil {
		return nil
	}
	var dirty []string
	for name, value := range r.cols {
		was, had := r.snapshot[name]
		if !had || !valuesEqual(was, value) {
			dirty = append(dirty, name)
		}
	}
	sort.Strings(dirty)
	return dirty
}

// Identity derives the row's Identity from its current primary-key column values.
// The boolean is false while any primary-key column is uninitialized or nil, as is
// the case for a NEW row with an autoincrement key.
func (r *Row) Identity() (Identity, bool) {
	values := make([]interface{}, len(r.table.PrimaryKey))
	for i, col := range r.table.PrimaryKey {
		v, ok := r.cols[col]
		if !ok || v == nil {
			return Identity{}, false
		}
		values[i] = v
	}
	id, err := NewIdentity(r.table.PrimaryKey, values)
	if err != nil {
		return Identity{}, false
	}
	return id, true
}

// All returns a copy of the row's initialized column values.
func (r *Row) All() map[string]interface{} {
	out := make(map[string]interface{}, len(r.cols))
	for name, value := range r.cols {
		out[name] = value
	}
	return out
}

// MarkInserted advances a NEW row to CLEAN after a successful insert,
// resetting the snapshot to the current values.
func (r *Row) MarkInserted() error {
	if r.status != StatusNew {
		return exception.NewMapperErrorf(moduleName, "table %q: cannot mark a %s row inserted", r.table.Name, r.status)
	}
	r.markClean()
	return nil
}

// MarkUpdated advances a DIRTY row back to CLEAN after a successful update,
// refreshing the dirty-diff snapshot.
func (r *Row) MarkUpdated() error {
	if r.status != StatusDirty {
		return exception.NewMapperErrorf(moduleName, "table %q: cannot mark a %s row updated", r.table.Name, r.status)
	}
	r.markClean()
	return nil
}

// MarkDeleted moves a row to the terminal DELETED status.
func (r *Row) MarkDeleted() error {
	if r.status == StatusDeleted {
		return exception.NewMapperErrorf(moduleName, "table %q: row is already DELETED", r.table.Name)
	}
	r.status = StatusDeleted
	return nil
}

// markClean snapshots the current values and sets CLEAN.
func (r *Row) markClean() {
	snap := make(map[string]interface{}, len(r.cols))
	for name, value := range r.cols {
		snap[name] = value
	}
	r.snapshot = snap
	r.status = StatusClean
}

// valuesEqual compares two column values without panicking on non-comparable kinds.
func valuesEqual(a, b interface{}) bool {
	if ab, ok := a.([]byte); ok {
		bb, ok2 := b.([]byte)
		return ok2 && bytes.Equal(ab, bb)
	}
	return reflect.DeepEqual(a, b)
}
