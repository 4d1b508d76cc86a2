// Package record provides the application-facing aggregates of the Atlas data mapper:
// a Record composes one Row with related data, and a RecordSet is an ordered
// collection of Records.
package record

import (
	"context"

	"github.com/sunkan/Atlas.Orm/pkg/atlas/core/row"
	"github.com/sunkan/Atlas.Orm/pkg/atlas/core/tx"
)

// Persister is the mapper-level write surface a Record carries with it.
// The transaction engine dispatches each queued operation through the Persister of
// the operation's Record, which is how heterogeneous records from different mappers
// share one physical transaction. Each operation reports whether a write was applied
// (false for the no-op update and the idempotent delete of an absent row).
type Persister interface {
	// InsertRow inserts the record's row through the given executor.
	InsertRow(ctx context.Context, exec tx.Executor, rec *Record) (applied bool, err error)
	// UpdateRow updates the record's row through the given executor.
	UpdateRow(ctx context.Context, exec tx.Executor, rec *Record) (applied bool, err error)
	// DeleteRow deletes the record's row through the given executor.
	DeleteRow(ctx context.Context, exec tx.Executor, rec *Record) (applied bool, err error)
}

// Record wraps one Row plus related data. Records are constructed by their Mapper,
// which installs itself as the Persister.
type Record struct {
	row       *row.Row
	persister Persister
	related   map[string]interface{}
}

// NewRecord wraps a Row. persister is the Mapper that owns the row's table.
func NewRecord(r *row.Row, persister Persister) *Record {
	return &Record{row: r, persister: persister}
}

// Row returns the wrapped Row.
func (rec *Record) Row() *row.Row {
	return rec.row
}

// Persister returns the mapper-level write surface for this record.
func (rec *Record) Persister() Persister {
	return rec.persister
}

// Get returns a column value from the wrapped Row; the boolean reports whether the
// column is initialized.
func (rec *Record) Get(column string) (interface{}, bool) {
	return rec.row.Get(column)
}

// Set assigns a column value on the wrapped Row, subject to the Row's status rules.
func (rec *Record) Set(column string, value interface{}) error {
	return rec.row.Set(column, value)
}

// Related returns a named related aggregate attached to this record, if any.
// Relationship traversal itself is an external concern; the record only carries
// what a caller attached.
func (rec *Record) Related(name string) (interface{}, bool) {
	v, ok := rec.related[name]
	return v, ok
}

// SetRelated attaches a named related aggregate to this record.
func (rec *Record) SetRelated(name string, value interface{}) {
	if rec.related == nil {
		rec.related = make(map[string]interface{})
	}
	rec.related[name] = value
}

// RecordSet is an ordered collection of Records. Order is insertion order.
type RecordSet struct {
	records []*Record
}

// NewRecordSet creates a RecordSet from zero or more records.
func NewRecordSet(records ...*Record) *RecordSet {
	return &RecordSet{records: records}
}

// Append adds a record at the end of the set.
func (s *RecordSet) Append(rec *Record) {
	s.records = append(s.records, rec)
}

// Len returns the number of records in the set.
func (s *RecordSet) Len() int {
	return len(s.records)
}

// Get returns the record at position i.
func (s *RecordSet) Get(i int) *Record {
	return s.records[i]
}

// Records returns the underlying ordered slice.
func (s *RecordSet) Records() []*Record {
	return s.records
}
