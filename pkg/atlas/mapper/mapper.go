// Package mapper provides the application-facing facade of the Atlas data mapper.
// A Mapper owns one table gateway (and with it that table's identity map), translates
// fetches into canonical Records, and implements the mapper-level write operations the
// transaction engine dispatches to.
package mapper

import (
	"context"
	"time"

	"github.com/sunkan/Atlas.Orm/pkg/atlas/core/identity"
	"github.com/sunkan/Atlas.Orm/pkg/atlas/core/metadata"
	"github.com/sunkan/Atlas.Orm/pkg/atlas/core/metrics"
	"github.com/sunkan/Atlas.Orm/pkg/atlas/core/record"
	"github.com/sunkan/Atlas.Orm/pkg/atlas/core/row"
	"github.com/sunkan/Atlas.Orm/pkg/atlas/core/tx"
	"github.com/sunkan/Atlas.Orm/pkg/atlas/engine"
	"github.com/sunkan/Atlas.Orm/pkg/atlas/gateway"
	"github.com/sunkan/Atlas.Orm/pkg/atlas/support/util/exception"
)

const moduleName = "mapper"

// Connection is the storage surface a Mapper needs: statement execution outside a
// transaction plus the transaction lifecycle. The database adapter satisfies it.
type Connection interface {
	tx.Executor
	tx.TransactionManager
}

// Params defines the dependencies required to construct a Mapper.
// Everything is explicit: the table metadata, the connection, and the collaborators.
// There is no convention-based discovery.
type Params struct {
	// Table is the metadata for the table this mapper persists.
	Table *metadata.Table
	// Conn is the storage connection.
	Conn Connection
	// Builder produces statements; nil selects the default `?`-placeholder builder.
	Builder gateway.StatementBuilder
	// Recorder receives write-path metrics; nil selects the no-op recorder.
	Recorder metrics.MetricRecorder
	// StrictIdentity makes conflicting identity-map registrations fail loudly
	// instead of keeping the existing instance silently.
	StrictIdentity bool
}

// Mapper is long-lived per request/process scope. Its identity map is constructed
// with it and must be discarded with it; the map is not shared across scopes.
type Mapper struct {
	gw       *gateway.Gateway
	conn     Connection
	recorder metrics.MetricRecorder
	// lastErr is the retrievable error slot filled by the one-off Insert/Update/Delete
	// helpers. The mapper is confined to a single logical request, so a plain field
	// suffices.
	lastErr error
}

// New constructs a Mapper from explicit wiring.
func New(p Params) (*Mapper, error) {
	if p.Table == nil {
		return nil, exception.NewMapperError(moduleName, "mapper requires table metadata", nil)
	}
	if p.Conn == nil {
		return nil, exception.NewMapperError(moduleName, "mapper requires a storage connection", nil)
	}
	builder := p.Builder
	if builder == nil {
		builder = gateway.NewStatementBuilder()
	}
	recorder := p.Recorder
	if recorder == nil {
		recorder = metrics.NewNoopRecorder()
	}
	idmap := identity.NewMap(p.StrictIdentity)
	return &Mapper{
		gw:       gateway.NewGateway(p.Table, idmap, builder),
		conn:     p.Conn,
		recorder: recorder,
	}, nil
}

// Table returns the mapper's table metadata.
func (m *Mapper) Table() *metadata.Table {
	return m.gw.Table()
}

// IdentityMap returns the identity map scoped to this mapper.
func (m *Mapper) IdentityMap() *identity.Map {
	return m.gw.IdentityMap()
}

// NewRecord constructs a Record around a NEW row built from the given column values.
// Declared columns absent from cols start out at their metadata defaults.
func (m *Mapper) NewRecord(cols map[string]interface{}) (*record.Record, error) {
	r, err := row.NewRow(m.gw.Table(), cols)
	if err != nil {
		return nil, err
	}
	return record.NewRecord(r, m), nil
}

// FetchRecord fetches one record by primary-key value(s). Composite keys pass one
// value per key column in declaration order. Not-found is an expected outcome
// reported through the boolean, never an error; repeated fetches of the same key
// within this mapper's scope return a Record wrapping the same Row instance.
func (m *Mapper) FetchRecord(ctx context.Context, keyValues ...interface{}) (*record.Record, bool, error) {
	stmt, err := m.gw.SelectByKey(keyValues...)
	if err != nil {
		return nil, false, err
	}
	return m.fetchOne(ctx, stmt)
}

// FetchRecordBy fetches the first record matching equality criteria.
func (m *Mapper) FetchRecordBy(ctx context.Context, criteria map[string]interface{}) (*record.Record, bool, error) {
	stmt, err := m.gw.SelectBy(criteria, 1)
	if err != nil {
		return nil, false, err
	}
	return m.fetchOne(ctx, stmt)
}

// FetchRecordSet fetches a set of records by primary-key values, one value per
// single-column key (use FetchRecord for composite keys). Keys that match nothing
// are skipped; the returned set preserves the order of the keys that matched.
func (m *Mapper) FetchRecordSet(ctx context.Context, keys []interface{}) (*record.RecordSet, error) {
	set := record.NewRecordSet()
	for _, key := range keys {
		rec, found, err := m.FetchRecord(ctx, key)
		if err != nil {
			return nil, err
		}
		if found {
			set.Append(rec)
		}
	}
	return set, nil
}

// FetchRecordSetBy fetches all records matching equality criteria, in storage order.
// limit <= 0 fetches every match.
func (m *Mapper) FetchRecordSetBy(ctx context.Context, criteria map[string]interface{}, limit int) (*record.RecordSet, error) {
	stmt, err := m.gw.SelectBy(criteria, limit)
	if err != nil {
		return nil, err
	}
	raw, err := m.conn.Query(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, exception.NewMapperErrorf(moduleName, "table %q: fetch failed: %w", m.gw.Table().Name, err)
	}
	set := record.NewRecordSet()
	for _, values := range raw {
		r, err := m.gw.ResolveRow(values)
		if err != nil {
			return nil, err
		}
		set.Append(record.NewRecord(r, m))
	}
	return set, nil
}

func (m *Mapper) fetchOne(ctx context.Context, stmt *gateway.Statement) (*record.Record, bool, error) {
	raw, err := m.conn.Query(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, false, exception.NewMapperErrorf(moduleName, "table %q: fetch failed: %w", m.gw.Table().Name, err)
	}
	if len(raw) == 0 {
		return nil, false, nil
	}
	r, err := m.gw.ResolveRow(raw[0])
	if err != nil {
		return nil, false, err
	}
	return record.NewRecord(r, m), true, nil
}

// NewTransaction returns a fresh, empty transaction bound to this mapper's
// connection. Records from other mappers sharing the same connection may be
// enqueued on it as well.
func (m *Mapper) NewTransaction() *engine.Transaction {
	return engine.NewTransaction(m.conn, m.recorder)
}

// Insert is the one-off convenience path: it wraps a single insert in a throwaway
// transaction, executes it immediately, and returns its boolean result. On failure
// the triggering error is kept in the last-error slot; see LastError.
func (m *Mapper) Insert(ctx context.Context, rec *record.Record) bool {
	return m.execOne(ctx, engine.OpInsert, rec)
}

// Update is the one-off convenience path for a single update. A row with no dirty
// columns yields false with a nil LastError: nothing to do, not a failure.
func (m *Mapper) Update(ctx context.Context, rec *record.Record) bool {
	return m.execOne(ctx, engine.OpUpdate, rec)
}

// Delete is the one-off convenience path for a single delete. Deleting a row that
// storage reports as already absent yields false with a nil LastError.
func (m *Mapper) Delete(ctx context.Context, rec *record.Record) bool {
	return m.execOne(ctx, engine.OpDelete, rec)
}

func (m *Mapper) execOne(ctx context.Context, op engine.Operation, rec *record.Record) bool {
	t := m.NewTransaction()
	var err error
	switch op {
	case engine.OpInsert:
		err = t.Insert(rec)
	case engine.OpUpdate:
		err = t.Update(rec)
	case engine.OpDelete:
		err = t.Delete(rec)
	}
	if err != nil {
		m.lastErr = err
		return false
	}
	if !t.Exec(ctx) {
		m.lastErr = t.Err()
		return false
	}
	m.lastErr = nil
	applied, _ := t.Completed()[0].Result()
	return applied
}

// LastError returns the error captured by the most recent one-off Insert, Update or
// Delete call, or nil if it succeeded. Errors inside a Transaction are not recorded
// here; inspect the Transaction itself.
func (m *Mapper) LastError() error {
	return m.lastErr
}

// InsertRow implements record.Persister. It requires a NEW row, executes the insert
// through the given executor, verifies exactly one row was affected, back-fills an
// autoincrement key from the storage engine, and advances the row to CLEAN while
// registering its post-insert identity.
func (m *Mapper) InsertRow(ctx context.Context, exec tx.Executor, rec *record.Record) (bool, error) {
	if err := m.checkOwnership(rec); err != nil {
		return false, err
	}
	stmt, err := m.gw.NewInsert(rec.Row())
	if err != nil {
		return false, err
	}
	res, err := m.execStatement(ctx, exec, stmt)
	if err != nil {
		return false, err
	}
	applied, err := m.gw.VerifyAffected(stmt.Kind, res)
	if err != nil {
		return false, err
	}
	table := m.gw.Table()
	if table.AutoIncrement {
		pkCol := table.PrimaryKey[0]
		if v, ok := rec.Row().Get(pkCol); !ok || v == nil {
			if !res.HasLastInsertID {
				return false, exception.NewMapperErrorf(moduleName, "table %q: driver reported no generated key for autoincrement column %q", table.Name, pkCol)
			}
			if err := rec.Row().Set(pkCol, res.LastInsertID); err != nil {
				return false, err
			}
		}
	}
	if err := m.gw.IdentityMap().SetRowInserted(rec.Row()); err != nil {
		return false, err
	}
	return applied, nil
}

// UpdateRow implements record.Persister. A row with no dirty columns performs no
// storage call and reports (false, nil). Otherwise it writes exactly the dirty
// column set, verifies exactly one row was affected, and advances the row back to
// CLEAN with a refreshed snapshot.
func (m *Mapper) UpdateRow(ctx context.Context, exec tx.Executor, rec *record.Record) (bool, error) {
	if err := m.checkOwnership(rec); err != nil {
		return false, err
	}
	stmt, err := m.gw.NewUpdate(rec.Row())
	if err != nil {
		return false, err
	}
	if stmt == nil {
		m.recorder.RecordNoop(ctx, m.gw.Table().Name, gateway.KindUpdate.String())
		return false, nil
	}
	res, err := m.execStatement(ctx, exec, stmt)
	if err != nil {
		return false, err
	}
	applied, err := m.gw.VerifyAffected(stmt.Kind, res)
	if err != nil {
		return false, err
	}
	if err := m.gw.IdentityMap().SetRowUpdated(rec.Row()); err != nil {
		return false, err
	}
	return applied, nil
}

// DeleteRow implements record.Persister. Deleting a row storage reports as already
// absent is an idempotent no-op reporting (false, nil); either way the row advances
// to the terminal DELETED status.
func (m *Mapper) DeleteRow(ctx context.Context, exec tx.Executor, rec *record.Record) (bool, error) {
	if err := m.checkOwnership(rec); err != nil {
		return false, err
	}
	stmt, err := m.gw.NewDelete(rec.Row())
	if err != nil {
		return false, err
	}
	res, err := m.execStatement(ctx, exec, stmt)
	if err != nil {
		return false, err
	}
	applied, err := m.gw.VerifyAffected(stmt.Kind, res)
	if err != nil {
		return false, err
	}
	if !applied {
		m.recorder.RecordNoop(ctx, m.gw.Table().Name, gateway.KindDelete.String())
	}
	if err := m.gw.IdentityMap().SetRowDeleted(rec.Row()); err != nil {
		return false, err
	}
	return applied, nil
}

func (m *Mapper) execStatement(ctx context.Context, exec tx.Executor, stmt *gateway.Statement) (tx.Result, error) {
	start := time.Now()
	res, err := exec.Exec(ctx, stmt.SQL, stmt.Args...)
	m.recorder.RecordStatement(ctx, stmt.Table, stmt.Kind.String(), time.Since(start), err)
	return res, err
}

// checkOwnership rejects records whose row belongs to a different table than this
// mapper persists.
func (m *Mapper) checkOwnership(rec *record.Record) error {
	if rec == nil || rec.Row() == nil {
		return exception.NewMapperError(moduleName, "record carries no row", nil)
	}
	if rec.Row().Table() != m.gw.Table() {
		return exception.NewMapperErrorf(moduleName, "record for table %q was handed to the %q mapper", rec.Row().Table().Name, m.gw.Table().Name)
	}
	return nil
}

var _ record.Persister = (*Mapper)(nil)
