// Package gateway provides the table gateway: the component that resolves raw query
// result rows into canonical Row instances through the identity map, and decides what
// a write against a Row should look like: which columns to write, when a write is a
// no-op, and whether the affected-row count the storage engine reported is acceptable.
package gateway

import (
	"github.com/sunkan/Atlas.Orm/pkg/atlas/core/identity"
	"github.com/sunkan/Atlas.Orm/pkg/atlas/core/metadata"
	"github.com/sunkan/Atlas.Orm/pkg/atlas/core/row"
	"github.com/sunkan/Atlas.Orm/pkg/atlas/core/tx"
	"github.com/sunkan/Atlas.Orm/pkg/atlas/support/util/exception"
)

const moduleName = "gateway"

// Gateway translates between raw storage rows and Row objects for one table, and
// owns that table's identity map. A Gateway is owned by a single Mapper and shares
// the Mapper's request/process scope.
type Gateway struct {
	table   *metadata.Table
	idmap   *identity.Map
	builder StatementBuilder
}

// NewGateway creates a table gateway bound to explicit table metadata, a fresh or
// caller-scoped identity map, and a statement builder.
func NewGateway(table *metadata.Table, idmap *identity.Map, builder StatementBuilder) *Gateway {
	return &Gateway{
		table:   table,
		idmap:   idmap,
		builder: builder,
	}
}

// Table returns the gateway's table metadata.
func (g *Gateway) Table() *metadata.Table {
	return g.table
}

// IdentityMap returns the identity map owned by this gateway.
func (g *Gateway) IdentityMap() *identity.Map {
	return g.idmap
}

// ResolveRow turns one raw query result row into the canonical Row instance for its
// identity. If the identity is already registered the existing instance is returned
// untouched; the in-memory state, possibly mutated by the caller, wins over the
// freshly fetched values. Otherwise a CLEAN row is constructed and registered.
func (g *Gateway) ResolveRow(values map[string]interface{}) (*row.Row, error) {
	candidate, err := row.NewCleanRow(g.table, values)
	if err != nil {
		return nil, err
	}
	id, ok := candidate.Identity()
	if !ok {
		return nil, exception.NewMapperErrorf(moduleName, "table %q: fetched row is missing primary-key column(s)", g.table.Name)
	}
	if existing, found := g.idmap.GetRow(id); found {
		return existing, nil
	}
	return g.idmap.SetRow(id, candidate)
}

// NewInsert builds the insert statement for a NEW row.
// The column set is every initialized column in declaration order, skipping an
// autoincrement key that has no value yet. A row whose status is not NEW signals
// ErrCannotInsert, which is what prevents a double insert.
func (g *Gateway) NewInsert(r *row.Row) (*Statement, error) {
	if r.Status() != row.StatusNew {
		return nil, exception.NewMapperErrorf(moduleName, "table %q: cannot insert a %s row: %w", g.table.Name, r.Status(), exception.ErrCannotInsert)
	}
	var columns []string
	var values []interface{}
	for _, col := range g.table.Columns {
		v, ok := r.Get(col)
		if !ok {
			continue
		}
		if g.table.AutoIncrement && g.table.IsPrimary(col) && v == nil {
			continue
		}
		columns = append(columns, col)
		values = append(values, v)
	}
	if len(columns) == 0 {
		return nil, exception.NewMapperErrorf(moduleName, "table %q: cannot insert a row with no initialized columns: %w", g.table.Name, exception.ErrCannotInsert)
	}
	return g.builder.Insert(g.table, columns, values)
}

// NewUpdate builds the update statement for a DIRTY row, writing exactly the dirty
// column set. An empty dirty set is "nothing to update": the returned statement is
// nil with no error, and the caller must skip execution entirely rather than issue a
// vacuous UPDATE. A row whose status is neither CLEAN nor DIRTY signals
// ErrCannotUpdate.
func (g *Gateway) NewUpdate(r *row.Row) (*Statement, error) {
	switch r.Status() {
	case row.StatusClean:
		// Nothing changed since the last sync; a no-op, not an error.
		return nil, nil
	case row.StatusDirty:
	default:
		return nil, exception.NewMapperErrorf(moduleName, "table %q: cannot update a %s row: %w", g.table.Name, r.Status(), exception.ErrCannotUpdate)
	}
	dirty := r.DirtyColumns()
	if len(dirty) == 0 {
		return nil, nil
	}
	values := make([]interface{}, len(dirty))
	for i, col := range dirty {
		values[i], _ = r.Get(col)
	}
	keyValues, err := g.keyValues(r)
	if err != nil {
		return nil, exception.NewMapperErrorf(moduleName, "table %q: cannot update a row with no resolvable identity: %w", g.table.Name, exception.ErrCannotUpdate)
	}
	return g.builder.Update(g.table, dirty, values, keyValues)
}

// NewDelete builds the delete statement for a persisted row.
// A NEW row was never stored and an already-DELETED row has nothing left to remove;
// both signal ErrCannotDelete, as does a row with no resolvable identity.
func (g *Gateway) NewDelete(r *row.Row) (*Statement, error) {
	if r.Status() == row.StatusNew || r.Status() == row.StatusDeleted {
		return nil, exception.NewMapperErrorf(moduleName, "table %q: cannot delete a %s row: %w", g.table.Name, r.Status(), exception.ErrCannotDelete)
	}
	keyValues, err := g.keyValues(r)
	if err != nil {
		return nil, exception.NewMapperErrorf(moduleName, "table %q: cannot delete a row with no resolvable identity: %w", g.table.Name, exception.ErrCannotDelete)
	}
	return g.builder.Delete(g.table, keyValues)
}

// SelectByKey builds the select fetching one row by primary-key value(s).
func (g *Gateway) SelectByKey(keyValues ...interface{}) (*Statement, error) {
	if len(keyValues) != len(g.table.PrimaryKey) {
		return nil, exception.NewMapperErrorf(moduleName, "table %q: fetch requires %d key value(s), got %d", g.table.Name, len(g.table.PrimaryKey), len(keyValues))
	}
	criteria := make(map[string]interface{}, len(keyValues))
	for i, col := range g.table.PrimaryKey {
		criteria[col] = keyValues[i]
	}
	return g.builder.Select(g.table, criteria, 1)
}

// SelectBy builds the select fetching rows matching equality criteria.
func (g *Gateway) SelectBy(criteria map[string]interface{}, limit int) (*Statement, error) {
	return g.builder.Select(g.table, criteria, limit)
}

// VerifyAffected checks a write result against the affected-row-count contract.
// Insert and update must affect exactly 1 row; anything else signals
// ErrUnexpectedRowCount, guarding against a stale WHERE clause matching zero or many
// rows. Delete affecting 0 rows is tolerated as an idempotent no-op (applied=false,
// no error); delete affecting more than 1 row still signals ErrUnexpectedRowCount.
func (g *Gateway) VerifyAffected(kind StatementKind, res tx.Result) (applied bool, err error) {
	switch kind {
	case KindInsert, KindUpdate:
		if res.RowsAffected != 1 {
			return false, exception.NewUnexpectedRowCount(moduleName, g.table.Name, 1, res.RowsAffected)
		}
		return true, nil
	case KindDelete:
		switch {
		case res.RowsAffected == 1:
			return true, nil
		case res.RowsAffected == 0:
			// Already gone; deletes are idempotent.
			return false, nil
		default:
			return false, exception.NewUnexpectedRowCount(moduleName, g.table.Name, 1, res.RowsAffected)
		}
	}
	return false, exception.NewMapperErrorf(moduleName, "cannot verify affected rows for %s statement", kind)
}

// keyValues returns the row's primary-key values in declaration order.
func (g *Gateway) keyValues(r *row.Row) ([]interface{}, error) {
	if _, ok := r.Identity(); !ok {
		return nil, exception.NewMapperErrorf(moduleName, "table %q: row has no resolvable identity", g.table.Name)
	}
	values := make([]interface{}, len(g.table.PrimaryKey))
	for i, col := range g.table.PrimaryKey {
		values[i], _ = r.Get(col)
	}
	return values, nil
}
