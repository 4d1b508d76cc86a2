// Package identity provides the identity map: the structure guaranteeing at most one
// in-memory Row instance per row identity within a gateway's scope. Repeated lookups of
// the same identity return the same instance by reference, which is what makes mutation
// tracking safe.
package identity

import (
	"sync"

	"github.com/sunkan/Atlas.Orm/pkg/atlas/core/row"
	"github.com/sunkan/Atlas.Orm/pkg/atlas/support/util/exception"
	"github.com/sunkan/Atlas.Orm/pkg/atlas/support/util/logger"
)

const moduleName = "identity"

// Map maps row.Identity values to Row instances.
// A Map is scoped to a single table gateway and is expected to be discarded together
// with the request scope that owns it; it is unbounded for its lifetime and performs
// no eviction. Lookup+insert sequences are guarded by a mutex so the check-then-act
// on "does this identity already exist" stays atomic.
type Map struct {
	mu sync.Mutex
	// strict makes a conflicting SetRow fail loudly instead of keeping the
	// existing instance silently. Intended for development and tests.
	strict bool
	rows   map[row.Identity]*row.Row
}

// NewMap creates an empty identity map.
// strict selects the failure mode for conflicting registrations; see SetRow.
func NewMap(strict bool) *Map {
	return &Map{
		strict: strict,
		rows:   make(map[row.Identity]*row.Row),
	}
}

// GetRow returns the Row registered under the given identity.
// It is an O(1) lookup and never constructs a Row; absence is an expected outcome
// reported through the boolean.
func (m *Map) GetRow(id row.Identity) (*row.Row, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	return r, ok
}

// SetRow registers a Row under an identity and returns the canonical instance for
// that identity. If an entry already exists, the existing Row wins: in strict mode
// the conflicting registration is an error, otherwise it is logged and the existing
// instance is returned so later callers keep the single-instance guarantee.
func (m *Map) SetRow(id row.Identity, r *row.Row) (*row.Row, error) {
	if id.IsZero() {
		return nil, exception.NewMapperError(moduleName, "cannot register a row under a zero identity", nil)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.rows[id]; ok {
		if existing == r {
			return existing, nil
		}
		if m.strict {
			return nil, exception.NewMapperErrorf(moduleName, "identity %s is already mapped to a different row instance", id)
		}
		logger.Warnf("identity %s is already mapped; keeping the existing row instance", id)
		return existing, nil
	}
	m.rows[id] = r
	return r, nil
}

// GetRowIdentity derives an identity from a row's current primary-key column values.
// The boolean is false while any primary-key column is uninitialized or nil.
func (m *Map) GetRowIdentity(r *row.Row) (row.Identity, bool) {
	return r.Identity()
}

// SetRowInserted advances a NEW row to CLEAN after a successful insert and registers
// the row's post-insert identity. Registration happens here rather than at
// construction because autoincrement keys are unknown until after the insert.
func (m *Map) SetRowInserted(r *row.Row) error {
	id, ok := r.Identity()
	if !ok {
		return exception.NewMapperErrorf(moduleName, "table %q: inserted row has no resolvable identity", r.Table().Name)
	}
	if err := r.MarkInserted(); err != nil {
		return err
	}
	_, err := m.SetRow(id, r)
	return err
}

// SetRowUpdated advances a DIRTY row back to CLEAN after a successful update,
// refreshing the dirty-diff snapshot.
func (m *Map) SetRowUpdated(r *row.Row) error {
	return r.MarkUpdated()
}

// SetRowDeleted moves a row to the terminal DELETED status.
// The entry stays in the map so a later fetch of the same identity still returns
// this instance rather than resurrecting a fresh one.
func (m *Map) SetRowDeleted(r *row.Row) error {
	return r.MarkDeleted()
}

// IsInitialized reports whether the given column of a row carries a value.
// Callers use it to distinguish a column absent from a partial select from a column
// explicitly set to null.
func (m *Map) IsInitialized(r *row.Row, column string) bool {
	return r.IsInitialized(column)
}

// Len returns the number of identities currently registered.
func (m *Map) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}
