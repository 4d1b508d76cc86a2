package mapper

import (
	"sync"

	"github.com/sunkan/Atlas.Orm/pkg/atlas/core/metadata"
	"github.com/sunkan/Atlas.Orm/pkg/atlas/core/metrics"
	"github.com/sunkan/Atlas.Orm/pkg/atlas/gateway"
	"github.com/sunkan/Atlas.Orm/pkg/atlas/support/util/exception"
)

// Locator constructs and caches one Mapper per registered table, all sharing a
// single connection and metric recorder. It is the process-scope entry point an
// application wires once and hands to its request handling; the mapper cache is
// guarded by a mutex so concurrent lookups of the same table stay single-instance.
type Locator struct {
	registry *metadata.Registry
	conn     Connection
	builder  gateway.StatementBuilder
	recorder metrics.MetricRecorder
	strict   bool

	mu      sync.Mutex
	mappers map[string]*Mapper
}

// LocatorParams defines the dependencies required to construct a Locator.
type LocatorParams struct {
	// Registry holds the table metadata built at startup.
	Registry *metadata.Registry
	// Conn is the shared storage connection.
	Conn Connection
	// Builder produces statements; nil selects the default builder.
	Builder gateway.StatementBuilder
	// Recorder receives write-path metrics; nil selects the no-op recorder.
	Recorder metrics.MetricRecorder
	// StrictIdentity is passed through to every mapper's identity map.
	StrictIdentity bool
}

// NewLocator creates a Locator over an explicit metadata registry.
func NewLocator(p LocatorParams) (*Locator, error) {
	if p.Registry == nil {
		return nil, exception.NewMapperError(moduleName, "locator requires a metadata registry", nil)
	}
	if p.Conn == nil {
		return nil, exception.NewMapperError(moduleName, "locator requires a storage connection", nil)
	}
	return &Locator{
		registry: p.Registry,
		conn:     p.Conn,
		builder:  p.Builder,
		recorder: p.Recorder,
		strict:   p.StrictIdentity,
		mappers:  make(map[string]*Mapper),
	}, nil
}

// Mapper returns the Mapper for a registered table, constructing it on first use.
// An unregistered table name is an error: metadata is wired explicitly at startup,
// never derived from naming conventions.
func (l *Locator) Mapper(tableName string) (*Mapper, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if m, ok := l.mappers[tableName]; ok {
		return m, nil
	}
	table, ok := l.registry.Lookup(tableName)
	if !ok {
		return nil, exception.NewMapperErrorf(moduleName, "no table named %q is registered", tableName)
	}
	m, err := New(Params{
		Table:          table,
		Conn:           l.conn,
		Builder:        l.builder,
		Recorder:       l.recorder,
		StrictIdentity: l.strict,
	})
	if err != nil {
		return nil, err
	}
	l.mappers[tableName] = m
	return m, nil
}
