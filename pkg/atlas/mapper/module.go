package mapper

import (
	"go.uber.org/fx"

	"github.com/sunkan/Atlas.Orm/pkg/atlas/adapter/database"
	"github.com/sunkan/Atlas.Orm/pkg/atlas/config"
	"github.com/sunkan/Atlas.Orm/pkg/atlas/core/metadata"
	"github.com/sunkan/Atlas.Orm/pkg/atlas/core/metrics"
)

// LocatorFxParams defines the dependencies required to provide a Locator.
type LocatorFxParams struct {
	fx.In
	// Registry holds the table metadata the application registered at startup.
	Registry *metadata.Registry
	// Conn is the shared database connection.
	Conn *database.SQLConnAdapter
	// Recorder receives write-path metrics. Optional; defaults to the no-op recorder.
	Recorder metrics.MetricRecorder `optional:"true"`
	// Cfg is the application configuration.
	Cfg *config.Config
}

// NewLocatorProvider creates the process-scope mapper Locator.
// This function is intended to be used as an Fx provider.
func NewLocatorProvider(p LocatorFxParams) (*Locator, error) {
	return NewLocator(LocatorParams{
		Registry:       p.Registry,
		Conn:           p.Conn,
		Recorder:       p.Recorder,
		StrictIdentity: p.Cfg.Atlas.Mapper.StrictIdentity,
	})
}

// Module provides the mapper Locator to Fx.
var Module = fx.Options(
	fx.Provide(NewLocatorProvider),
)
