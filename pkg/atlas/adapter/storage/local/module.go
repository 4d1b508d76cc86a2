package local

import (
	"go.uber.org/fx"

	"github.com/sunkan/Atlas.Orm/pkg/atlas/adapter/storage"
	"github.com/sunkan/Atlas.Orm/pkg/atlas/config"
)

// NewLocalConnectionProvider creates a local-filesystem storage connection rooted at
// the configured storage base directory. This function is intended to be used as an
// Fx provider.
func NewLocalConnectionProvider(cfg *config.Config) (storage.Connection, error) {
	return NewLocalAdapter(cfg.Atlas.Storage.BaseDir, "local")
}

// Module provides the local storage connection to Fx.
var Module = fx.Options(
	fx.Provide(NewLocalConnectionProvider),
)
