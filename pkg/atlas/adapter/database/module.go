package database

import (
	"context"

	"go.uber.org/fx"

	"github.com/sunkan/Atlas.Orm/pkg/atlas/config"
	"github.com/sunkan/Atlas.Orm/pkg/atlas/support/util/logger"
)

// NewConnAdapterProvider opens the configured database connection and registers its
// closure with the Fx lifecycle. This function is intended to be used as an Fx provider.
func NewConnAdapterProvider(lc fx.Lifecycle, cfg *config.Config) (*SQLConnAdapter, error) {
	conn, err := Open(cfg.Atlas.Database.Driver, cfg.Atlas.Database.DSN)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Debugf("closing %s connection", cfg.Atlas.Database.Driver)
			return conn.Close()
		},
	})
	return conn, nil
}

// Module provides the database adapter to Fx.
var Module = fx.Options(
	fx.Provide(NewConnAdapterProvider),
)
