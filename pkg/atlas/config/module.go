package config

import (
	"go.uber.org/fx"

	"github.com/sunkan/Atlas.Orm/pkg/atlas/support/util/logger"
)

// ConfigParams defines the dependencies for NewConfigProvider.
type ConfigParams struct {
	fx.In
	// Embedded contains the raw bytes of the configuration file.
	Embedded EmbeddedConfig
	// EnvFilePath is the path to the .env file, if any.
	EnvFilePath string `name:"envFilePath" optional:"true"`
}

// NewConfigProvider loads the application configuration and applies the configured
// log level. This function is intended to be used as an Fx provider.
func NewConfigProvider(p ConfigParams) (*Config, error) {
	cfg, err := LoadConfig(p.EnvFilePath, p.Embedded)
	if err != nil {
		return nil, err
	}
	logger.SetLogLevel(cfg.Atlas.System.Logging.Level)
	return cfg, nil
}

// NewLoggingConfigProvider extracts and provides *LoggingConfig from *Config so
// components can depend on the logging configuration alone.
func NewLoggingConfigProvider(cfg *Config) *LoggingConfig {
	return &cfg.Atlas.System.Logging
}

// Module provides configuration-related components to Fx.
var Module = fx.Options(
	fx.Provide(NewConfigProvider),
	fx.Provide(NewLoggingConfigProvider),
)
