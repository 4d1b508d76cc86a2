package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/sunkan/Atlas.Orm/pkg/atlas/support/util/exception"
	"github.com/sunkan/Atlas.Orm/pkg/atlas/support/util/logger"
)

const moduleName = "config"

// LoadConfig loads configuration in three layers: defaults from NewConfig, the
// embedded YAML document, and finally environment-variable overrides. A .env file is
// loaded first (when present) so local development can supply the environment layer
// from a file. This function is intended to be called once during startup.
func LoadConfig(envFilePath string, embedded EmbeddedConfig) (*Config, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			logger.Warnf(".env file (%s) not found or could not be loaded: %v", envFilePath, err)
		}
	} else {
		if err := godotenv.Load(); err != nil {
			logger.Debugf(".env file not found or could not be loaded: %v", err)
		}
	}

	cfg := NewConfig()

	if len(embedded) > 0 {
		if err := yaml.Unmarshal(embedded, cfg); err != nil {
			return nil, exception.NewMapperError(moduleName, "failed to unmarshal embedded config", err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides overrides the loaded configuration from the environment.
// Recognized variables: ATLAS_LOG_LEVEL, ATLAS_DB_DRIVER, ATLAS_DB_DSN,
// ATLAS_STRICT_IDENTITY, ATLAS_STORAGE_DIR, ATLAS_EXPORT_DIR, ATLAS_EXPORT_COMPRESSION.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ATLAS_LOG_LEVEL"); v != "" {
		cfg.Atlas.System.Logging.Level = v
	}
	if v := os.Getenv("ATLAS_DB_DRIVER"); v != "" {
		cfg.Atlas.Database.Driver = v
	}
	if v := os.Getenv("ATLAS_DB_DSN"); v != "" {
		cfg.Atlas.Database.DSN = v
	}
	if v := os.Getenv("ATLAS_STRICT_IDENTITY"); v != "" {
		strict, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warnf("invalid ATLAS_STRICT_IDENTITY value %q: %v", v, err)
		} else {
			cfg.Atlas.Mapper.StrictIdentity = strict
		}
	}
	if v := os.Getenv("ATLAS_STORAGE_DIR"); v != "" {
		cfg.Atlas.Storage.BaseDir = v
	}
	if v := os.Getenv("ATLAS_EXPORT_DIR"); v != "" {
		cfg.Atlas.Export.OutputBaseDir = v
	}
	if v := os.Getenv("ATLAS_EXPORT_COMPRESSION"); v != "" {
		cfg.Atlas.Export.CompressionType = v
	}
}
