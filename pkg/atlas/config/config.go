// Package config provides structures and utilities for loading and managing the
// Atlas application configuration from YAML files and environment variables.
package config

// EmbeddedConfig holds the content of the configuration file, typically passed from
// main.go when the configuration is compiled into the binary.
type EmbeddedConfig []byte

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the logging level (e.g., "INFO", "DEBUG", "SILENT").
	Level string `yaml:"level"`
}

// SystemConfig holds system-wide settings.
type SystemConfig struct {
	// Logging is the logging configuration.
	Logging LoggingConfig `yaml:"logging"`
}

// DatabaseConfig holds the storage-connection settings.
type DatabaseConfig struct {
	// Driver is the database/sql driver name (e.g., "mysql", "sqlite3").
	Driver string `yaml:"driver"`
	// DSN is the driver-specific data source name.
	DSN string `yaml:"dsn"`
}

// MapperConfig holds mapper-level behavior settings.
type MapperConfig struct {
	// StrictIdentity makes conflicting identity-map registrations fail loudly
	// instead of keeping the existing row instance silently. Intended for
	// development and tests.
	StrictIdentity bool `yaml:"strict_identity"`
}

// StorageConfig holds the object-storage settings.
type StorageConfig struct {
	// BaseDir is the root directory of the local storage connection.
	BaseDir string `yaml:"base_dir"`
}

// ExportConfig holds settings for the RecordSet export path.
type ExportConfig struct {
	// OutputBaseDir is the base directory for exported files within the configured
	// storage connection.
	OutputBaseDir string `yaml:"output_base_dir"`
	// CompressionType is the Parquet compression type ("SNAPPY", "GZIP", "NONE").
	CompressionType string `yaml:"compression_type"`
}

// AtlasConfig groups every setting under the top-level "atlas" key.
type AtlasConfig struct {
	System   SystemConfig   `yaml:"system"`
	Database DatabaseConfig `yaml:"database"`
	Mapper   MapperConfig   `yaml:"mapper"`
	Storage  StorageConfig  `yaml:"storage"`
	Export   ExportConfig   `yaml:"export"`
}

// Config is the root of the application configuration.
type Config struct {
	Atlas AtlasConfig `yaml:"atlas"`
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Atlas: AtlasConfig{
			System: SystemConfig{
				Logging: LoggingConfig{Level: "INFO"},
			},
			Database: DatabaseConfig{
				Driver: "sqlite3",
				DSN:    ":memory:",
			},
			Storage: StorageConfig{
				BaseDir: "data",
			},
			Export: ExportConfig{
				OutputBaseDir:   "export",
				CompressionType: "SNAPPY",
			},
		},
	}
}
