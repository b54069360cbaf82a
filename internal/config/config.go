// Package config loads the application configuration from an optional YAML
// file and the environment.
package config

import "time"

// Config is the root application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Auth    AuthConfig    `yaml:"auth"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"30s"`
}

// Storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// StorageConfig selects and tunes the key-value backend.
type StorageConfig struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"sqlite"`
	Path   string `yaml:"path"   env:"STORAGE_PATH"   env-default:"data/freshstart.db"`
	Prefix string `yaml:"prefix" env:"STORAGE_PREFIX" env-default:"registos"`

	// CorruptAsEmpty reads malformed stored values as the category default
	// (logging a warning) instead of failing with a corrupt-data error.
	CorruptAsEmpty bool `yaml:"corrupt_as_empty" env:"STORAGE_CORRUPT_AS_EMPTY" env-default:"false"`

	// MaxPageCount caps the SQLite file (0 = no cap).
	MaxPageCount int `yaml:"max_page_count" env:"STORAGE_MAX_PAGE_COUNT" env-default:"0"`
	// MemoryQuota caps the memory driver in bytes (0 = no cap).
	MemoryQuota int `yaml:"memory_quota" env:"STORAGE_MEMORY_QUOTA" env-default:"5242880"`
}

// AuthConfig holds session token and PIN hashing settings.
type AuthConfig struct {
	TokenSecret string        `yaml:"token_secret" env:"AUTH_TOKEN_SECRET"`
	TokenTTL    time.Duration `yaml:"token_ttl"    env:"AUTH_TOKEN_TTL"    env-default:"12h"`
	BcryptCost  int           `yaml:"bcrypt_cost"  env:"AUTH_BCRYPT_COST"  env-default:"12"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}
