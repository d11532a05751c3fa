// Package config loads prombank configuration from TOML files and
// PROMBANK_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/prombank/internal/transfer"
	"github.com/JaimeStill/prombank/pkg/auth"
	"github.com/JaimeStill/prombank/pkg/database"
	"github.com/JaimeStill/prombank/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvPrombankEnv             = "PROMBANK_ENV"
	EnvPrombankShutdownTimeout = "PROMBANK_SHUTDOWN_TIMEOUT"
	EnvPrombankVersion         = "PROMBANK_VERSION"
)

var databaseEnv = &database.Env{
	Driver:          "PROMBANK_DB_DRIVER",
	Path:            "PROMBANK_DB_PATH",
	Host:            "PROMBANK_DB_HOST",
	Port:            "PROMBANK_DB_PORT",
	Name:            "PROMBANK_DB_NAME",
	User:            "PROMBANK_DB_USER",
	Password:        "PROMBANK_DB_PASSWORD",
	SSLMode:         "PROMBANK_DB_SSL_MODE",
	MaxOpenConns:    "PROMBANK_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "PROMBANK_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "PROMBANK_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "PROMBANK_DB_CONN_TIMEOUT",
	PingAttempts:    "PROMBANK_DB_PING_ATTEMPTS",
}

var storageEnv = &storage.Env{
	Enabled:          "PROMBANK_STORAGE_ENABLED",
	ContainerName:    "PROMBANK_STORAGE_CONTAINER_NAME",
	ConnectionString: "PROMBANK_STORAGE_CONNECTION_STRING",
	AccountURL:       "PROMBANK_STORAGE_ACCOUNT_URL",
	MaxListSize:      "PROMBANK_STORAGE_MAX_LIST_SIZE",
}

var authEnv = &auth.Env{
	Enabled:  "PROMBANK_AUTH_ENABLED",
	Mode:     "PROMBANK_AUTH_MODE",
	Secret:   "PROMBANK_AUTH_SECRET",
	Issuer:   "PROMBANK_AUTH_ISSUER",
	Audience: "PROMBANK_AUTH_AUDIENCE",
}

var transferEnv = &transfer.Env{
	ErrorLimit:    "PROMBANK_TRANSFER_ERROR_LIMIT",
	FabricDir:     "PROMBANK_TRANSFER_FABRIC_DIR",
	WatchDebounce: "PROMBANK_TRANSFER_WATCH_DEBOUNCE",
}

// Config is the root configuration for prombank.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Database        database.Config `toml:"database"`
	Storage         storage.Config  `toml:"storage"`
	Auth            auth.Config     `toml:"auth"`
	API             APIConfig       `toml:"api"`
	Transfer        transfer.Config `toml:"transfer"`
	Logging         LoggingConfig   `toml:"logging"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the PROMBANK_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvPrombankEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads config.toml from the working directory (if present), applies
// any environment overlay, and finalizes all values. If no config.toml
// exists, defaults and environment variables provide all configuration.
func Load() (*Config, error) {
	return LoadFile(BaseConfigFile)
}

// LoadFile is Load with an explicit base file. The overlay is looked up
// next to it.
func LoadFile(path string) (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(path); err == nil {
		loaded, err := load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if overlay := overlayPath(filepath.Dir(path)); overlay != "" {
		o, err := load(overlay)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", overlay, err)
		}
		cfg.Merge(o)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.Auth.Merge(&overlay.Auth)
	c.API.Merge(&overlay.API)
	c.Transfer.Merge(&overlay.Transfer)
	c.Logging.Merge(&overlay.Logging)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Auth.Finalize(authEnv); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Transfer.Finalize(transferEnv); err != nil {
		return fmt.Errorf("transfer: %w", err)
	}
	if err := c.Logging.Finalize(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvPrombankShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvPrombankVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath(dir string) string {
	if env := os.Getenv(EnvPrombankEnv); env != "" {
		path := filepath.Join(dir, fmt.Sprintf(OverlayConfigPattern, env))
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
