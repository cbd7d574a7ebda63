// Package config loads service configuration from TOML files and ATTEST_*
// environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/attest/pkg/cache"
	"github.com/JaimeStill/attest/pkg/database"
	"github.com/JaimeStill/attest/pkg/messaging"
	"github.com/JaimeStill/attest/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvAttestEnv             = "ATTEST_ENV"
	EnvAttestShutdownTimeout = "ATTEST_SHUTDOWN_TIMEOUT"
	EnvAttestVersion         = "ATTEST_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "ATTEST_DB_HOST",
	Port:            "ATTEST_DB_PORT",
	Name:            "ATTEST_DB_NAME",
	User:            "ATTEST_DB_USER",
	Password:        "ATTEST_DB_PASSWORD",
	SSLMode:         "ATTEST_DB_SSL_MODE",
	ApplicationName: "ATTEST_DB_APPLICATION_NAME",
	LockTimeout:     "ATTEST_DB_LOCK_TIMEOUT",
	MaxOpenConns:    "ATTEST_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "ATTEST_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "ATTEST_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "ATTEST_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "ATTEST_STORAGE_CONTAINER_NAME",
	ConnectionString: "ATTEST_STORAGE_CONNECTION_STRING",
	ServiceURL:       "ATTEST_STORAGE_SERVICE_URL",
	KeyPrefix:        "ATTEST_STORAGE_KEY_PREFIX",
}

var cacheEnv = &cache.Env{
	URL:          "ATTEST_CACHE_URL",
	KeyPrefix:    "ATTEST_CACHE_KEY_PREFIX",
	TTL:          "ATTEST_CACHE_TTL",
	PoolSize:     "ATTEST_CACHE_POOL_SIZE",
	MinIdleConns: "ATTEST_CACHE_MIN_IDLE_CONNS",
	DialTimeout:  "ATTEST_CACHE_DIAL_TIMEOUT",
}

var messagingEnv = &messaging.Env{
	URL:            "ATTEST_EVENTS_URL",
	Stream:         "ATTEST_EVENTS_STREAM",
	Subjects:       "ATTEST_EVENTS_SUBJECTS",
	ConnectTimeout: "ATTEST_EVENTS_CONNECT_TIMEOUT",
}

// Config is the root configuration for the attest service.
type Config struct {
	Server          ServerConfig     `toml:"server"`
	Database        database.Config  `toml:"database"`
	Storage         storage.Config   `toml:"storage"`
	Cache           cache.Config     `toml:"cache"`
	Events          messaging.Config `toml:"events"`
	API             APIConfig        `toml:"api"`
	Engine          EngineConfig     `toml:"engine"`
	ShutdownTimeout string           `toml:"shutdown_timeout"`
	Version         string           `toml:"version"`
}

// Env returns the ATTEST_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvAttestEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads config.toml when present, merges the config.<env>.toml overlay
// selected by ATTEST_ENV, and finalizes every section.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
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
	c.Cache.Merge(&overlay.Cache)
	c.Events.Merge(&overlay.Events)
	c.API.Merge(&overlay.API)
	c.Engine.Merge(&overlay.Engine)
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
	if err := c.Cache.Finalize(cacheEnv); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := c.Events.Finalize(messagingEnv); err != nil {
		return fmt.Errorf("events: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Engine.Finalize(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if c.Engine.Rail == RailBlob && !c.Storage.Enabled() {
		return fmt.Errorf("engine: blob rail requires storage.connection_string or storage.service_url")
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
	if v := os.Getenv(EnvAttestShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvAttestVersion); v != "" {
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

func overlayPath() string {
	if env := os.Getenv(EnvAttestEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
