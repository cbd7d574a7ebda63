package config

import (
	"fmt"
	"os"
	"strings"
)

const (
	EnvEngineAdminAddress  = "ATTEST_ENGINE_ADMIN_ADDRESS"
	EnvEngineAddressPrefix = "ATTEST_ENGINE_ADDRESS_PREFIX"
	EnvEngineEventPrefix   = "ATTEST_ENGINE_EVENT_PREFIX"
	EnvEngineRail          = "ATTEST_ENGINE_RAIL"
)

// Transfer rails that can receive disbursement plans.
const (
	RailLog  = "log"
	RailBlob = "blob"
)

// EngineConfig holds the classification engine's identity settings.
type EngineConfig struct {
	AdminAddress  string `toml:"admin_address"`
	AddressPrefix string `toml:"address_prefix"`
	EventPrefix   string `toml:"event_prefix"`
	Rail          string `toml:"rail"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *EngineConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *EngineConfig) Merge(overlay *EngineConfig) {
	if overlay.AdminAddress != "" {
		c.AdminAddress = overlay.AdminAddress
	}
	if overlay.AddressPrefix != "" {
		c.AddressPrefix = overlay.AddressPrefix
	}
	if overlay.EventPrefix != "" {
		c.EventPrefix = overlay.EventPrefix
	}
	if overlay.Rail != "" {
		c.Rail = overlay.Rail
	}
}

func (c *EngineConfig) loadDefaults() {
	if c.AddressPrefix == "" {
		c.AddressPrefix = "scope"
	}
	if c.EventPrefix == "" {
		c.EventPrefix = "attest"
	}
	if c.Rail == "" {
		c.Rail = RailLog
	}
}

func (c *EngineConfig) loadEnv() {
	if v := os.Getenv(EnvEngineAdminAddress); v != "" {
		c.AdminAddress = v
	}
	if v := os.Getenv(EnvEngineAddressPrefix); v != "" {
		c.AddressPrefix = v
	}
	if v := os.Getenv(EnvEngineEventPrefix); v != "" {
		c.EventPrefix = v
	}
	if v := os.Getenv(EnvEngineRail); v != "" {
		c.Rail = v
	}
}

func (c *EngineConfig) validate() error {
	c.AdminAddress = strings.TrimSpace(c.AdminAddress)
	if c.AdminAddress == "" {
		return fmt.Errorf("admin_address required")
	}
	switch c.Rail {
	case RailLog, RailBlob:
	default:
		return fmt.Errorf("unknown rail %q", c.Rail)
	}
	return nil
}
