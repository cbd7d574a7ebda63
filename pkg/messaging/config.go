package messaging

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds NATS JetStream connection parameters. An empty URL disables messaging.
type Config struct {
	URL            string   `toml:"url"`
	Stream         string   `toml:"stream"`
	Subjects       []string `toml:"subjects"`
	ConnectTimeout string   `toml:"connect_timeout"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	URL            string
	Stream         string
	Subjects       string
	ConnectTimeout string
}

// Enabled reports whether a NATS URL is configured.
func (c *Config) Enabled() bool {
	return c.URL != ""
}

// ConnectTimeoutDuration returns ConnectTimeout as a time.Duration.
func (c *Config) ConnectTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ConnectTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.URL != "" {
		c.URL = overlay.URL
	}
	if overlay.Stream != "" {
		c.Stream = overlay.Stream
	}
	if overlay.Subjects != nil {
		c.Subjects = overlay.Subjects
	}
	if overlay.ConnectTimeout != "" {
		c.ConnectTimeout = overlay.ConnectTimeout
	}
}

func (c *Config) loadDefaults() {
	if c.Stream == "" {
		c.Stream = "ATTEST"
	}
	if len(c.Subjects) == 0 {
		c.Subjects = []string{"attest.>"}
	}
	if c.ConnectTimeout == "" {
		c.ConnectTimeout = "5s"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.URL != "" {
		if v := os.Getenv(env.URL); v != "" {
			c.URL = v
		}
	}
	if env.Stream != "" {
		if v := os.Getenv(env.Stream); v != "" {
			c.Stream = v
		}
	}
	if env.Subjects != "" {
		if v := os.Getenv(env.Subjects); v != "" {
			subjects := strings.Split(v, ",")
			c.Subjects = make([]string, 0, len(subjects))
			for _, s := range subjects {
				if trimmed := strings.TrimSpace(s); trimmed != "" {
					c.Subjects = append(c.Subjects, trimmed)
				}
			}
		}
	}
	if env.ConnectTimeout != "" {
		if v := os.Getenv(env.ConnectTimeout); v != "" {
			c.ConnectTimeout = v
		}
	}
}

func (c *Config) validate() error {
	if c.Stream == "" {
		return fmt.Errorf("stream required")
	}
	if len(c.Subjects) == 0 {
		return fmt.Errorf("subjects required")
	}
	if _, err := time.ParseDuration(c.ConnectTimeout); err != nil {
		return fmt.Errorf("invalid connect_timeout: %w", err)
	}
	return nil
}
