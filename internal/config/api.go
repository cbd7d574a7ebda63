package config

import (
	"fmt"
	"os"

	"github.com/JaimeStill/attest/internal/authz"
	"github.com/JaimeStill/attest/pkg/formatting"
	"github.com/JaimeStill/attest/pkg/middleware"
	"github.com/JaimeStill/attest/pkg/openapi"
	"github.com/JaimeStill/attest/pkg/pagination"
)

const defaultMaxBodySize = 1024 * 1024

var corsEnv = &middleware.CORSEnv{
	Enabled:          "ATTEST_CORS_ENABLED",
	Origins:          "ATTEST_CORS_ORIGINS",
	AllowedMethods:   "ATTEST_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "ATTEST_CORS_ALLOWED_HEADERS",
	AllowCredentials: "ATTEST_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "ATTEST_CORS_MAX_AGE",
}

var openapiEnv = &openapi.ConfigEnv{
	Title:       "ATTEST_OPENAPI_TITLE",
	Description: "ATTEST_OPENAPI_DESCRIPTION",
}

var authEnv = &authz.TokenEnv{
	SigningKey: "ATTEST_AUTH_SIGNING_KEY",
	Issuer:     "ATTEST_AUTH_ISSUER",
	Audience:   "ATTEST_AUTH_AUDIENCE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "ATTEST_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "ATTEST_PAGINATION_MAX_PAGE_SIZE",
}

// APIConfig holds API routing, request limits, caller authentication, CORS,
// pagination, and published API description settings.
type APIConfig struct {
	BasePath    string                `toml:"base_path"`
	MaxBodySize string                `toml:"max_body_size"`
	Auth        authz.TokenConfig     `toml:"auth"`
	CORS        middleware.CORSConfig `toml:"cors"`
	Pagination  pagination.Config     `toml:"pagination"`
	OpenAPI     openapi.Config        `toml:"openapi"`
}

// MaxBodySizeBytes parses MaxBodySize, falling back to 1MB.
func (c *APIConfig) MaxBodySizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxBodySize)
	if err != nil || size <= 0 {
		return defaultMaxBodySize
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if _, err := formatting.ParseBytes(c.MaxBodySize); err != nil {
		return fmt.Errorf("invalid max_body_size: %w", err)
	}
	if err := c.Auth.Finalize(authEnv); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	if err := c.OpenAPI.Finalize(openapiEnv); err != nil {
		return fmt.Errorf("openapi: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxBodySize != "" {
		c.MaxBodySize = overlay.MaxBodySize
	}

	c.Auth.Merge(&overlay.Auth)
	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
	c.OpenAPI.Merge(&overlay.OpenAPI)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxBodySize == "" {
		c.MaxBodySize = "1MB"
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv("ATTEST_API_BASE_PATH"); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv("ATTEST_API_MAX_BODY_SIZE"); v != "" {
		c.MaxBodySize = v
	}
}
