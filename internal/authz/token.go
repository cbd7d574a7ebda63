package authz

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/JaimeStill/attest/pkg/handlers"
)

// ErrInvalidToken indicates a bearer token failed verification.
var ErrInvalidToken = errors.New("invalid bearer token")

// TokenConfig enables bearer token verification. With no signing key the
// service trusts CallerHeader as set by the fronting gateway.
type TokenConfig struct {
	SigningKey string `toml:"signing_key"`
	Issuer     string `toml:"issuer"`
	Audience   string `toml:"audience"`
}

// TokenEnv maps TokenConfig fields to environment variable names.
type TokenEnv struct {
	SigningKey string
	Issuer     string
	Audience   string
}

// Enabled reports whether callers must present a signed token.
func (c *TokenConfig) Enabled() bool {
	return c.SigningKey != ""
}

// Finalize applies environment variable overrides.
func (c *TokenConfig) Finalize(env *TokenEnv) error {
	if env != nil {
		c.loadEnv(env)
	}
	if c.Enabled() && len(c.SigningKey) < 32 {
		return fmt.Errorf("signing_key must be at least 32 bytes")
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *TokenConfig) Merge(overlay *TokenConfig) {
	if overlay.SigningKey != "" {
		c.SigningKey = overlay.SigningKey
	}
	if overlay.Issuer != "" {
		c.Issuer = overlay.Issuer
	}
	if overlay.Audience != "" {
		c.Audience = overlay.Audience
	}
}

func (c *TokenConfig) loadEnv(env *TokenEnv) {
	if env.SigningKey != "" {
		if v := os.Getenv(env.SigningKey); v != "" {
			c.SigningKey = v
		}
	}
	if env.Issuer != "" {
		if v := os.Getenv(env.Issuer); v != "" {
			c.Issuer = v
		}
	}
	if env.Audience != "" {
		if v := os.Getenv(env.Audience); v != "" {
			c.Audience = v
		}
	}
}

// Authenticate binds CallerHeader to the subject of a verified HS256 bearer
// token. Any client-supplied CallerHeader is discarded; a request without a
// token proceeds with no caller. When cfg is not enabled the header passes
// through untouched.
func Authenticate(cfg *TokenConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	logger = logger.With("system", "authz")

	if !cfg.Enabled() {
		logger.Warn("bearer tokens disabled, trusting caller header from the gateway")
		return func(next http.Handler) http.Handler { return next }
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	parser := jwt.NewParser(opts...)
	key := []byte(cfg.SigningKey)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r = r.Clone(r.Context())
			r.Header.Del(CallerHeader)

			raw, ok := bearer(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			subject, err := verify(parser, key, raw)
			if err != nil {
				handlers.RespondError(w, logger, http.StatusUnauthorized, err)
				return
			}

			r.Header.Set(CallerHeader, subject)
			next.ServeHTTP(w, r)
		})
	}
}

func bearer(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func verify(parser *jwt.Parser, key []byte, raw string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return key, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return subject, nil
}
