package blog

import (
	"os"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
)

// DefaultCredentialTTL matches the five-minute expiry the API was built
// around; tests and clients depend on credentials dying after this window.
const DefaultCredentialTTL = 5 * time.Minute

// SimpleConfig is an env-backed Config implementation
type SimpleConfig struct {
	SigningKey    string
	AuthScheme    string
	CredentialTTL time.Duration
	Issuer        string
	Audience      []string
	ContextKey    string
	TokenLookup   string
}

var _ Config = (*SimpleConfig)(nil)

func (c *SimpleConfig) GetSigningKey() string           { return c.SigningKey }
func (c *SimpleConfig) GetAuthScheme() string           { return c.AuthScheme }
func (c *SimpleConfig) GetCredentialTTL() time.Duration { return c.CredentialTTL }
func (c *SimpleConfig) GetIssuer() string               { return c.Issuer }
func (c *SimpleConfig) GetAudience() []string           { return c.Audience }
func (c *SimpleConfig) GetContextKey() string           { return c.ContextKey }
func (c *SimpleConfig) GetTokenLookup() string          { return c.TokenLookup }

// NewConfigFromEnv loads configuration from BLOG_* variables and validates it.
// Misconfiguration (missing signing key, unknown scheme, bad TTL) fails here,
// at startup, never per request.
func NewConfigFromEnv() (*SimpleConfig, error) {
	cfg := &SimpleConfig{
		SigningKey:    os.Getenv("BLOG_SIGNING_KEY"),
		AuthScheme:    envOrDefault("BLOG_AUTH_SCHEME", SchemeSignedToken),
		CredentialTTL: DefaultCredentialTTL,
		Issuer:        os.Getenv("BLOG_ISSUER"),
		ContextKey:    envOrDefault("BLOG_CONTEXT_KEY", "identity"),
	}

	if raw := os.Getenv("BLOG_CREDENTIAL_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryValidation, "invalid BLOG_CREDENTIAL_TTL")
		}
		cfg.CredentialTTL = ttl
	}

	if raw := os.Getenv("BLOG_AUDIENCE"); raw != "" {
		for _, aud := range strings.Split(raw, ",") {
			if aud = strings.TrimSpace(aud); aud != "" {
				cfg.Audience = append(cfg.Audience, aud)
			}
		}
	}

	cfg.TokenLookup = envOrDefault("BLOG_TOKEN_LOOKUP", defaultTokenLookup(cfg.AuthScheme))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate enforces the invariants the authenticator depends on
func (c *SimpleConfig) Validate() error {
	switch c.AuthScheme {
	case SchemeSignedToken:
		if c.SigningKey == "" {
			return errors.New("signing key is required for the token scheme", errors.CategoryValidation)
		}
	case SchemeAPIKey:
		// opaque keys need no signing material
	default:
		return errors.New("unknown auth scheme", errors.CategoryValidation).
			WithMetadata(map[string]any{"scheme": c.AuthScheme})
	}

	if c.CredentialTTL <= 0 {
		return errors.New("credential TTL must be positive", errors.CategoryValidation)
	}

	return nil
}

func defaultTokenLookup(scheme string) string {
	if scheme == SchemeAPIKey {
		return "header:X-API-Token"
	}
	return "header:Authorization"
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
