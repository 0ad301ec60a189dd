package blog_test

import (
	"testing"
	"time"

	"github.com/goliatone/go-blog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigFromEnv(t *testing.T) {
	t.Setenv("BLOG_SIGNING_KEY", "env-signing-key")
	t.Setenv("BLOG_AUTH_SCHEME", "")
	t.Setenv("BLOG_CREDENTIAL_TTL", "")
	t.Setenv("BLOG_TOKEN_LOOKUP", "")
	t.Setenv("BLOG_CONTEXT_KEY", "")
	t.Setenv("BLOG_AUDIENCE", "")

	cfg, err := blog.NewConfigFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "env-signing-key", cfg.GetSigningKey())
	assert.Equal(t, blog.SchemeSignedToken, cfg.GetAuthScheme())
	assert.Equal(t, blog.DefaultCredentialTTL, cfg.GetCredentialTTL())
	assert.Equal(t, "identity", cfg.GetContextKey())
	assert.Equal(t, "header:Authorization", cfg.GetTokenLookup())
}

func TestNewConfigFromEnvOverrides(t *testing.T) {
	t.Setenv("BLOG_SIGNING_KEY", "env-signing-key")
	t.Setenv("BLOG_AUTH_SCHEME", blog.SchemeSignedToken)
	t.Setenv("BLOG_CREDENTIAL_TTL", "90s")
	t.Setenv("BLOG_AUDIENCE", "web, mobile")

	cfg, err := blog.NewConfigFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 90*time.Second, cfg.GetCredentialTTL())
	assert.Equal(t, []string{"web", "mobile"}, cfg.GetAudience())
}

func TestNewConfigFromEnvAPIKeyScheme(t *testing.T) {
	t.Setenv("BLOG_SIGNING_KEY", "")
	t.Setenv("BLOG_AUTH_SCHEME", blog.SchemeAPIKey)
	t.Setenv("BLOG_TOKEN_LOOKUP", "")

	cfg, err := blog.NewConfigFromEnv()
	require.NoError(t, err)

	// opaque keys need no signing material and use their own header
	assert.Equal(t, "header:X-API-Token", cfg.GetTokenLookup())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *blog.SimpleConfig
		wantErr bool
	}{
		{
			name: "Valid token config",
			cfg: &blog.SimpleConfig{
				SigningKey:    "key",
				AuthScheme:    blog.SchemeSignedToken,
				CredentialTTL: time.Minute,
			},
		},
		{
			name: "Valid api key config",
			cfg: &blog.SimpleConfig{
				AuthScheme:    blog.SchemeAPIKey,
				CredentialTTL: time.Minute,
			},
		},
		{
			name: "Token scheme without signing key",
			cfg: &blog.SimpleConfig{
				AuthScheme:    blog.SchemeSignedToken,
				CredentialTTL: time.Minute,
			},
			wantErr: true,
		},
		{
			name: "Unknown scheme",
			cfg: &blog.SimpleConfig{
				SigningKey:    "key",
				AuthScheme:    "saml",
				CredentialTTL: time.Minute,
			},
			wantErr: true,
		},
		{
			name: "Non-positive TTL",
			cfg: &blog.SimpleConfig{
				SigningKey: "key",
				AuthScheme: blog.SchemeSignedToken,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewConfigFromEnvBadTTL(t *testing.T) {
	t.Setenv("BLOG_SIGNING_KEY", "env-signing-key")
	t.Setenv("BLOG_CREDENTIAL_TTL", "five minutes")

	_, err := blog.NewConfigFromEnv()
	assert.Error(t, err)
}
