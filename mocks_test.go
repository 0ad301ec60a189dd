package blog_test

import (
	"context"
	"time"

	"github.com/goliatone/go-blog"
	"github.com/stretchr/testify/mock"
)

// MockIdentityProvider implements blog.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, identifier, password string) (blog.Identity, error) {
	args := m.Called(ctx, identifier, password)
	identity, _ := args.Get(0).(blog.Identity)
	return identity, args.Error(1)
}

func (m *MockIdentityProvider) FindIdentityByID(ctx context.Context, id string) (blog.Identity, error) {
	args := m.Called(ctx, id)
	identity, _ := args.Get(0).(blog.Identity)
	return identity, args.Error(1)
}

// MockAuthenticator implements blog.Authenticator
type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Login(ctx context.Context, identifier, password string) (*blog.Credential, error) {
	args := m.Called(ctx, identifier, password)
	credential, _ := args.Get(0).(*blog.Credential)
	return credential, args.Error(1)
}

func (m *MockAuthenticator) Authenticate(ctx context.Context, presented string) (blog.Identity, error) {
	args := m.Called(ctx, presented)
	identity, _ := args.Get(0).(blog.Identity)
	return identity, args.Error(1)
}

// testIdentity is a plain Identity value for tests
type testIdentity struct {
	id       string
	username string
	email    string
}

func (t testIdentity) ID() string       { return t.id }
func (t testIdentity) Username() string { return t.username }
func (t testIdentity) Email() string    { return t.email }

func tokenConfig(ttl time.Duration) *blog.SimpleConfig {
	return &blog.SimpleConfig{
		SigningKey:    "test-signing-key",
		AuthScheme:    blog.SchemeSignedToken,
		CredentialTTL: ttl,
		ContextKey:    "identity",
		TokenLookup:   "header:Authorization",
	}
}

func apiKeyConfig(ttl time.Duration) *blog.SimpleConfig {
	return &blog.SimpleConfig{
		AuthScheme:    blog.SchemeAPIKey,
		CredentialTTL: ttl,
		ContextKey:    "identity",
		TokenLookup:   "header:X-API-Token",
	}
}
