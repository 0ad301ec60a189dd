package blog

import (
	"context"
	"reflect"
)

// Auther resolves presented credentials to identities. It is the single entry
// point protected routes depend on.
type Auther struct {
	provider IdentityProvider
	scheme   CredentialScheme
	logger   Logger
}

// NewAuthenticator returns a new Authenticator using the scheme selected by
// cfg. An unknown scheme or missing signing key fails here, before any
// traffic is served.
func NewAuthenticator(provider IdentityProvider, cfg Config, opts ...SchemeOption) (*Auther, error) {
	logger := defLogger{}

	scheme, err := NewCredentialScheme(cfg, logger, opts...)
	if err != nil {
		return nil, err
	}

	return &Auther{
		provider: provider,
		scheme:   scheme,
		logger:   logger,
	}, nil
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithScheme overrides the credential scheme
func (s *Auther) WithScheme(scheme CredentialScheme) *Auther {
	if scheme != nil {
		s.scheme = scheme
	}
	return s
}

// Scheme returns the credential scheme in use
func (s *Auther) Scheme() CredentialScheme {
	return s.scheme
}

// Start launches any background maintenance the scheme needs, such as the key
// store sweeper. It is a no-op for stateless schemes.
func (s *Auther) Start(ctx context.Context) {
	if bg, ok := s.scheme.(backgroundScheme); ok {
		bg.Start(ctx)
	}
}

// Login verifies the identifier/password pair against the identity provider
// and, on success, issues a fresh credential.
func (s *Auther) Login(ctx context.Context, identifier, password string) (*Credential, error) {
	if identifier == "" || password == "" {
		return nil, ErrInvalidCredentialFormat
	}

	identity, err := s.provider.VerifyIdentity(ctx, identifier, password)
	if err != nil {
		s.logger.Error("Login verify identity error", "error", err)
		return nil, err
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		s.logger.Error("Login identity is nil or zero value")
		return nil, ErrIdentityNotFound
	}

	credential, err := s.scheme.Issue(ctx, identity)
	if err != nil {
		s.logger.Error("Login credential issuance error", "error", err)
		return nil, err
	}

	return credential, nil
}

// Authenticate resolves a presented credential to an identity. After the
// scheme validates the credential we re-check that the identity still exists:
// a valid key or token for a since-deleted user must not authenticate.
func (s *Auther) Authenticate(ctx context.Context, presented string) (Identity, error) {
	if presented == "" {
		return nil, ErrMissingCredential
	}

	subject, err := s.scheme.Validate(ctx, presented)
	if err != nil {
		s.logger.Info("Authenticate credential rejected", "scheme", s.scheme.Name(), "error", err)
		return nil, err
	}

	identity, err := s.provider.FindIdentityByID(ctx, subject)
	if err != nil {
		s.logger.Warn("Authenticate identity lookup failed", "subject", subject, "error", err)
		return nil, err
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		return nil, ErrIdentityNotFound
	}

	return identity, nil
}
