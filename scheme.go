package blog

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
)

const (
	// SchemeSignedToken issues stateless self-contained signed tokens
	SchemeSignedToken = "token"
	// SchemeAPIKey issues opaque keys backed by the in-memory KeyStore
	SchemeAPIKey = "api_key"
)

// Credential is the material handed back to a caller on successful login.
// The caller stores it and presents Value on every subsequent request.
type Credential struct {
	Value     string    `json:"value"`
	Type      string    `json:"type"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CredentialScheme unifies the two bearer-credential variants behind one
// issuance/validation contract. Which implementation backs it is a
// configuration-time choice, fixed per deployment.
type CredentialScheme interface {
	Name() string
	Issue(ctx context.Context, identity Identity) (*Credential, error)
	Validate(ctx context.Context, presented string) (string, error)
}

// NewCredentialScheme builds the scheme selected by cfg.GetAuthScheme
func NewCredentialScheme(cfg Config, logger Logger, opts ...SchemeOption) (CredentialScheme, error) {
	if logger == nil {
		logger = defLogger{}
	}

	options := &schemeOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	switch cfg.GetAuthScheme() {
	case SchemeSignedToken:
		tokens := NewTokenService(
			[]byte(cfg.GetSigningKey()),
			cfg.GetCredentialTTL(),
			cfg.GetIssuer(),
			cfg.GetAudience(),
			logger,
			options.tokenOptions...,
		)
		return &tokenScheme{tokens: tokens}, nil
	case SchemeAPIKey:
		store := NewKeyStore(cfg.GetCredentialTTL(), options.keyStoreOptions...)
		return &apiKeyScheme{store: store}, nil
	default:
		return nil, errors.New("unknown auth scheme", errors.CategoryValidation).
			WithMetadata(map[string]any{"scheme": cfg.GetAuthScheme()})
	}
}

type schemeOptions struct {
	tokenOptions    []TokenOption
	keyStoreOptions []KeyStoreOption
}

// SchemeOption forwards construction options to the selected scheme
type SchemeOption func(*schemeOptions)

// WithSchemeTokenOptions forwards options to the token service
func WithSchemeTokenOptions(opts ...TokenOption) SchemeOption {
	return func(o *schemeOptions) {
		o.tokenOptions = append(o.tokenOptions, opts...)
	}
}

// WithSchemeKeyStoreOptions forwards options to the key store
func WithSchemeKeyStoreOptions(opts ...KeyStoreOption) SchemeOption {
	return func(o *schemeOptions) {
		o.keyStoreOptions = append(o.keyStoreOptions, opts...)
	}
}

type tokenScheme struct {
	tokens TokenService
}

func (s *tokenScheme) Name() string { return SchemeSignedToken }

func (s *tokenScheme) Issue(ctx context.Context, identity Identity) (*Credential, error) {
	token, expiresAt, err := s.tokens.Issue(identity)
	if err != nil {
		return nil, err
	}

	return &Credential{
		Value:     token,
		Type:      SchemeSignedToken,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *tokenScheme) Validate(ctx context.Context, presented string) (string, error) {
	claims, err := s.tokens.Validate(presented)
	if err != nil {
		return "", err
	}
	return claims.UserID(), nil
}

type apiKeyScheme struct {
	store *KeyStore
}

func (s *apiKeyScheme) Name() string { return SchemeAPIKey }

func (s *apiKeyScheme) Issue(ctx context.Context, identity Identity) (*Credential, error) {
	key, expiresAt, err := s.store.Issue(identity.ID())
	if err != nil {
		return nil, err
	}

	return &Credential{
		Value:     key,
		Type:      SchemeAPIKey,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *apiKeyScheme) Validate(ctx context.Context, presented string) (string, error) {
	userID, ok := s.store.Validate(presented)
	if !ok {
		return "", ErrCredentialExpired
	}
	return userID, nil
}

// Store exposes the backing key store so hosts can start its sweeper and
// revoke keys on logout.
func (s *apiKeyScheme) Store() *KeyStore {
	return s.store
}

type backgroundScheme interface {
	Start(ctx context.Context)
}

func (s *apiKeyScheme) Start(ctx context.Context) {
	s.store.Start(ctx)
}
