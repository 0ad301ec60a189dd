package blog

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"

	"github.com/goliatone/go-errors"
)

// apiKeyBytes is the entropy per issued key; 32 bytes rendered as base64url
// gives a 43-character ASCII key.
const apiKeyBytes = 32

type apiKeyRecord struct {
	userID    string
	expiresAt time.Time
}

// KeyStore is an in-memory registry of ephemeral API keys. Keys are valid for
// a single fixed TTL after issuance, may be presented any number of times
// within that window, and are never extended. Expired records are evicted
// lazily on read and actively by the background sweeper, so keys nobody
// revisits cannot accumulate. State is process-local and lost on restart.
type KeyStore struct {
	mu   sync.Mutex
	keys map[string]apiKeyRecord

	ttl           time.Duration
	sweepInterval time.Duration
	now           func() time.Time
	logger        Logger
}

// KeyStoreOption customizes the key store
type KeyStoreOption func(*KeyStore)

// WithKeyStoreClock injects a custom clock (useful for tests)
func WithKeyStoreClock(clock func() time.Time) KeyStoreOption {
	return func(s *KeyStore) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithSweepInterval overrides how often the background sweeper runs
func WithSweepInterval(interval time.Duration) KeyStoreOption {
	return func(s *KeyStore) {
		if interval > 0 {
			s.sweepInterval = interval
		}
	}
}

// WithKeyStoreLogger overrides the logger
func WithKeyStoreLogger(logger Logger) KeyStoreOption {
	return func(s *KeyStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewKeyStore creates a key store whose keys expire ttl after issuance
func NewKeyStore(ttl time.Duration, opts ...KeyStoreOption) *KeyStore {
	s := &KeyStore{
		keys:          make(map[string]apiKeyRecord),
		ttl:           ttl,
		sweepInterval: time.Minute,
		now:           time.Now,
		logger:        defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// Issue generates a fresh high-entropy key for the given user and records it
// with an absolute expiry of now + TTL.
func (s *KeyStore) Issue(userID string) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, errors.New("user id is required", errors.CategoryBadInput)
	}

	key, err := generateAPIKey()
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, errors.CategoryInternal, "failed to generate API key")
	}

	expiresAt := s.now().Add(s.ttl)

	s.mu.Lock()
	s.keys[key] = apiKeyRecord{userID: userID, expiresAt: expiresAt}
	s.mu.Unlock()

	return key, expiresAt, nil
}

// Validate looks up a presented key. An unknown key and an expired key are
// indistinguishable to the caller; the expired case additionally evicts the
// record. A valid key is neither consumed nor extended.
func (s *KeyStore) Validate(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.keys[key]
	if !ok {
		return "", false
	}

	if s.now().After(record.expiresAt) {
		delete(s.keys, key)
		return "", false
	}

	return record.userID, true
}

// Revoke removes a key regardless of its expiry
func (s *KeyStore) Revoke(key string) {
	s.mu.Lock()
	delete(s.keys, key)
	s.mu.Unlock()
}

// Len returns the number of records currently held, expired or not
func (s *KeyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keys)
}

// Start launches the background sweeper. It returns immediately; the sweeper
// stops when ctx is cancelled.
func (s *KeyStore) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if evicted := s.sweep(); evicted > 0 {
					s.logger.Debug("key store sweep evicted %d expired keys", evicted)
				}
			}
		}
	}()
}

func (s *KeyStore) sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for key, record := range s.keys {
		if now.After(record.expiresAt) {
			delete(s.keys, key)
			evicted++
		}
	}

	return evicted
}

func generateAPIKey() (string, error) {
	raw := make([]byte, apiKeyBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
