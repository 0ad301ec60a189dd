package blog_test

import (
	"testing"
	"time"

	"github.com/goliatone/go-blog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSigningKey = []byte("test-signing-key-for-unit-tests")

func newTestTokenService(clock func() time.Time, opts ...blog.TokenOption) blog.TokenService {
	options := []blog.TokenOption{}
	if clock != nil {
		options = append(options, blog.WithTokenClock(clock))
	}
	options = append(options, opts...)

	return blog.NewTokenService(
		testSigningKey,
		blog.DefaultCredentialTTL,
		"blog-test",
		nil,
		nil,
		options...,
	)
}

func TestTokenServiceRoundTrip(t *testing.T) {
	identity := testIdentity{
		id:       "c0f05a6f-3b08-46da-9e95-27fa921c4db1",
		username: "sam",
		email:    "sam@example.com",
	}

	svc := newTestTokenService(nil)

	token, expiresAt, err := svc.Issue(identity)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(blog.DefaultCredentialTTL), expiresAt, 5*time.Second)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, identity.ID(), claims.Subject())
	assert.Equal(t, identity.ID(), claims.UserID())
	assert.WithinDuration(t, expiresAt, claims.Expires(), time.Second)
}

func TestTokenServiceIssueRequiresIdentity(t *testing.T) {
	svc := newTestTokenService(nil)

	_, _, err := svc.Issue(nil)
	assert.Error(t, err)
}

func TestTokenServiceRejectsWrongKey(t *testing.T) {
	identity := testIdentity{id: "7d444840-9dc0-11d1-b245-5ffdce74fad2"}

	issuer := newTestTokenService(nil)
	token, _, err := issuer.Issue(identity)
	require.NoError(t, err)

	verifier := blog.NewTokenService(
		[]byte("a-completely-different-key"),
		blog.DefaultCredentialTTL,
		"blog-test",
		nil,
		nil,
	)

	_, err = verifier.Validate(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, blog.ErrCredentialTampered)
	assert.True(t, blog.IsAuthRejection(err))
}

func TestTokenServiceExpiry(t *testing.T) {
	identity := testIdentity{id: "7d444840-9dc0-11d1-b245-5ffdce74fad2"}

	issuedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	now := issuedAt

	svc := newTestTokenService(func() time.Time { return now })

	token, expiresAt, err := svc.Issue(identity)
	require.NoError(t, err)
	assert.Equal(t, issuedAt.Add(blog.DefaultCredentialTTL), expiresAt)

	// still inside the window
	now = issuedAt.Add(blog.DefaultCredentialTTL - time.Second)
	_, err = svc.Validate(token)
	assert.NoError(t, err)

	// past the window
	now = issuedAt.Add(blog.DefaultCredentialTTL + time.Second)
	_, err = svc.Validate(token)
	require.Error(t, err)
	assert.True(t, blog.IsCredentialExpiredError(err))
}

func TestTokenServiceRejectsGarbage(t *testing.T) {
	svc := newTestTokenService(nil)

	tests := []struct {
		name  string
		token string
	}{
		{name: "Empty string", token: ""},
		{name: "Not a token", token: "definitely-not-a-jwt"},
		{name: "Truncated token", token: "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Validate(tt.token)
			require.Error(t, err)
			assert.True(t, blog.IsMalformedError(err))
		})
	}
}

func TestTokenServiceIssuerMismatch(t *testing.T) {
	identity := testIdentity{id: "7d444840-9dc0-11d1-b245-5ffdce74fad2"}

	issuer := blog.NewTokenService(testSigningKey, blog.DefaultCredentialTTL, "someone-else", nil, nil)
	token, _, err := issuer.Issue(identity)
	require.NoError(t, err)

	verifier := newTestTokenService(nil)
	_, err = verifier.Validate(token)
	assert.Error(t, err)
}
