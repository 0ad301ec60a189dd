package blog_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-blog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityContextRoundTrip(t *testing.T) {
	identity := testIdentity{id: "id-1", username: "sam", email: "sam@example.com"}

	ctx := blog.WithIdentityContext(context.Background(), identity)

	resolved, ok := blog.IdentityFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, identity.ID(), resolved.ID())
	assert.Equal(t, identity.Username(), resolved.Username())
}

func TestIdentityFromContextMissing(t *testing.T) {
	_, ok := blog.IdentityFromContext(context.Background())
	assert.False(t, ok)
}
