package credentials

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return token
}

func TestExpiryHint(t *testing.T) {
	exp := time.Now().Add(15 * time.Minute).Truncate(time.Second)

	token := signedToken(t, jwt.MapClaims{"sub": "user-1", "exp": exp.Unix()})

	hint, ok := ExpiryHint(token)
	require.True(t, ok)
	assert.True(t, hint.Equal(exp))
}

func TestExpiryHintWithoutExpClaim(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"sub": "user-1"})

	_, ok := ExpiryHint(token)
	assert.False(t, ok)
}

func TestExpiryHintOpaqueToken(t *testing.T) {
	_, ok := ExpiryHint("not-a-jwt")
	assert.False(t, ok)

	_, ok = ExpiryHint("")
	assert.False(t, ok)
}

func TestWithExpiryHint(t *testing.T) {
	exp := time.Now().Add(15 * time.Minute).Truncate(time.Second)
	token := signedToken(t, jwt.MapClaims{"exp": exp.Unix()})

	t.Run("populates missing hint from the token", func(t *testing.T) {
		pair := WithExpiryHint(Pair{AccessToken: token})
		assert.True(t, pair.ExpiresAt.Equal(exp))
	})

	t.Run("explicit hint wins over the claim", func(t *testing.T) {
		explicit := time.Now().Add(time.Hour)
		pair := WithExpiryHint(Pair{AccessToken: token, ExpiresAt: explicit})
		assert.True(t, pair.ExpiresAt.Equal(explicit))
	})

	t.Run("opaque token leaves the pair untouched", func(t *testing.T) {
		pair := WithExpiryHint(Pair{AccessToken: "opaque"})
		assert.True(t, pair.ExpiresAt.IsZero())
	})
}
