package credentials

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ExpiryHint extracts the exp claim from a JWT access token without
// verifying its signature. The hint is advisory only: the pipeline uses it
// to annotate stored pairs, never to reject a token locally. Returns
// ok=false for opaque (non-JWT) tokens or tokens without an exp claim.
func ExpiryHint(token string) (time.Time, bool) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// WithExpiryHint returns a copy of the pair with ExpiresAt populated from
// the access token's exp claim when the pair carries no explicit hint.
func WithExpiryHint(pair Pair) Pair {
	if !pair.ExpiresAt.IsZero() {
		return pair
	}
	if exp, ok := ExpiryHint(pair.AccessToken); ok {
		pair.ExpiresAt = exp
	}
	return pair
}
