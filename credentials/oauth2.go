package credentials

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
)

// RefreshFunc exchanges a refresh token for a new credential pair. The
// refresh coordinator invokes it at most once at a time.
type RefreshFunc func(ctx context.Context, refreshToken string) (Pair, error)

// OAuth2Refresher builds a RefreshFunc that exchanges refresh tokens
// against a standard OAuth2 token endpoint. The returned pair keeps the old
// refresh token when the endpoint does not rotate it, and carries the
// endpoint's expiry (falling back to the access token's exp claim).
func OAuth2Refresher(conf *oauth2.Config) RefreshFunc {
	return func(ctx context.Context, refreshToken string) (Pair, error) {
		src := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
		tok, err := src.Token()
		if err != nil {
			return Pair{}, fmt.Errorf("credentials: token refresh: %w", err)
		}

		pair := Pair{
			AccessToken:  tok.AccessToken,
			RefreshToken: tok.RefreshToken,
			ExpiresAt:    tok.Expiry,
		}
		if pair.RefreshToken == "" {
			pair.RefreshToken = refreshToken
		}
		return WithExpiryHint(pair), nil
	}
}
