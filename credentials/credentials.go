// Package credentials defines the credential store contract consumed by the
// HTTP client pipeline, together with in-memory and OS-keychain backed
// implementations. The pipeline only ever reads and writes tokens through
// the Store interface and never caches them beyond a single request.
package credentials

import (
	"errors"
	"time"
)

// ErrNotFound indicates the store holds no value for the requested token.
var ErrNotFound = errors.New("credentials: not found")

// Pair is an access/refresh token pair as returned by a token endpoint.
// RefreshToken and ExpiresAt are optional; a zero ExpiresAt means the
// server supplied no expiry hint.
type Pair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Expired reports whether the pair's expiry hint has passed. Pairs without
// a hint are never considered expired locally; the server decides.
func (p Pair) Expired(now time.Time) bool {
	return !p.ExpiresAt.IsZero() && now.After(p.ExpiresAt)
}

// Store holds the current credential pair. Implementations must be safe for
// concurrent use: the refresh coordinator writes while request goroutines
// read.
type Store interface {
	// AccessToken returns the current access token, or ok=false when no
	// session exists.
	AccessToken() (token string, ok bool)
	// RefreshToken returns the current refresh token, or ok=false when the
	// session cannot be refreshed.
	RefreshToken() (token string, ok bool)
	// Save replaces the stored pair.
	Save(pair Pair) error
	// Clear removes all stored tokens.
	Clear() error
	// IsAuthenticated reports whether an access token is present.
	IsAuthenticated() bool
}
