package credentials

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/zalando/go-keyring"
)

const (
	accessTokenKey  = "access-token"
	refreshTokenKey = "refresh-token"
	expiresAtKey    = "expires-at"
)

// KeyringStore persists tokens in the operating system keychain:
// macOS Keychain Access, the Linux Secret Service API (GNOME Keyring,
// KWallet), or the Windows Credential Manager. Tokens survive process
// restarts without ever touching disk in plain text.
type KeyringStore struct {
	mu      sync.Mutex
	service string
}

// Ensure KeyringStore implements the interface
var _ Store = (*KeyringStore)(nil)

// NewKeyringStore creates a keychain-backed store scoped to the given
// service name. It probes the keychain once so an unavailable or locked
// backend is reported at construction time rather than mid-request.
func NewKeyringStore(service string) (*KeyringStore, error) {
	if service == "" {
		return nil, errors.New("credentials: keyring service name is required")
	}
	_, err := keyring.Get(service, accessTokenKey)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return nil, fmt.Errorf("credentials: keyring unavailable: %w", err)
	}
	return &KeyringStore{service: service}, nil
}

// AccessToken returns the stored access token if present.
func (s *KeyringStore) AccessToken() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(accessTokenKey)
}

// RefreshToken returns the stored refresh token if present.
func (s *KeyringStore) RefreshToken() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(refreshTokenKey)
}

// Save writes the pair to the keychain. The refresh token entry is removed
// when the pair carries none, so a stale refresh token can never outlive
// the session that produced it.
func (s *KeyringStore) Save(pair Pair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := keyring.Set(s.service, accessTokenKey, pair.AccessToken); err != nil {
		return fmt.Errorf("credentials: save access token: %w", err)
	}
	if pair.RefreshToken != "" {
		if err := keyring.Set(s.service, refreshTokenKey, pair.RefreshToken); err != nil {
			return fmt.Errorf("credentials: save refresh token: %w", err)
		}
	} else {
		s.delete(refreshTokenKey)
	}
	if !pair.ExpiresAt.IsZero() {
		ts := strconv.FormatInt(pair.ExpiresAt.Unix(), 10)
		if err := keyring.Set(s.service, expiresAtKey, ts); err != nil {
			return fmt.Errorf("credentials: save expiry: %w", err)
		}
	} else {
		s.delete(expiresAtKey)
	}
	return nil
}

// Clear removes every token entry for the service.
func (s *KeyringStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, key := range []string{accessTokenKey, refreshTokenKey, expiresAtKey} {
		if err := keyring.Delete(s.service, key); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			errs = append(errs, fmt.Errorf("credentials: clear %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

// IsAuthenticated reports whether an access token is present.
func (s *KeyringStore) IsAuthenticated() bool {
	_, ok := s.AccessToken()
	return ok
}

// ExpiresAt returns the stored expiry hint if one was saved.
func (s *KeyringStore) ExpiresAt() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok := s.get(expiresAtKey)
	if !ok {
		return time.Time{}, false
	}
	unix, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(unix, 0), true
}

func (s *KeyringStore) get(key string) (string, bool) {
	value, err := keyring.Get(s.service, key)
	if err != nil || value == "" {
		return "", false
	}
	return value, true
}

func (s *KeyringStore) delete(key string) {
	// Best effort; a missing entry is the desired end state.
	_ = keyring.Delete(s.service, key)
}
