package credentials

import "sync"

// MemoryStore is a mutex-serialized in-process Store. It is the default
// store for short-lived clients and for tests.
type MemoryStore struct {
	mu   sync.RWMutex
	pair Pair
	set  bool
}

// Ensure MemoryStore implements the interface
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory credential store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// AccessToken returns the current access token if one is stored.
func (s *MemoryStore) AccessToken() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.set || s.pair.AccessToken == "" {
		return "", false
	}
	return s.pair.AccessToken, true
}

// RefreshToken returns the current refresh token if one is stored.
func (s *MemoryStore) RefreshToken() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.set || s.pair.RefreshToken == "" {
		return "", false
	}
	return s.pair.RefreshToken, true
}

// Save replaces the stored pair.
func (s *MemoryStore) Save(pair Pair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = pair
	s.set = true
	return nil
}

// Clear removes the stored pair.
func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = Pair{}
	s.set = false
	return nil
}

// IsAuthenticated reports whether an access token is present.
func (s *MemoryStore) IsAuthenticated() bool {
	_, ok := s.AccessToken()
	return ok
}
