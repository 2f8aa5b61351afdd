// Package auth holds the capability check the cart engine uses to pick
// a persistence backend. The contract is deliberately small: a
// token-presence predicate and a bearer-token supplier.
package auth

import "sync"

type Gate interface {
	IsAuthenticated() bool
	Token() string
}

// TokenStore is the default Gate. The hosting application sets the
// token on login and clears it on logout; the engine never reads
// ambient storage for it.
type TokenStore struct {
	mu    sync.RWMutex
	token string
}

func NewTokenStore() *TokenStore {
	return &TokenStore{}
}

func (s *TokenStore) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

func (s *TokenStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
}

func (s *TokenStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *TokenStore) IsAuthenticated() bool {
	return s.Token() != ""
}
