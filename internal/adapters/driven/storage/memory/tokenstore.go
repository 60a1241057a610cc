package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/mediatracker/internal/core/domain"
	"github.com/custodia-labs/mediatracker/internal/core/ports/driven"
)

// Ensure TokenStore implements the interface.
var _ driven.TokenStore = (*TokenStore)(nil)

// TokenStore is an in-memory driven.TokenStore.
type TokenStore struct {
	mu    sync.RWMutex
	creds *domain.RemoteCredentials
}

// NewTokenStore creates an empty token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{}
}

// SaveCredentials replaces the stored credentials.
func (s *TokenStore) SaveCredentials(_ context.Context, creds domain.RemoteCredentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = &creds
	return nil
}

// GetCredentials returns a copy of the stored credentials, or nil.
func (s *TokenStore) GetCredentials(context.Context) (*domain.RemoteCredentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.creds == nil {
		return nil, nil
	}
	c := *s.creds
	return &c, nil
}

// DeleteCredentials removes the stored credentials.
func (s *TokenStore) DeleteCredentials(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = nil
	return nil
}
