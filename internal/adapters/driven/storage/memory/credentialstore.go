package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/briefcast/internal/core/domain"
	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
)

// Ensure CredentialStore implements the interface.
var _ driven.CredentialStore = (*CredentialStore)(nil)

// CredentialStore is an in-memory implementation of driven.CredentialStore.
type CredentialStore struct {
	mu    sync.RWMutex
	creds map[credKey]domain.Credential
}

type credKey struct {
	userID   string
	provider domain.Provider
}

// NewCredentialStore creates a new in-memory credential store.
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{creds: make(map[credKey]domain.Credential)}
}

// Save stores or replaces the credential for its user and provider.
func (s *CredentialStore) Save(_ context.Context, cred domain.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[credKey{cred.UserID, cred.Provider}] = copyCredential(cred)
	return nil
}

// Get returns a copy of the credential, or nil if none exists.
func (s *CredentialStore) Get(_ context.Context, userID string, provider domain.Provider) (*domain.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cred, ok := s.creds[credKey{userID, provider}]
	if !ok {
		return nil, nil
	}
	c := copyCredential(cred)
	return &c, nil
}

// List returns all credentials of a user.
func (s *CredentialStore) List(_ context.Context, userID string) ([]domain.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Credential
	for k, c := range s.creds {
		if k.userID == userID {
			out = append(out, copyCredential(c))
		}
	}
	return out, nil
}

// Delete removes the credential for a user and provider.
func (s *CredentialStore) Delete(_ context.Context, userID string, provider domain.Provider) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.creds, credKey{userID, provider})
	return nil
}

func copyCredential(c domain.Credential) domain.Credential {
	if c.Scopes != nil {
		c.Scopes = append([]string(nil), c.Scopes...)
	}
	return c
}
