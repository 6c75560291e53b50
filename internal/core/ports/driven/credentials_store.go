package driven

import (
	"context"

	"github.com/custodia-labs/briefcast/internal/core/domain"
)

// CredentialStore persists user-specific OAuth credentials.
// Credentials are keyed by (user, provider); Save upserts on that key so a
// refresh never creates a duplicate.
type CredentialStore interface {
	// Save stores a credential. Creates if new, updates if one exists for the
	// same user and provider.
	Save(ctx context.Context, cred domain.Credential) error

	// Get retrieves the credential for a user and provider.
	// Returns nil if no credential exists.
	Get(ctx context.Context, userID string, provider domain.Provider) (*domain.Credential, error)

	// List returns all credentials of a user.
	List(ctx context.Context, userID string) ([]domain.Credential, error)

	// Delete removes the credential for a user and provider.
	Delete(ctx context.Context, userID string, provider domain.Provider) error
}
