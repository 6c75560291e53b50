package driving

import (
	"context"

	"github.com/custodia-labs/briefcast/internal/core/domain"
)

// ConnectorRegistry owns per-user provider credentials.
type ConnectorRegistry interface {
	// GetValidCredential returns a credential whose access token is usable
	// now, refreshing and persisting it first when it has expired.
	// Returns domain.ErrAuthRequired when no usable credential can be produced.
	GetValidCredential(ctx context.Context, userID string, provider domain.Provider) (*domain.Credential, error)

	// NeedsReauthorization reports whether the user must reconnect the provider.
	NeedsReauthorization(ctx context.Context, userID string, provider domain.Provider) (bool, error)

	// AuthorizationURL returns the consent URL for connecting a provider.
	AuthorizationURL(ctx context.Context, userID string, provider domain.Provider) (string, error)

	// Connect completes an authorization with the code and state from the callback.
	Connect(ctx context.Context, provider domain.Provider, code, state string) (*domain.Credential, error)

	// Disconnect removes the user's credential for a provider.
	Disconnect(ctx context.Context, userID string, provider domain.Provider) error

	// Status reports the connection state of every provider.
	Status(ctx context.Context, userID string) ([]domain.ConnectionStatus, error)
}

// ContentAggregator fans out to the enabled providers of a user.
type ContentAggregator interface {
	// Aggregate returns a settled result for every requested provider.
	// Provider failures are recorded in the result and never returned.
	Aggregate(ctx context.Context, req AggregateRequest) domain.AggregatedContent
}

// AggregateRequest selects the providers and per-user parameters of a run.
type AggregateRequest struct {
	UserID    string
	Providers []domain.Provider
	Settings  domain.UserSettings
}
