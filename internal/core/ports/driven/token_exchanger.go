package driven

import (
	"context"

	"github.com/custodia-labs/briefcast/internal/core/domain"
)

// TokenExchanger talks to a provider's OAuth endpoints. Redirect URIs and
// client credentials are adapter configuration.
type TokenExchanger interface {
	// AuthCodeURL builds the consent URL the user is sent to.
	AuthCodeURL(provider domain.Provider, state string) (string, error)

	// Exchange trades an authorization code for tokens.
	Exchange(ctx context.Context, provider domain.Provider, code string) (*domain.OAuthToken, error)

	// Refresh obtains a new access token from a refresh token.
	Refresh(ctx context.Context, provider domain.Provider, refreshToken string) (*domain.OAuthToken, error)
}

// StateCodec signs and verifies the OAuth state parameter so a callback can
// be tied back to the user and provider that started it.
type StateCodec interface {
	Encode(userID string, provider domain.Provider) (string, error)
	Decode(state string) (userID string, provider domain.Provider, err error)
}
