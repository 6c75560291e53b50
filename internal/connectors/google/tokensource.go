package google

import (
	"golang.org/x/oauth2"

	"github.com/custodia-labs/briefcast/internal/core/domain"
)

// NewTokenSource returns a static oauth2.TokenSource for a credential.
// The connector registry refreshes credentials before a run, so the source
// never refreshes on its own; an expired token surfaces as a 401.
func NewTokenSource(cred *domain.Credential) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: cred.AccessToken,
		TokenType:   cred.TokenType,
		Expiry:      cred.ExpiresAt,
	})
}
