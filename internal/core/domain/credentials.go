package domain

import "time"

// Credential stores a user's OAuth tokens for one provider.
// There is at most one live credential per (UserID, Provider); a refresh
// replaces AccessToken and ExpiresAt in place.
type Credential struct {
	// ID is the unique identifier (UUID).
	ID string `json:"id"`
	// UserID owns the credential.
	UserID string `json:"user_id"`
	// Provider is the service the tokens are valid for.
	Provider Provider `json:"provider"`

	// AccessToken is the bearer token for API access.
	AccessToken string `json:"access_token"`
	// RefreshToken is used to obtain new access tokens. Optional.
	RefreshToken string `json:"refresh_token,omitempty"`
	// TokenType is typically "Bearer".
	TokenType string `json:"token_type"`
	// ExpiresAt is when the access token expires. Zero means it does not expire.
	ExpiresAt time.Time `json:"expires_at,omitempty"`
	// Scopes granted by the user.
	Scopes []string `json:"scopes,omitempty"`

	// CreatedAt is when the credential was first stored.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is when the credential was last updated.
	UpdatedAt time.Time `json:"updated_at"`
}

// IsExpired reports whether the access token is expired at now, treating it
// as expired skew before its nominal expiry.
func (c *Credential) IsExpired(now time.Time, skew time.Duration) bool {
	if c.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(c.ExpiresAt.Add(-skew))
}

// HasRefreshToken returns true if a refresh token is available.
func (c *Credential) HasRefreshToken() bool {
	return c.RefreshToken != ""
}

// IsAuthenticated returns true if the credential holds an access token.
func (c *Credential) IsAuthenticated() bool {
	return c.AccessToken != ""
}

// ApplyToken copies a freshly issued token into the credential. A token
// response without a refresh token keeps the existing one.
func (c *Credential) ApplyToken(token *OAuthToken, now time.Time) {
	c.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		c.RefreshToken = token.RefreshToken
	}
	if token.TokenType != "" {
		c.TokenType = token.TokenType
	}
	c.ExpiresAt = token.Expiry
	if len(token.Scopes) > 0 {
		c.Scopes = token.Scopes
	}
	c.UpdatedAt = now
}

// ConnectionState describes a user's connection to a provider.
type ConnectionState string

const (
	// ConnectionConnected means a usable credential exists.
	ConnectionConnected ConnectionState = "connected"
	// ConnectionNeedsReauth means a credential exists but cannot be refreshed.
	ConnectionNeedsReauth ConnectionState = "needs_reauth"
	// ConnectionDisconnected means no credential exists.
	ConnectionDisconnected ConnectionState = "disconnected"
	// ConnectionNotRequired is reported for providers without auth.
	ConnectionNotRequired ConnectionState = "not_required"
)

// ConnectionStatus is the per-provider summary reported to clients.
type ConnectionStatus struct {
	Provider  Provider        `json:"provider"`
	State     ConnectionState `json:"state"`
	ExpiresAt time.Time       `json:"expires_at,omitempty"`
	Scopes    []string        `json:"scopes,omitempty"`
}
