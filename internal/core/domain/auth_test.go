package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestOAuthToken_IsExpired tests expiry detection on exchange results
func TestOAuthToken_IsExpired(t *testing.T) {
	assert.False(t, (&OAuthToken{}).IsExpired())
	assert.True(t, (&OAuthToken{Expiry: time.Now().Add(-time.Minute)}).IsExpired())
	assert.False(t, (&OAuthToken{Expiry: time.Now().Add(time.Hour)}).IsExpired())
}

// TestCredential_IsExpired tests the refresh skew window
func TestCredential_IsExpired(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	skew := 2 * time.Minute

	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{"no expiry", time.Time{}, false},
		{"well in the future", now.Add(time.Hour), false},
		{"inside skew", now.Add(time.Minute), true},
		{"exactly at skew", now.Add(skew), true},
		{"in the past", now.Add(-time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Credential{ExpiresAt: tt.expiresAt}
			assert.Equal(t, tt.want, c.IsExpired(now, skew))
		})
	}
}

// TestCredential_ApplyToken tests in-place refresh semantics
func TestCredential_ApplyToken(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c := &Credential{
		ID:           "cred-1",
		AccessToken:  "old-access",
		RefreshToken: "keep-me",
		TokenType:    "Bearer",
		Scopes:       []string{"a"},
	}

	c.ApplyToken(&OAuthToken{AccessToken: "new-access", Expiry: now.Add(time.Hour)}, now)

	assert.Equal(t, "cred-1", c.ID)
	assert.Equal(t, "new-access", c.AccessToken)
	assert.Equal(t, "keep-me", c.RefreshToken)
	assert.Equal(t, "Bearer", c.TokenType)
	assert.Equal(t, []string{"a"}, c.Scopes)
	assert.Equal(t, now.Add(time.Hour), c.ExpiresAt)
	assert.Equal(t, now, c.UpdatedAt)

	c.ApplyToken(&OAuthToken{AccessToken: "x", RefreshToken: "rotated"}, now)
	assert.Equal(t, "rotated", c.RefreshToken)
	assert.True(t, c.HasRefreshToken())
	assert.True(t, c.IsAuthenticated())
}
