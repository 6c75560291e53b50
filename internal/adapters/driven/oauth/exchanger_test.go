package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/briefcast/internal/core/domain"
)

// tokenServer answers token requests with the handler's JSON.
func tokenServer(t *testing.T, handle func(form url.Values) (int, map[string]any)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		status, body := handle(r.PostForm)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestExchanger(srv *httptest.Server) *Exchanger {
	return NewExchanger(map[domain.Provider]ProviderConfig{
		domain.ProviderGmail: {
			ClientID:     "client",
			ClientSecret: "secret",
			RedirectURL:  "http://localhost/callback",
			TokenURL:     srv.URL + "/token",
		},
	}).WithHTTPClient(srv.Client())
}

// TestExchanger_AuthCodeURL tests consent URL construction
func TestExchanger_AuthCodeURL(t *testing.T) {
	e := NewExchanger(map[domain.Provider]ProviderConfig{
		domain.ProviderGmail:  {ClientID: "g", RedirectURL: "http://localhost/cb"},
		domain.ProviderNotion: {ClientID: "n"},
		domain.ProviderTrends: {ClientID: "ignored"},
	})

	raw, err := e.AuthCodeURL(domain.ProviderGmail, "st")
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "accounts.google.com", u.Host)
	assert.Equal(t, "st", u.Query().Get("state"))
	assert.Equal(t, "offline", u.Query().Get("access_type"))
	assert.Equal(t, "consent", u.Query().Get("prompt"))
	assert.Contains(t, u.Query().Get("scope"), "gmail.readonly")

	raw, err = e.AuthCodeURL(domain.ProviderNotion, "st")
	require.NoError(t, err)
	assert.Contains(t, raw, "api.notion.com")
	assert.Contains(t, raw, "owner=user")

	assert.False(t, e.Configured(domain.ProviderTrends))
	_, err = e.AuthCodeURL(domain.ProviderGitHub, "st")
	assert.ErrorIs(t, err, domain.ErrUnsupportedProvider)
}

// TestExchanger_Exchange tests code exchange
func TestExchanger_Exchange(t *testing.T) {
	srv := tokenServer(t, func(form url.Values) (int, map[string]any) {
		assert.Equal(t, "authorization_code", form.Get("grant_type"))
		assert.Equal(t, "the-code", form.Get("code"))
		return http.StatusOK, map[string]any{
			"access_token":  "access",
			"refresh_token": "refresh",
			"token_type":    "Bearer",
			"expires_in":    3600,
			"scope":         "a b",
		}
	})

	tok, err := newTestExchanger(srv).Exchange(context.Background(), domain.ProviderGmail, "the-code")
	require.NoError(t, err)
	assert.Equal(t, "access", tok.AccessToken)
	assert.Equal(t, "refresh", tok.RefreshToken)
	assert.False(t, tok.Expiry.IsZero())
	assert.Equal(t, []string{"a", "b"}, tok.Scopes)
}

// TestExchanger_Refresh tests refresh without rotation
func TestExchanger_Refresh(t *testing.T) {
	srv := tokenServer(t, func(form url.Values) (int, map[string]any) {
		assert.Equal(t, "refresh_token", form.Get("grant_type"))
		assert.Equal(t, "keep-me", form.Get("refresh_token"))
		return http.StatusOK, map[string]any{"access_token": "fresh", "token_type": "Bearer", "expires_in": 60}
	})

	tok, err := newTestExchanger(srv).Refresh(context.Background(), domain.ProviderGmail, "keep-me")
	require.NoError(t, err)
	assert.Equal(t, "fresh", tok.AccessToken)
	assert.Empty(t, tok.RefreshToken)
}

// TestExchanger_RefreshRejected tests error classification
func TestExchanger_RefreshRejected(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"invalid grant", http.StatusBadRequest, domain.ErrTokenRefreshFailed},
		{"server error", http.StatusBadGateway, domain.ErrUpstreamUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := tokenServer(t, func(url.Values) (int, map[string]any) {
				return tt.status, map[string]any{"error": "invalid_grant"}
			})

			_, err := newTestExchanger(srv).Refresh(context.Background(), domain.ProviderGmail, "revoked")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

// TestExchanger_RefreshWithoutToken tests the empty refresh token guard
func TestExchanger_RefreshWithoutToken(t *testing.T) {
	_, err := NewExchanger(nil).Refresh(context.Background(), domain.ProviderGmail, "")
	assert.ErrorIs(t, err, domain.ErrTokenRefreshFailed)
}
