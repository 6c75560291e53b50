package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/briefcast/internal/core/domain"
	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
)

var testCred = &domain.Credential{UserID: "u1", Provider: domain.ProviderGitHub, AccessToken: "gho_test", TokenType: "Bearer"}

const notificationsJSON = `[
	{
		"id": "1",
		"unread": true,
		"reason": "review_requested",
		"updated_at": "2025-06-01T08:00:00Z",
		"subject": {"title": "Add retries", "url": "https://api.github.com/repos/acme/api/pulls/42", "type": "PullRequest"},
		"repository": {"full_name": "acme/api", "html_url": "https://github.com/acme/api"}
	},
	{
		"id": "2",
		"unread": true,
		"reason": "subscribed",
		"updated_at": "2025-06-01T07:00:00Z",
		"subject": {"title": "v1.2.0", "type": "Release"},
		"repository": {"full_name": "acme/cli", "html_url": "https://github.com/acme/cli"}
	}
]`

// TestFetcher_Fetch tests notification conversion
func TestFetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/notifications", r.URL.Path)
		assert.Equal(t, "Bearer gho_test", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.URL.Query().Get("since"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(notificationsJSON))
	}))
	defer srv.Close()

	f := NewFetcher(ClientOptions{BaseURL: srv.URL, HTTPClient: srv.Client()})
	items, err := f.Fetch(context.Background(), driven.FetchRequest{
		Credential: testCred,
		Since:      time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, items, 2)

	pr := items[0]
	assert.Equal(t, "1", pr.SourceID)
	assert.Equal(t, domain.ProviderGitHub, pr.Provider)
	assert.Equal(t, "Add retries", pr.Title)
	assert.Equal(t, "Pull request in acme/api: Add retries (your review was requested)", pr.Body)
	assert.Equal(t, "https://github.com/acme/api/pull/42", pr.URL)
	assert.True(t, pr.Timestamp.Equal(time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)))

	release := items[1]
	assert.Equal(t, "Release in acme/cli: v1.2.0", release.Body)
	assert.Equal(t, "https://github.com/acme/cli", release.URL)
}

// TestFetcher_Unauthorized tests the auth error mapping
func TestFetcher_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message": "Bad credentials"}`))
	}))
	defer srv.Close()

	f := NewFetcher(ClientOptions{BaseURL: srv.URL, HTTPClient: srv.Client()})
	_, err := f.Fetch(context.Background(), driven.FetchRequest{Credential: testCred})

	assert.ErrorIs(t, err, domain.ErrAuthRequired)
	assert.True(t, IsUnauthorized(err))
}

// TestFetcher_ServerError tests that other failures are upstream failures
func TestFetcher_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := NewFetcher(ClientOptions{BaseURL: srv.URL, HTTPClient: srv.Client()})
	_, err := f.Fetch(context.Background(), driven.FetchRequest{Credential: testCred})

	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

// TestFetcher_NoCredential tests the missing credential guard
func TestFetcher_NoCredential(t *testing.T) {
	_, err := NewFetcher(ClientOptions{}).Fetch(context.Background(), driven.FetchRequest{})
	assert.ErrorIs(t, err, domain.ErrAuthRequired)
}

// TestWebURL tests API to web URL conversion
func TestWebURL(t *testing.T) {
	assert.Equal(t, "https://github.com/o/r/issues/7", webURL("https://api.github.com/repos/o/r/issues/7", "x"))
	assert.Equal(t, "https://github.com/o/r/pull/8", webURL("https://api.github.com/repos/o/r/pulls/8", "x"))
	assert.Equal(t, "fallback", webURL("", "fallback"))
}
