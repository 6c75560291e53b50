// Package oauth exchanges authorization codes and refresh tokens with the
// OAuth endpoints of the supported providers.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"

	"github.com/custodia-labs/briefcast/internal/core/domain"
	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
)

// Verify interface compliance at compile time.
var _ driven.TokenExchanger = (*Exchanger)(nil)

// notionEndpoint is Notion's public integration OAuth endpoint.
var notionEndpoint = oauth2.Endpoint{
	AuthURL:   "https://api.notion.com/v1/oauth/authorize",
	TokenURL:  "https://api.notion.com/v1/oauth/token",
	AuthStyle: oauth2.AuthStyleInHeader,
}

// DefaultScopes returns the read-only scopes requested for a provider.
func DefaultScopes(provider domain.Provider) []string {
	switch provider {
	case domain.ProviderGmail:
		return []string{"https://www.googleapis.com/auth/gmail.readonly"}
	case domain.ProviderCalendar:
		return []string{"https://www.googleapis.com/auth/calendar.readonly"}
	case domain.ProviderYouTube:
		return []string{"https://www.googleapis.com/auth/youtube.readonly"}
	case domain.ProviderDrive:
		return []string{"https://www.googleapis.com/auth/drive.readonly"}
	case domain.ProviderGitHub:
		return []string{"notifications", "read:user"}
	default:
		return nil
	}
}

// ProviderConfig is the OAuth client registration for one provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// Scopes override DefaultScopes when set.
	Scopes []string
	// AuthURL and TokenURL override the provider's well-known endpoints.
	AuthURL  string
	TokenURL string
}

// Exchanger implements driven.TokenExchanger with golang.org/x/oauth2.
type Exchanger struct {
	configs    map[domain.Provider]*oauth2.Config
	httpClient *http.Client
}

// NewExchanger builds an exchanger for every configured provider.
// Providers without a client id are left out and report
// domain.ErrUnsupportedProvider.
func NewExchanger(providers map[domain.Provider]ProviderConfig) *Exchanger {
	e := &Exchanger{
		configs:    make(map[domain.Provider]*oauth2.Config),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for provider, pc := range providers {
		if pc.ClientID == "" || !provider.RequiresAuth() {
			continue
		}
		endpoint := endpointFor(provider)
		if pc.AuthURL != "" {
			endpoint.AuthURL = pc.AuthURL
		}
		if pc.TokenURL != "" {
			endpoint.TokenURL = pc.TokenURL
		}
		scopes := pc.Scopes
		if len(scopes) == 0 {
			scopes = DefaultScopes(provider)
		}
		e.configs[provider] = &oauth2.Config{
			ClientID:     pc.ClientID,
			ClientSecret: pc.ClientSecret,
			RedirectURL:  pc.RedirectURL,
			Scopes:       scopes,
			Endpoint:     endpoint,
		}
	}
	return e
}

// WithHTTPClient sets the client used for token requests.
func (e *Exchanger) WithHTTPClient(c *http.Client) *Exchanger {
	e.httpClient = c
	return e
}

// Configured reports whether the provider has a client registration.
func (e *Exchanger) Configured(provider domain.Provider) bool {
	_, ok := e.configs[provider]
	return ok
}

func endpointFor(provider domain.Provider) oauth2.Endpoint {
	switch provider {
	case domain.ProviderGitHub:
		return github.Endpoint
	case domain.ProviderNotion:
		return notionEndpoint
	default:
		return google.Endpoint
	}
}

func (e *Exchanger) config(provider domain.Provider) (*oauth2.Config, error) {
	cfg, ok := e.configs[provider]
	if !ok {
		return nil, fmt.Errorf("%w: no oauth client configured for %s", domain.ErrUnsupportedProvider, provider)
	}
	return cfg, nil
}

// AuthCodeURL builds the consent URL. Google providers request offline
// access so a refresh token is issued.
func (e *Exchanger) AuthCodeURL(provider domain.Provider, state string) (string, error) {
	cfg, err := e.config(provider)
	if err != nil {
		return "", err
	}

	var opts []oauth2.AuthCodeOption
	switch provider {
	case domain.ProviderNotion:
		opts = append(opts, oauth2.SetAuthURLParam("owner", "user"))
	case domain.ProviderGitHub:
	default:
		opts = append(opts, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	}
	return cfg.AuthCodeURL(state, opts...), nil
}

// Exchange trades an authorization code for tokens.
func (e *Exchanger) Exchange(ctx context.Context, provider domain.Provider, code string) (*domain.OAuthToken, error) {
	cfg, err := e.config(provider)
	if err != nil {
		return nil, err
	}

	tok, err := cfg.Exchange(e.context(ctx), code)
	if err != nil {
		return nil, classify(err, "exchange code")
	}
	return toDomain(tok), nil
}

// Refresh obtains a new access token. The returned token carries an empty
// RefreshToken when the provider did not rotate it.
func (e *Exchanger) Refresh(ctx context.Context, provider domain.Provider, refreshToken string) (*domain.OAuthToken, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: no refresh token", domain.ErrTokenRefreshFailed)
	}
	cfg, err := e.config(provider)
	if err != nil {
		return nil, err
	}

	src := cfg.TokenSource(e.context(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, classify(err, "refresh token")
	}
	out := toDomain(tok)
	if out.RefreshToken == refreshToken {
		out.RefreshToken = ""
	}
	return out, nil
}

func (e *Exchanger) context(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, e.httpClient)
}

// classify maps rejected grants to ErrTokenRefreshFailed and transport
// failures to ErrUpstreamUnavailable.
func classify(err error, op string) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		if re.Response != nil && re.Response.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("%s: %w: status %d", op, domain.ErrUpstreamUnavailable, re.Response.StatusCode)
		}
		reason := re.ErrorCode
		if reason == "" {
			reason = strings.TrimSpace(string(re.Body))
		}
		return fmt.Errorf("%s: %w: %s", op, domain.ErrTokenRefreshFailed, reason)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrUpstreamUnavailable, err)
}

func toDomain(tok *oauth2.Token) *domain.OAuthToken {
	out := &domain.OAuthToken{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry,
	}
	if out.TokenType == "" {
		out.TokenType = "Bearer"
	}
	if scope, ok := tok.Extra("scope").(string); ok && scope != "" {
		out.Scopes = strings.FieldsFunc(scope, func(r rune) bool { return r == ' ' || r == ',' })
	}
	return out
}
