package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/briefcast/internal/core/domain"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// maxPerPage is the largest page GitHub serves.
	maxPerPage = 50
)

// Client wraps the go-github client with rate limiting and error mapping.
type Client struct {
	gh          *gh.Client
	rateLimiter *RateLimiter
}

// ClientOptions override transport details, mainly for tests.
type ClientOptions struct {
	// BaseURL replaces https://api.github.com/.
	BaseURL string
	// HTTPClient is wrapped with the token transport.
	HTTPClient *http.Client
}

// NewClientWithToken creates a GitHub client with a static access token.
func NewClientWithToken(ctx context.Context, token string, opts ClientOptions) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: no github token", domain.ErrAuthRequired)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})

	var tc *http.Client
	if opts.HTTPClient != nil {
		base := opts.HTTPClient.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		tc = &http.Client{
			Transport: &oauth2.Transport{Source: ts, Base: base},
			Timeout:   opts.HTTPClient.Timeout,
		}
	} else {
		tc = oauth2.NewClient(ctx, ts)
		tc.Timeout = DefaultTimeout
	}

	client := gh.NewClient(tc)
	if opts.BaseURL != "" {
		u, err := url.Parse(strings.TrimSuffix(opts.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parse base url: %w", err)
		}
		client.BaseURL = u
	}

	return &Client{gh: client, rateLimiter: NewRateLimiter()}, nil
}

// ListNotifications returns up to limit unread notifications updated after
// since, newest first.
func (c *Client) ListNotifications(ctx context.Context, since time.Time, limit int) ([]*gh.Notification, error) {
	perPage := limit
	if perPage <= 0 || perPage > maxPerPage {
		perPage = maxPerPage
	}
	opts := &gh.NotificationListOptions{
		Since:       since,
		ListOptions: gh.ListOptions{PerPage: perPage},
	}

	var all []*gh.Notification
	for {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return all, fmt.Errorf("%w: rate limit wait: %w", domain.ErrUpstreamUnavailable, err)
		}

		page, resp, err := c.gh.Activity.ListNotifications(ctx, opts)
		c.updateRateLimitFromResponse(resp)
		if err != nil {
			return all, c.wrapError(err, "list notifications")
		}

		all = append(all, page...)
		if (limit > 0 && len(all) >= limit) || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// RateLimiter returns the rate limiter for external access.
func (c *Client) RateLimiter() *RateLimiter {
	return c.rateLimiter
}

// updateRateLimitFromResponse updates the rate limiter from GitHub response headers.
func (c *Client) updateRateLimitFromResponse(resp *gh.Response) {
	if resp == nil || resp.Response == nil {
		return
	}
	c.rateLimiter.UpdateFromResponse(resp.Response)
}

// wrapError converts go-github errors to our error types.
func (c *Client) wrapError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var rateLimitErr *gh.RateLimitError
	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &rateLimitErr) || errors.As(err, &abuseErr) {
		return &RateLimitError{
			ResetAt:   c.rateLimiter.ResetTime(),
			Remaining: c.rateLimiter.Remaining(),
			Limit:     c.rateLimiter.Limit(),
		}
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		apiErr := &APIError{StatusCode: ghErr.Response.StatusCode, Message: ghErr.Message}
		if ghErr.Response.Request != nil {
			apiErr.URL = ghErr.Response.Request.URL.String()
		}
		return apiErr
	}

	return fmt.Errorf("%s: %w: %w", operation, domain.ErrUpstreamUnavailable, err)
}
