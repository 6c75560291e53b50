// Package github fetches unread notifications for the developer activity
// source.
//
// # Authentication
//
// The fetcher uses the OAuth access token stored for the user. The OAuth
// app must request the 'notifications' scope; 'repo' is only needed to see
// notifications of private repositories.
//
// Authenticated requests get 5,000 API calls per hour. The client throttles
// proactively at about 1.2 requests per second and, when the remaining quota
// reported in response headers drops below a buffer, waits for the reset.
//
// # Errors
//
// A 401 maps to domain.ErrAuthRequired so the user is asked to reconnect.
// Rate limiting and server errors map to domain.ErrUpstreamUnavailable.
package github
