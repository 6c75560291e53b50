package google

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"

	"github.com/custodia-labs/briefcast/internal/core/domain"
)

// Common Google API errors.
var (
	// ErrUnauthorized indicates invalid or expired credentials.
	ErrUnauthorized = errors.New("google: unauthorised (invalid credentials)")

	// ErrForbidden indicates insufficient permissions.
	ErrForbidden = errors.New("google: forbidden (insufficient permissions)")

	// ErrNotFound indicates the requested resource was not found.
	ErrNotFound = errors.New("google: resource not found")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("google: rate limit exceeded")
)

func statusCode(err error) int {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code
	}
	return 0
}

// IsUnauthorized returns true if the error indicates invalid credentials.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) || statusCode(err) == http.StatusUnauthorized
}

// IsForbidden returns true if the error indicates insufficient permissions.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden) || statusCode(err) == http.StatusForbidden
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || statusCode(err) == http.StatusNotFound
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) || statusCode(err) == http.StatusTooManyRequests {
		return true
	}
	// Quota exhaustion arrives as 403 with a rateLimitExceeded reason.
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusForbidden {
		for _, item := range gerr.Errors {
			if item.Reason == "rateLimitExceeded" || item.Reason == "userRateLimitExceeded" {
				return true
			}
		}
	}
	return false
}

// WrapError converts a Google API error into the domain taxonomy:
// 401 and permission 403s require reauthorization, everything else is an
// upstream failure.
func WrapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case IsRateLimited(err):
		return fmt.Errorf("%w: %w: %w", domain.ErrUpstreamUnavailable, domain.ErrRateLimited, ErrRateLimited)
	case IsUnauthorized(err):
		return fmt.Errorf("%w: %w", domain.ErrAuthRequired, ErrUnauthorized)
	case IsForbidden(err):
		return fmt.Errorf("%w: %w", domain.ErrAuthRequired, ErrForbidden)
	case IsNotFound(err):
		return fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, ErrNotFound)
	default:
		return fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
	}
}

// WrapServiceError keeps domain errors from service construction and marks
// the rest as upstream failures.
func WrapServiceError(service ServiceType, err error) error {
	if errors.Is(err, domain.ErrAuthRequired) {
		return err
	}
	return fmt.Errorf("%w: create %s service: %w", domain.ErrUpstreamUnavailable, service, err)
}
