package notion

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jomei/notionapi"

	"github.com/custodia-labs/briefcast/internal/core/domain"
)

// wrapError maps a Notion API error to the domain taxonomy.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *notionapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: notion: %s", domain.ErrAuthRequired, apiErr.Message)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %w: notion: %s", domain.ErrUpstreamUnavailable, domain.ErrRateLimited, apiErr.Message)
		default:
			return fmt.Errorf("%w: notion %d: %s", domain.ErrUpstreamUnavailable, apiErr.Status, apiErr.Message)
		}
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: notion: %w", domain.ErrUpstreamUnavailable, err)
}
