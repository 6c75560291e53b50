// Package gmail fetches recent inbox messages for the mail source.
package gmail

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/option"

	"github.com/custodia-labs/briefcast/internal/connectors/google"
	"github.com/custodia-labs/briefcast/internal/core/domain"
	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
)

// Verify interface compliance at compile time.
var _ driven.SourceFetcher = (*Fetcher)(nil)

// Fetcher lists recent messages and reads their metadata.
type Fetcher struct {
	cfg     *Config
	limiter *google.RateLimiter
	opts    []option.ClientOption
}

// NewFetcher creates a Gmail fetcher. A nil cfg uses DefaultConfig.
// Extra client options are appended after the credential's token source.
func NewFetcher(cfg *Config, opts ...option.ClientOption) *Fetcher {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Fetcher{
		cfg:     cfg,
		limiter: google.NewRateLimiter(google.ServiceGmail),
		opts:    opts,
	}
}

// Provider returns the provider this fetcher serves.
func (f *Fetcher) Provider() domain.Provider {
	return domain.ProviderGmail
}

// Fetch returns up to req.Limit recent messages, newest first. Messages that
// fail to load are skipped and reported alongside the rest.
func (f *Fetcher) Fetch(ctx context.Context, req driven.FetchRequest) ([]domain.ContentItem, error) {
	svc, err := google.NewGmailService(ctx, req.Credential, f.opts...)
	if err != nil {
		return nil, google.WrapServiceError(google.ServiceGmail, err)
	}

	limit := f.cfg.MaxResults
	if req.Limit > 0 && int64(req.Limit) < limit {
		limit = int64(req.Limit)
	}

	call := svc.Users.Messages.List("me").
		MaxResults(limit).
		IncludeSpamTrash(f.cfg.IncludeSpamTrash).
		Context(ctx)
	if len(f.cfg.LabelIDs) > 0 {
		call = call.LabelIds(f.cfg.LabelIDs...)
	}
	if q := buildQuery(f.cfg.Query, req.Since); q != "" {
		call = call.Q(q)
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
	}
	list, err := call.Do()
	if err != nil {
		if google.IsRateLimited(err) {
			f.limiter.RecordRateLimitError(0)
		}
		return nil, fmt.Errorf("list messages: %w", google.WrapError(err))
	}

	items := make([]domain.ContentItem, 0, len(list.Messages))
	var errs []error
	for _, ref := range list.Messages {
		if err := f.limiter.Wait(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err))
			break
		}
		msg, err := svc.Users.Messages.Get("me", ref.Id).
			Format("metadata").
			MetadataHeaders(metadataHeaders...).
			Context(ctx).
			Do()
		if err != nil {
			wrapped := google.WrapError(err)
			if errors.Is(wrapped, domain.ErrAuthRequired) {
				return items, fmt.Errorf("get message %s: %w", ref.Id, wrapped)
			}
			errs = append(errs, fmt.Errorf("get message %s: %w", ref.Id, wrapped))
			continue
		}
		if !ShouldInclude(msg, f.cfg) {
			continue
		}
		items = append(items, MessageToItem(msg))
	}

	return items, errors.Join(errs...)
}

// buildQuery appends a lower time bound to the configured query.
func buildQuery(base string, since time.Time) string {
	parts := []string{}
	if base = strings.TrimSpace(base); base != "" {
		parts = append(parts, base)
	}
	if !since.IsZero() {
		parts = append(parts, fmt.Sprintf("after:%d", since.Unix()))
	}
	return strings.Join(parts, " ")
}
