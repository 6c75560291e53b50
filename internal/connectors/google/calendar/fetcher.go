// Package calendar fetches today's and tomorrow's events for the calendar
// source.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"google.golang.org/api/option"

	"github.com/custodia-labs/briefcast/internal/connectors/google"
	"github.com/custodia-labs/briefcast/internal/core/domain"
	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
)

// Verify interface compliance at compile time.
var _ driven.SourceFetcher = (*Fetcher)(nil)

// Fetcher reads upcoming events from the configured calendars.
type Fetcher struct {
	cfg     *Config
	limiter *google.RateLimiter
	opts    []option.ClientOption
}

// NewFetcher creates a Calendar fetcher. A nil cfg uses DefaultConfig.
func NewFetcher(cfg *Config, opts ...option.ClientOption) *Fetcher {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Fetcher{
		cfg:     cfg,
		limiter: google.NewRateLimiter(google.ServiceCalendar),
		opts:    opts,
	}
}

// Provider returns the provider this fetcher serves.
func (f *Fetcher) Provider() domain.Provider {
	return domain.ProviderCalendar
}

// Window returns the [start, end) range covered for a run at now in loc.
func (f *Fetcher) Window(now time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	days := f.cfg.Days
	if days < 1 {
		days = 1
	}
	return start, start.AddDate(0, 0, days)
}

// Fetch returns events in the window ordered by start time.
func (f *Fetcher) Fetch(ctx context.Context, req driven.FetchRequest) ([]domain.ContentItem, error) {
	svc, err := google.NewCalendarService(ctx, req.Credential, f.opts...)
	if err != nil {
		return nil, google.WrapServiceError(google.ServiceCalendar, err)
	}

	loc := req.Location
	if loc == nil {
		loc = time.UTC
	}
	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}
	start, end := f.Window(now, loc)

	limit := f.cfg.MaxResults
	if req.Limit > 0 && int64(req.Limit) < limit {
		limit = int64(req.Limit)
	}

	var (
		items []domain.ContentItem
		errs  []error
	)
	for _, calendarID := range f.cfg.CalendarIDs {
		if err := f.limiter.Wait(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err))
			break
		}
		events, err := svc.Events.List(calendarID).
			TimeMin(start.Format(time.RFC3339)).
			TimeMax(end.Format(time.RFC3339)).
			SingleEvents(true).
			OrderBy("startTime").
			ShowDeleted(false).
			MaxResults(limit).
			Context(ctx).
			Do()
		if err != nil {
			if google.IsRateLimited(err) {
				f.limiter.RecordRateLimitError(0)
			}
			wrapped := fmt.Errorf("list events of %s: %w", calendarID, google.WrapError(err))
			if errors.Is(wrapped, domain.ErrAuthRequired) {
				return items, wrapped
			}
			errs = append(errs, wrapped)
			continue
		}
		for _, event := range events.Items {
			if ShouldInclude(event) {
				items = append(items, EventToItem(event, loc))
			}
		}
	}

	if len(f.cfg.CalendarIDs) > 1 {
		sort.SliceStable(items, func(i, j int) bool { return items[i].Timestamp.Before(items[j].Timestamp) })
	}
	if int64(len(items)) > limit {
		items = items[:limit]
	}
	return items, errors.Join(errs...)
}
