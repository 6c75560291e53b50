package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/custodia-labs/briefcast/internal/core/domain"
	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
	"github.com/custodia-labs/briefcast/internal/core/ports/driving"
	"github.com/custodia-labs/briefcast/internal/logger"
)

// Ensure Aggregator implements the interface.
var _ driving.ContentAggregator = (*Aggregator)(nil)

// AggregatorConfig bounds the provider fan-out.
type AggregatorConfig struct {
	// Concurrency is the maximum number of providers fetched at once.
	Concurrency int
	// FetchTimeout bounds each provider fetch.
	FetchTimeout time.Duration
	// ProviderTimeouts overrides FetchTimeout per provider.
	ProviderTimeouts map[domain.Provider]time.Duration
	// ItemLimit bounds the items requested from each provider.
	ItemLimit int
	// Lookback is how far back fetchers look for recent content.
	Lookback time.Duration
	// DefaultLocation is used when a user has no timezone.
	DefaultLocation *time.Location
}

// DefaultAggregatorConfig returns the default fan-out limits.
func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{
		Concurrency:  3,
		FetchTimeout: 30 * time.Second,
		ProviderTimeouts: map[domain.Provider]time.Duration{
			domain.ProviderYouTube: 3 * time.Minute,
		},
		ItemLimit:       10,
		Lookback:        24 * time.Hour,
		DefaultLocation: time.UTC,
	}
}

// Aggregator runs every enabled provider fetch for a user and collects a
// settled result per provider, whatever the individual outcomes.
type Aggregator struct {
	registry driving.ConnectorRegistry
	fetchers map[domain.Provider]driven.SourceFetcher
	metrics  driven.Metrics
	cfg      AggregatorConfig
	now      func() time.Time
}

// NewAggregator creates an aggregator over the given fetchers.
func NewAggregator(
	registry driving.ConnectorRegistry,
	fetchers []driven.SourceFetcher,
	metrics driven.Metrics,
	cfg AggregatorConfig,
) *Aggregator {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultAggregatorConfig().FetchTimeout
	}
	if cfg.DefaultLocation == nil {
		cfg.DefaultLocation = time.UTC
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	byProvider := make(map[domain.Provider]driven.SourceFetcher, len(fetchers))
	for _, f := range fetchers {
		byProvider[f.Provider()] = f
	}
	return &Aggregator{
		registry: registry,
		fetchers: byProvider,
		metrics:  metrics,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Providers returns the providers that have a fetcher.
func (a *Aggregator) Providers() []domain.Provider {
	var out []domain.Provider
	for _, p := range domain.AllProviders() {
		if _, ok := a.fetchers[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Aggregate fetches every requested provider. It never fails: each provider
// settles into ok, partial, unavailable or authRequired.
func (a *Aggregator) Aggregate(ctx context.Context, req driving.AggregateRequest) domain.AggregatedContent {
	providers := uniqueProviders(req.Providers)
	results := make(domain.AggregatedContent, len(providers))
	if len(providers) == 0 {
		return results
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	record := func(r domain.SourceFetchResult) {
		mu.Lock()
		results[r.Provider] = r
		mu.Unlock()
		a.metrics.SourceFetch(ctx, r.Provider, r.Status)
	}

	pool, err := ants.NewPool(a.cfg.Concurrency)
	if err != nil {
		logger.Warn("aggregator pool: %v; fetching sequentially", err)
	} else {
		defer pool.Release()
	}

	for _, p := range providers {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			record(a.fetchOne(ctx, req, p))
		}
		if pool == nil {
			task()
			continue
		}
		if err := pool.Submit(task); err != nil {
			logger.Warn("aggregator submit %s: %v; fetching inline", p, err)
			task()
		}
	}
	wg.Wait()

	succeeded, failed := results.Counts()
	logger.Info("aggregated %d items for %s: %d providers ok, %d failed", results.ItemCount(), req.UserID, succeeded, failed)
	return results
}

// fetchOne settles one provider. Panics inside a fetcher are recovered into
// an unavailable result.
func (a *Aggregator) fetchOne(ctx context.Context, req driving.AggregateRequest, p domain.Provider) (res domain.SourceFetchResult) {
	start := a.now()
	res = domain.SourceFetchResult{Provider: p}
	defer func() {
		if r := recover(); r != nil {
			res.Items = nil
			res.Status = domain.FetchUnavailable
			res.Error = fmt.Errorf("%w: %s fetcher panicked: %v", domain.ErrUpstreamUnavailable, p, r)
		}
		res.Duration = a.now().Sub(start)
		logger.Debug("fetch %s for %s: %s (%d items) in %s", p, req.UserID, res.Status, len(res.Items), res.Duration)
	}()

	fetcher, ok := a.fetchers[p]
	if !ok {
		res.Status = domain.FetchUnavailable
		res.Error = fmt.Errorf("%w: %s", domain.ErrUnsupportedProvider, p)
		return res
	}

	var cred *domain.Credential
	if p.RequiresAuth() {
		c, err := a.registry.GetValidCredential(ctx, req.UserID, p)
		if err != nil {
			res.Status = domain.FetchUnavailable
			if errors.Is(err, domain.ErrAuthRequired) {
				res.Status = domain.FetchAuthRequired
			}
			res.Error = err
			return res
		}
		cred = c
	}

	timeout := a.cfg.FetchTimeout
	if d, ok := a.cfg.ProviderTimeouts[p]; ok && d > 0 {
		timeout = d
	}
	fctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	now := a.now()
	items, err := fetcher.Fetch(fctx, driven.FetchRequest{
		UserID:     req.UserID,
		Credential: cred,
		Limit:      a.cfg.ItemLimit,
		Since:      now.Add(-a.cfg.Lookback),
		Now:        now,
		Location:   req.Settings.Location(a.cfg.DefaultLocation),
		Region:     req.Settings.TrendRegion,
		Language:   req.Settings.Language,
	})
	if err != nil && errors.Is(fctx.Err(), context.DeadlineExceeded) && !errors.Is(err, domain.ErrUpstreamUnavailable) {
		err = fmt.Errorf("%w: %s timed out after %s: %w", domain.ErrUpstreamUnavailable, p, timeout, err)
	}

	res.Items = keepNonEmpty(p, items)
	res.Error = err
	switch {
	case err == nil:
		res.Status = domain.FetchOK
	case len(res.Items) > 0:
		res.Status = domain.FetchPartial
	case errors.Is(err, domain.ErrAuthRequired):
		res.Status = domain.FetchAuthRequired
	default:
		res.Status = domain.FetchUnavailable
	}
	if err != nil {
		logger.Warn("fetch %s for %s: %v", p, req.UserID, err)
	}
	return res
}

func keepNonEmpty(p domain.Provider, items []domain.ContentItem) []domain.ContentItem {
	out := make([]domain.ContentItem, 0, len(items))
	for _, it := range items {
		if it.IsEmpty() {
			continue
		}
		if it.Provider == "" {
			it.Provider = p
		}
		out = append(out, it)
	}
	return out
}

func uniqueProviders(in []domain.Provider) []domain.Provider {
	seen := make(map[domain.Provider]bool, len(in))
	out := make([]domain.Provider, 0, len(in))
	for _, p := range in {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
