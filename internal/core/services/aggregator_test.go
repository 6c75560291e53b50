package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/briefcast/internal/core/domain"
	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
	"github.com/custodia-labs/briefcast/internal/core/ports/driving"
)

func newTestAggregator(reg driving.ConnectorRegistry, fetchers ...driven.SourceFetcher) *Aggregator {
	cfg := DefaultAggregatorConfig()
	cfg.FetchTimeout = 50 * time.Millisecond
	cfg.ProviderTimeouts = nil
	return NewAggregator(reg, fetchers, nil, cfg)
}

// TestAggregator_MixedOutcomes tests one auth-required source among working ones
func TestAggregator_MixedOutcomes(t *testing.T) {
	reg := &stubRegistry{errs: map[domain.Provider]error{
		domain.ProviderCalendar: fmt.Errorf("%w: calendar not connected", domain.ErrAuthRequired),
	}}
	calendar := &stubFetcher{provider: domain.ProviderCalendar, items: items(domain.ProviderCalendar, 3)}
	video := &stubFetcher{provider: domain.ProviderYouTube, items: items(domain.ProviderYouTube, 5)}
	mail := &stubFetcher{provider: domain.ProviderGmail, items: items(domain.ProviderGmail, 2)}
	agg := newTestAggregator(reg, calendar, video, mail)

	res := agg.Aggregate(context.Background(), driving.AggregateRequest{
		UserID:    "u1",
		Providers: []domain.Provider{domain.ProviderCalendar, domain.ProviderYouTube, domain.ProviderGmail},
		Settings:  domain.DefaultUserSettings("u1"),
	})

	require.Len(t, res, 3)
	assert.Equal(t, domain.FetchAuthRequired, res[domain.ProviderCalendar].Status)
	assert.Equal(t, domain.FetchOK, res[domain.ProviderYouTube].Status)
	assert.Equal(t, domain.FetchOK, res[domain.ProviderGmail].Status)
	assert.Equal(t, 7, res.ItemCount())
	assert.Equal(t, int32(0), calendar.calls.Load())
	assert.Equal(t, domain.ProviderGmail, res[domain.ProviderGmail].Items[0].Provider)
}

// TestAggregator_FailureClassification tests partial, unavailable and timeout outcomes
func TestAggregator_FailureClassification(t *testing.T) {
	reg := &stubRegistry{}
	partial := &stubFetcher{provider: domain.ProviderGmail, items: items(domain.ProviderGmail, 1), err: errors.New("page 2 failed")}
	broken := &stubFetcher{provider: domain.ProviderDrive, err: fmt.Errorf("%w: 503", domain.ErrUpstreamUnavailable)}
	slow := &stubFetcher{provider: domain.ProviderNotion, block: true}
	revoked := &stubFetcher{provider: domain.ProviderGitHub, err: fmt.Errorf("%w: 401", domain.ErrAuthRequired)}
	agg := newTestAggregator(reg, partial, broken, slow, revoked)

	res := agg.Aggregate(context.Background(), driving.AggregateRequest{
		UserID: "u1",
		Providers: []domain.Provider{
			domain.ProviderGmail, domain.ProviderDrive, domain.ProviderNotion, domain.ProviderGitHub, domain.ProviderYouTube,
		},
	})

	assert.Equal(t, domain.FetchPartial, res[domain.ProviderGmail].Status)
	assert.Len(t, res[domain.ProviderGmail].Items, 1)
	assert.Equal(t, domain.FetchUnavailable, res[domain.ProviderDrive].Status)
	assert.Equal(t, domain.FetchUnavailable, res[domain.ProviderNotion].Status)
	assert.True(t, errors.Is(res[domain.ProviderNotion].Error, domain.ErrUpstreamUnavailable))
	assert.Equal(t, domain.FetchAuthRequired, res[domain.ProviderGitHub].Status)
	assert.Equal(t, domain.FetchUnavailable, res[domain.ProviderYouTube].Status)
	assert.True(t, errors.Is(res[domain.ProviderYouTube].Error, domain.ErrUnsupportedProvider))
}

// TestAggregator_PanicRecovered tests that a panicking fetcher does not take down the run
func TestAggregator_PanicRecovered(t *testing.T) {
	agg := newTestAggregator(&stubRegistry{},
		&stubFetcher{provider: domain.ProviderGmail, panics: true},
		&stubFetcher{provider: domain.ProviderTrends, items: items(domain.ProviderTrends, 2)},
	)

	res := agg.Aggregate(context.Background(), driving.AggregateRequest{
		UserID:    "u1",
		Providers: []domain.Provider{domain.ProviderGmail, domain.ProviderTrends},
	})

	assert.Equal(t, domain.FetchUnavailable, res[domain.ProviderGmail].Status)
	assert.Equal(t, domain.FetchOK, res[domain.ProviderTrends].Status)
}

// TestAggregator_AnySubsetNeverFails tests that every requested provider settles
func TestAggregator_AnySubsetNeverFails(t *testing.T) {
	all := []driven.SourceFetcher{
		&stubFetcher{provider: domain.ProviderGmail, items: items(domain.ProviderGmail, 1)},
		&stubFetcher{provider: domain.ProviderCalendar, err: errors.New("boom")},
		&stubFetcher{provider: domain.ProviderTrends, items: items(domain.ProviderTrends, 1)},
	}
	agg := newTestAggregator(&stubRegistry{}, all...)
	providers := []domain.Provider{domain.ProviderGmail, domain.ProviderCalendar, domain.ProviderTrends}

	for mask := 1; mask < 1<<len(providers); mask++ {
		var subset []domain.Provider
		for i, p := range providers {
			if mask&(1<<i) != 0 {
				subset = append(subset, p)
			}
		}
		res := agg.Aggregate(context.Background(), driving.AggregateRequest{UserID: "u1", Providers: subset})
		assert.Len(t, res, len(subset))
		for _, p := range subset {
			_, ok := res[p]
			assert.True(t, ok, "missing %s", p)
		}
	}
}

// TestAggregator_TrendsNeedNoCredential tests that unauthenticated providers skip the registry
func TestAggregator_TrendsNeedNoCredential(t *testing.T) {
	reg := &stubRegistry{errs: map[domain.Provider]error{domain.ProviderTrends: errors.New("should not be asked")}}
	trends := &stubFetcher{provider: domain.ProviderTrends, items: items(domain.ProviderTrends, 1)}
	agg := newTestAggregator(reg, trends)

	settings := domain.DefaultUserSettings("u1")
	settings.TrendRegion = "DE"
	res := agg.Aggregate(context.Background(), driving.AggregateRequest{
		UserID: "u1", Providers: []domain.Provider{domain.ProviderTrends}, Settings: settings,
	})

	assert.Equal(t, domain.FetchOK, res[domain.ProviderTrends].Status)
	assert.Nil(t, trends.lastReq.Credential)
	assert.Equal(t, "DE", trends.lastReq.Region)
	assert.Equal(t, []domain.Provider{domain.ProviderTrends}, agg.Providers())
}
