package trends

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/custodia-labs/briefcast/internal/core/domain"
	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
)

// DefaultBaseURL is the public trends site.
const DefaultBaseURL = "https://trends.google.com"

// Verify interface compliance at compile time.
var _ driven.SourceFetcher = (*Fetcher)(nil)

// Config holds trend feed settings.
type Config struct {
	BaseURL string
	// Region is used when the request carries none.
	Region     string
	MaxResults int
	// MaxHeadlines caps the headlines narrated per trend.
	MaxHeadlines int
}

// DefaultConfig returns the default settings.
func DefaultConfig() Config {
	return Config{BaseURL: DefaultBaseURL, Region: "US", MaxResults: 10, MaxHeadlines: 2}
}

// Fetcher reads the regional trending-searches feed.
type Fetcher struct {
	cfg    Config
	client *http.Client
}

// NewFetcher creates a trends fetcher. A nil client gets a 15 second timeout.
func NewFetcher(cfg Config, client *http.Client) *Fetcher {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Region == "" {
		cfg.Region = def.Region
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = def.MaxResults
	}
	if cfg.MaxHeadlines <= 0 {
		cfg.MaxHeadlines = def.MaxHeadlines
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Fetcher{cfg: cfg, client: client}
}

// Provider returns the provider this fetcher serves.
func (f *Fetcher) Provider() domain.Provider {
	return domain.ProviderTrends
}

// Fetch returns today's trending searches for the request region.
func (f *Fetcher) Fetch(ctx context.Context, req driven.FetchRequest) ([]domain.ContentItem, error) {
	region := strings.ToUpper(strings.TrimSpace(req.Region))
	if region == "" {
		region = f.cfg.Region
	}

	trends, err := f.Trends(ctx, region)
	if err != nil {
		return nil, err
	}

	limit := f.cfg.MaxResults
	if req.Limit > 0 && req.Limit < limit {
		limit = req.Limit
	}
	if len(trends) > limit {
		trends = trends[:limit]
	}

	items := make([]domain.ContentItem, 0, len(trends))
	for _, t := range trends {
		items = append(items, f.toItem(region, t))
	}
	return items, nil
}

// Trends downloads and parses the feed for a region.
func (f *Fetcher) Trends(ctx context.Context, region string) ([]Trend, error) {
	feedURL := f.cfg.BaseURL + "/trending/rss?" + url.Values{"geo": {region}}.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("User-Agent", "briefcast/1.0")

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: trends feed: %w", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: trends feed returned %s", domain.ErrUpstreamUnavailable, resp.Status)
	}

	trends, err := ParseFeed(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
	}
	return trends, nil
}

func (f *Fetcher) toItem(region string, t Trend) domain.ContentItem {
	var body strings.Builder
	fmt.Fprintf(&body, "Trending in %s: %s", region, t.Keyword)
	if t.Traffic != "" {
		fmt.Fprintf(&body, " (%s searches)", t.Traffic)
	}
	body.WriteString(".")

	link := f.cfg.BaseURL + "/explore?" + url.Values{"q": {t.Keyword}, "geo": {region}}.Encode()
	for i, n := range t.News {
		if i == f.cfg.MaxHeadlines {
			break
		}
		if n.Title == "" {
			continue
		}
		body.WriteString("\n")
		body.WriteString(n.Title)
		if n.Source != "" {
			body.WriteString(" (" + n.Source + ")")
		}
		if i == 0 && n.URL != "" {
			link = n.URL
		}
	}

	return domain.ContentItem{
		SourceID:  region + ":" + strings.ToLower(t.Keyword),
		Provider:  domain.ProviderTrends,
		Title:     t.Keyword,
		Body:      body.String(),
		Author:    t.Traffic,
		URL:       link,
		Timestamp: t.Published,
	}
}
