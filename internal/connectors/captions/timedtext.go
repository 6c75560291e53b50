package captions

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/custodia-labs/briefcast/internal/core/domain"
	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
)

// DefaultBaseURL is the public video site.
const DefaultBaseURL = "https://www.youtube.com"

// Verify interface compliance at compile time.
var _ driven.CaptionExtractor = (*TimedTextExtractor)(nil)

// TimedTextExtractor downloads a track from the timed-text endpoint.
type TimedTextExtractor struct {
	baseURL string
	client  *http.Client
}

// NewTimedTextExtractor creates an extractor. An empty baseURL uses
// DefaultBaseURL; a nil client gets a 20 second timeout.
func NewTimedTextExtractor(baseURL string, client *http.Client) *TimedTextExtractor {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &TimedTextExtractor{baseURL: baseURL, client: client}
}

// Name identifies the extractor in logs.
func (e *TimedTextExtractor) Name() string {
	return "timedtext"
}

// Extract fetches the track for videoID in language. An empty language
// defaults to English.
func (e *TimedTextExtractor) Extract(ctx context.Context, videoID, language string) (domain.ContentItem, error) {
	if language == "" {
		language = "en"
	}
	q := url.Values{"v": {videoID}, "lang": {language}}
	trackURL := e.baseURL + "/api/timedtext?" + q.Encode()

	resp, err := get(ctx, e.client, trackURL)
	if err != nil {
		return domain.ContentItem{}, err
	}
	defer resp.Body.Close()

	tr, err := ParseTrack(resp.Body)
	if err != nil {
		return domain.ContentItem{}, fmt.Errorf("video %s: %w", videoID, err)
	}
	return toItem(videoID, "", tr), nil
}

// get performs a GET and rejects non-200 responses.
func get(ctx context.Context, client *http.Client, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "briefcast/1.0")
	req.Header.Set("Accept-Language", "en")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s returned %s", domain.ErrUpstreamUnavailable, req.URL.Path, resp.Status)
	}
	return resp, nil
}

func toItem(videoID, title string, tr Transcript) domain.ContentItem {
	return domain.ContentItem{
		SourceID:       videoID,
		Provider:       domain.ProviderYouTube,
		Title:          title,
		Body:           tr.Text,
		URL:            DefaultBaseURL + "/watch?v=" + url.QueryEscape(videoID),
		SegmentOffsets: tr.Offsets,
	}
}
