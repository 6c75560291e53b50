package captions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/custodia-labs/briefcast/internal/core/domain"
	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
)

// Verify interface compliance at compile time.
var _ driven.CaptionExtractor = (*WatchPageExtractor)(nil)

// ErrNoTracks is returned when a watch page lists no caption tracks.
var ErrNoTracks = errors.New("no caption tracks")

const captionTracksKey = `"captionTracks":`

// captionTrack is one entry of the player configuration.
type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

// WatchPageExtractor finds caption tracks on the video's watch page.
type WatchPageExtractor struct {
	baseURL string
	client  *http.Client
}

// NewWatchPageExtractor creates an extractor. An empty baseURL uses
// DefaultBaseURL; a nil client gets a 20 second timeout.
func NewWatchPageExtractor(baseURL string, client *http.Client) *WatchPageExtractor {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &WatchPageExtractor{baseURL: baseURL, client: client}
}

// Name identifies the extractor in logs.
func (e *WatchPageExtractor) Name() string {
	return "watchpage"
}

// Extract reads the watch page, picks the best track for language and
// downloads it.
func (e *WatchPageExtractor) Extract(ctx context.Context, videoID, language string) (domain.ContentItem, error) {
	resp, err := get(ctx, e.client, e.baseURL+"/watch?v="+url.QueryEscape(videoID))
	if err != nil {
		return domain.ContentItem{}, err
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	resp.Body.Close()
	if err != nil {
		return domain.ContentItem{}, fmt.Errorf("parse watch page: %w", err)
	}

	title, _ := doc.Find(`meta[name="title"]`).Attr("content")
	if title == "" {
		title = strings.TrimSuffix(strings.TrimSpace(doc.Find("title").Text()), " - YouTube")
	}

	var tracks []captionTrack
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		raw := arrayAfter(s.Text(), captionTracksKey)
		if raw == "" {
			return true
		}
		if err := json.Unmarshal([]byte(raw), &tracks); err != nil {
			tracks = nil
			return true
		}
		return false
	})

	track, ok := pickTrack(tracks, language)
	if !ok {
		return domain.ContentItem{}, fmt.Errorf("video %s: %w", videoID, ErrNoTracks)
	}

	trackURL, err := e.resolve(track.BaseURL)
	if err != nil {
		return domain.ContentItem{}, err
	}
	trackResp, err := get(ctx, e.client, trackURL)
	if err != nil {
		return domain.ContentItem{}, err
	}
	defer trackResp.Body.Close()

	tr, err := ParseTrack(trackResp.Body)
	if err != nil {
		return domain.ContentItem{}, fmt.Errorf("video %s: %w", videoID, err)
	}
	return toItem(videoID, title, tr), nil
}

// resolve makes a track URL absolute against the base URL.
func (e *WatchPageExtractor) resolve(raw string) (string, error) {
	base, err := url.Parse(e.baseURL + "/")
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse track url: %w", err)
	}
	return base.ResolveReference(ref).String(), nil
}

// pickTrack prefers a manual track in language, then an automatic one in
// language, then any manual track, then the first track.
func pickTrack(tracks []captionTrack, language string) (captionTrack, bool) {
	if len(tracks) == 0 {
		return captionTrack{}, false
	}
	if language == "" {
		language = "en"
	}
	var auto, manual *captionTrack
	for i := range tracks {
		t := &tracks[i]
		matches := strings.EqualFold(t.LanguageCode, language) ||
			strings.HasPrefix(strings.ToLower(t.LanguageCode), strings.ToLower(language)+"-")
		switch {
		case matches && t.Kind != "asr":
			return *t, true
		case matches && auto == nil:
			auto = t
		case t.Kind != "asr" && manual == nil:
			manual = t
		}
	}
	if auto != nil {
		return *auto, true
	}
	if manual != nil {
		return *manual, true
	}
	return tracks[0], true
}

// arrayAfter returns the JSON array that follows key in text, matching
// brackets outside of string literals.
func arrayAfter(text, key string) string {
	i := strings.Index(text, key)
	if i < 0 {
		return ""
	}
	start := i + len(key)
	if start >= len(text) || text[start] != '[' {
		return ""
	}
	depth, inString, escaped := 0, false, false
	for j := start; j < len(text); j++ {
		c := text[j]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '[' || c == '{':
			depth++
		case c == ']' || c == '}':
			depth--
			if depth == 0 {
				return text[start : j+1]
			}
		}
	}
	return ""
}
