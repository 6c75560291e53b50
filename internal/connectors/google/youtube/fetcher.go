// Package youtube fetches recently liked videos with their transcripts for
// the video platform source, and supplies liked-video titles as interest
// signals.
package youtube

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/custodia-labs/briefcast/internal/connectors/google"
	"github.com/custodia-labs/briefcast/internal/core/domain"
	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
	"github.com/custodia-labs/briefcast/internal/logger"
)

// Verify interface compliance at compile time.
var (
	_ driven.SourceFetcher        = (*Fetcher)(nil)
	_ driven.InterestSignalSource = (*Fetcher)(nil)
)

// Transcriber resolves transcripts for an ordered batch of video ids and
// drops the ones without text.
type Transcriber interface {
	ExtractNonEmpty(ctx context.Context, videoIDs []string, language string) []domain.ContentItem
}

// Fetcher lists liked videos and attaches their transcripts.
type Fetcher struct {
	cfg         *Config
	transcripts Transcriber
	limiter     *google.RateLimiter
	opts        []option.ClientOption
}

// NewFetcher creates a YouTube fetcher. A nil cfg uses DefaultConfig.
func NewFetcher(cfg *Config, transcripts Transcriber, opts ...option.ClientOption) *Fetcher {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Fetcher{
		cfg:         cfg,
		transcripts: transcripts,
		limiter:     google.NewRateLimiter(google.ServiceYouTube),
		opts:        opts,
	}
}

// Provider returns the provider this fetcher serves.
func (f *Fetcher) Provider() domain.Provider {
	return domain.ProviderYouTube
}

// Fetch returns liked videos whose transcript could be resolved, with the
// transcript as body. When videos exist but none has a transcript, the
// fetch is reported as unavailable.
func (f *Fetcher) Fetch(ctx context.Context, req driven.FetchRequest) ([]domain.ContentItem, error) {
	limit := f.cfg.MaxResults
	if req.Limit > 0 && int64(req.Limit) < limit {
		limit = int64(req.Limit)
	}
	videos, err := f.likedVideos(ctx, req.Credential, limit)
	if err != nil {
		return nil, err
	}
	if len(videos) == 0 {
		return nil, nil
	}

	byID := make(map[string]*youtube.Video, len(videos))
	ids := make([]string, 0, len(videos))
	for _, v := range videos {
		byID[v.Id] = v
		ids = append(ids, v.Id)
	}

	var transcripts []domain.ContentItem
	if f.transcripts != nil {
		transcripts = f.transcripts.ExtractNonEmpty(ctx, ids, req.Language)
	}
	found := make(map[string]domain.ContentItem, len(transcripts))
	for _, tr := range transcripts {
		found[tr.SourceID] = tr
	}

	items := make([]domain.ContentItem, 0, len(ids))
	for _, id := range ids {
		item := VideoToItem(byID[id])
		if tr, ok := found[id]; ok {
			item.Body = tr.Body
			item.SegmentOffsets = tr.SegmentOffsets
		} else if f.cfg.DescriptionFallback {
			item.Body = description(byID[id], f.cfg.MaxDescriptionChars)
		}
		if item.Body != "" {
			items = append(items, item)
		}
	}

	logger.Debug("youtube: %d liked videos, %d transcripts", len(ids), len(transcripts))
	if len(transcripts) == 0 && len(items) == 0 {
		return nil, fmt.Errorf("%w: no transcripts for %d videos", domain.ErrUpstreamUnavailable, len(ids))
	}
	return items, nil
}

// InterestSignals returns the titles of recently liked videos.
func (f *Fetcher) InterestSignals(ctx context.Context, cred *domain.Credential, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 50
	}
	videos, err := f.likedVideos(ctx, cred, int64(limit))
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(videos))
	for _, v := range videos {
		if v.Snippet != nil && v.Snippet.Title != "" {
			titles = append(titles, v.Snippet.Title)
		}
	}
	return titles, nil
}

func (f *Fetcher) likedVideos(ctx context.Context, cred *domain.Credential, limit int64) ([]*youtube.Video, error) {
	svc, err := google.NewYouTubeService(ctx, cred, f.opts...)
	if err != nil {
		return nil, google.WrapServiceError(google.ServiceYouTube, err)
	}
	if limit > 50 {
		limit = 50
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
	}
	resp, err := svc.Videos.List([]string{"snippet"}).
		MyRating("like").
		MaxResults(limit).
		Context(ctx).
		Do()
	if err != nil {
		if google.IsRateLimited(err) {
			f.limiter.RecordRateLimitError(0)
		}
		return nil, fmt.Errorf("list liked videos: %w", google.WrapError(err))
	}
	return resp.Items, nil
}
