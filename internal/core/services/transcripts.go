package services

import (
	"context"
	"time"

	"github.com/custodia-labs/briefcast/internal/core/domain"
	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
	"github.com/custodia-labs/briefcast/internal/logger"
)

// DefaultTranscriptDelay is the pause after each caption extraction.
const DefaultTranscriptDelay = 1500 * time.Millisecond

// TranscriptService resolves caption text for videos one at a time, pausing
// after each, so that only one transcript is held in memory at once.
type TranscriptService struct {
	primary  driven.CaptionExtractor
	fallback driven.CaptionExtractor
	pacer    *Pacer
}

// NewTranscriptService creates a transcript service. fallback may be nil.
func NewTranscriptService(primary, fallback driven.CaptionExtractor, delay time.Duration) *TranscriptService {
	return &TranscriptService{
		primary:  primary,
		fallback: fallback,
		pacer:    NewPacer(delay, 1),
	}
}

// Extract returns one item per input id, in input order. An id whose
// extractors both fail maps to an empty item carrying only its SourceID.
func (s *TranscriptService) Extract(ctx context.Context, videoIDs []string, language string) []domain.ContentItem {
	out := make([]domain.ContentItem, len(videoIDs))
	for i, id := range videoIDs {
		out[i] = domain.ContentItem{SourceID: id, Provider: domain.ProviderYouTube}
	}
	s.pacer.Each(ctx, len(videoIDs), func(ctx context.Context, i int) {
		out[i] = s.extractOne(ctx, videoIDs[i], language)
	})
	return out
}

// ExtractNonEmpty runs Extract and drops the empty results.
func (s *TranscriptService) ExtractNonEmpty(ctx context.Context, videoIDs []string, language string) []domain.ContentItem {
	return FilterEmptyTranscripts(s.Extract(ctx, videoIDs, language))
}

func (s *TranscriptService) extractOne(ctx context.Context, id, language string) domain.ContentItem {
	empty := domain.ContentItem{SourceID: id, Provider: domain.ProviderYouTube}
	for _, ex := range []driven.CaptionExtractor{s.primary, s.fallback} {
		if ex == nil {
			continue
		}
		item, err := ex.Extract(ctx, id, language)
		if err != nil {
			logger.Debug("transcript %s via %s: %v", id, ex.Name(), err)
			continue
		}
		if item.Body == "" {
			logger.Debug("transcript %s via %s: empty", id, ex.Name())
			continue
		}
		item.SourceID = id
		item.Provider = domain.ProviderYouTube
		return item
	}
	logger.Info("no transcript for video %s", id)
	return empty
}

// FilterEmptyTranscripts drops items without transcript text.
func FilterEmptyTranscripts(items []domain.ContentItem) []domain.ContentItem {
	out := make([]domain.ContentItem, 0, len(items))
	for _, it := range items {
		if it.Body != "" {
			out = append(out, it)
		}
	}
	return out
}
