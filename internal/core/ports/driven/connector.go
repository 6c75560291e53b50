package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/briefcast/internal/core/domain"
)

// SourceFetcher returns a bounded slice of recent content from one provider.
//
// Implementations map provider auth failures to domain.ErrAuthRequired and
// other failures to domain.ErrUpstreamUnavailable. Returning items together
// with an error reports a partial fetch.
type SourceFetcher interface {
	// Provider returns the provider this fetcher serves.
	Provider() domain.Provider

	// Fetch retrieves recent content.
	Fetch(ctx context.Context, req FetchRequest) ([]domain.ContentItem, error)
}

// FetchRequest carries per-run inputs to a fetcher.
type FetchRequest struct {
	UserID string
	// Credential is nil for providers that need no auth.
	Credential *domain.Credential
	// Limit bounds the number of items returned.
	Limit int
	// Since is the oldest timestamp of interest.
	Since time.Time
	// Now anchors relative windows such as "today".
	Now time.Time
	// Location is the user's timezone.
	Location *time.Location
	// Region is a country code used by regional feeds.
	Region string
	// Language is the user's narration language.
	Language string
}

// CaptionExtractor resolves caption text for one video.
type CaptionExtractor interface {
	// Name identifies the extractor in logs.
	Name() string

	// Extract returns the transcript item for a video id.
	Extract(ctx context.Context, videoID, language string) (domain.ContentItem, error)
}

// InterestSignalSource supplies raw interest signals for a user, such as
// the titles of recently watched videos.
type InterestSignalSource interface {
	InterestSignals(ctx context.Context, cred *domain.Credential, limit int) ([]string, error)
}
