package connectors

import (
	"net/http"

	"github.com/custodia-labs/briefcast/internal/connectors/github"
	"github.com/custodia-labs/briefcast/internal/connectors/google/calendar"
	"github.com/custodia-labs/briefcast/internal/connectors/google/drive"
	"github.com/custodia-labs/briefcast/internal/connectors/google/gmail"
	"github.com/custodia-labs/briefcast/internal/connectors/google/youtube"
	"github.com/custodia-labs/briefcast/internal/connectors/notion"
	"github.com/custodia-labs/briefcast/internal/connectors/trends"
	"github.com/custodia-labs/briefcast/internal/core/domain"
	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
)

// Options configures the fetchers built by Build.
type Options struct {
	// HTTPClient is used by fetchers that call plain HTTP APIs. Nil uses
	// http.DefaultClient.
	HTTPClient *http.Client
	// Transcripts resolves video transcripts. Nil disables the video source.
	Transcripts youtube.Transcriber
	// TrendsRegion is the default region of the trend feed.
	TrendsRegion string
	// VideoDescriptionFallback narrates descriptions of videos without captions.
	VideoDescriptionFallback bool
}

// Set is the assembled fetchers.
type Set struct {
	Fetchers []driven.SourceFetcher
	// Signals supplies interest signals. Nil when the video source is disabled.
	Signals driven.InterestSignalSource
}

// ByProvider indexes the fetchers.
func (s Set) ByProvider() map[domain.Provider]driven.SourceFetcher {
	out := make(map[domain.Provider]driven.SourceFetcher, len(s.Fetchers))
	for _, f := range s.Fetchers {
		out[f.Provider()] = f
	}
	return out
}

// Build creates one fetcher for every provider.
func Build(opts Options) Set {
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	trendsCfg := trends.DefaultConfig()
	if opts.TrendsRegion != "" {
		trendsCfg.Region = opts.TrendsRegion
	}

	set := Set{
		Fetchers: []driven.SourceFetcher{
			gmail.NewFetcher(nil),
			calendar.NewFetcher(nil),
			drive.NewFetcher(nil),
			notion.NewFetcher(notion.DefaultConfig(), client),
			github.NewFetcher(github.ClientOptions{HTTPClient: client}),
			trends.NewFetcher(trendsCfg, client),
		},
	}

	if opts.Transcripts != nil {
		ytCfg := youtube.DefaultConfig()
		ytCfg.DescriptionFallback = opts.VideoDescriptionFallback
		yt := youtube.NewFetcher(ytCfg, opts.Transcripts)
		set.Fetchers = append(set.Fetchers, yt)
		set.Signals = yt
	}
	return set
}
