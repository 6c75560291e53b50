package notion

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jomei/notionapi"

	"github.com/custodia-labs/briefcast/internal/core/domain"
	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
	"github.com/custodia-labs/briefcast/internal/logger"
)

// Verify interface compliance at compile time.
var _ driven.SourceFetcher = (*Fetcher)(nil)

// Fetcher reads recently edited pages.
type Fetcher struct {
	cfg        Config
	httpClient *http.Client
}

// NewFetcher creates a Notion fetcher. A nil httpClient uses the library default.
func NewFetcher(cfg Config, httpClient *http.Client) *Fetcher {
	def := DefaultConfig()
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = def.MaxResults
	}
	if cfg.MaxBlocks <= 0 {
		cfg.MaxBlocks = def.MaxBlocks
	}
	if cfg.MaxBodyChars <= 0 {
		cfg.MaxBodyChars = def.MaxBodyChars
	}
	return &Fetcher{cfg: cfg, httpClient: httpClient}
}

// Provider returns the provider this fetcher serves.
func (f *Fetcher) Provider() domain.Provider {
	return domain.ProviderNotion
}

func (f *Fetcher) client(token string) *notionapi.Client {
	var opts []notionapi.ClientOption
	if f.httpClient != nil {
		opts = append(opts, notionapi.WithHTTPClient(f.httpClient))
	}
	return notionapi.NewClient(notionapi.Token(token), opts...)
}

// Fetch returns pages edited since req.Since, newest first.
func (f *Fetcher) Fetch(ctx context.Context, req driven.FetchRequest) ([]domain.ContentItem, error) {
	if req.Credential == nil || req.Credential.AccessToken == "" {
		return nil, fmt.Errorf("%w: no notion credential", domain.ErrAuthRequired)
	}
	client := f.client(req.Credential.AccessToken)

	limit := f.cfg.MaxResults
	if req.Limit > 0 && req.Limit < limit {
		limit = req.Limit
	}

	resp, err := client.Search.Do(ctx, &notionapi.SearchRequest{
		Filter: notionapi.SearchFilter{Value: "page", Property: "object"},
		Sort: &notionapi.SortObject{
			Direction: notionapi.SortOrderDESC,
			Timestamp: notionapi.TimestampLastEdited,
		},
		PageSize: limit,
	})
	if err != nil {
		return nil, wrapError(err)
	}

	var (
		items []domain.ContentItem
		errs  []error
	)
	for _, obj := range resp.Results {
		page, ok := obj.(*notionapi.Page)
		if !ok || page.Archived {
			continue
		}
		if !req.Since.IsZero() && page.LastEditedTime.Before(req.Since) {
			// Results are sorted newest first.
			break
		}

		children, err := client.Block.GetChildren(ctx, notionapi.BlockID(page.ID.String()), &notionapi.Pagination{PageSize: f.cfg.MaxBlocks})
		if err != nil {
			wrapped := wrapError(err)
			if errors.Is(wrapped, domain.ErrAuthRequired) {
				return items, wrapped
			}
			logger.Debug("notion: read blocks of %s: %v", page.ID, err)
			errs = append(errs, fmt.Errorf("page %s: %w", page.ID, wrapped))
			continue
		}

		items = append(items, PageToItem(page, BlocksText(children.Results, f.cfg.MaxBodyChars)))
		if len(items) == limit {
			break
		}
	}
	return items, errors.Join(errs...)
}
