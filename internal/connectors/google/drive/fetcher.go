// Package drive fetches recently modified documents for the document
// workspace source.
package drive

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/option"

	"github.com/custodia-labs/briefcast/internal/connectors/google"
	"github.com/custodia-labs/briefcast/internal/core/domain"
	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
)

// Verify interface compliance at compile time.
var _ driven.SourceFetcher = (*Fetcher)(nil)

// fileFields is the partial response requested when listing.
const fileFields = "files(id,name,mimeType,modifiedTime,webViewLink,size,trashed,owners(displayName))"

// Fetcher lists recently modified files and exports their text.
type Fetcher struct {
	cfg     *Config
	limiter *google.RateLimiter
	opts    []option.ClientOption
}

// NewFetcher creates a Drive fetcher. A nil cfg uses DefaultConfig.
func NewFetcher(cfg *Config, opts ...option.ClientOption) *Fetcher {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Fetcher{
		cfg:     cfg,
		limiter: google.NewRateLimiter(google.ServiceDrive),
		opts:    opts,
	}
}

// Provider returns the provider this fetcher serves.
func (f *Fetcher) Provider() domain.Provider {
	return domain.ProviderDrive
}

// Fetch returns recently modified files, most recent first. A file whose
// export fails is skipped and reported alongside the rest.
func (f *Fetcher) Fetch(ctx context.Context, req driven.FetchRequest) ([]domain.ContentItem, error) {
	svc, err := google.NewDriveService(ctx, req.Credential, f.opts...)
	if err != nil {
		return nil, google.WrapServiceError(google.ServiceDrive, err)
	}

	limit := f.cfg.MaxResults
	if req.Limit > 0 && int64(req.Limit) < limit {
		limit = int64(req.Limit)
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
	}
	list, err := svc.Files.List().
		Q(buildQuery(f.cfg, req.Since)).
		OrderBy("modifiedTime desc").
		PageSize(limit).
		Fields(fileFields).
		Context(ctx).
		Do()
	if err != nil {
		if google.IsRateLimited(err) {
			f.limiter.RecordRateLimitError(0)
		}
		return nil, fmt.Errorf("list files: %w", google.WrapError(err))
	}

	var (
		items []domain.ContentItem
		errs  []error
	)
	for _, file := range list.Files {
		if !ShouldInclude(file, f.cfg) {
			continue
		}
		if err := f.limiter.Wait(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err))
			break
		}
		content, err := fetchFileContent(ctx, svc, file)
		if err != nil {
			errs = append(errs, fmt.Errorf("read %s: %w", file.Id, google.WrapError(err)))
			continue
		}
		item := FileToItem(file, content, f.cfg.MaxBodyChars)
		if item.IsEmpty() {
			continue
		}
		items = append(items, item)
	}
	return items, errors.Join(errs...)
}

// buildQuery builds the Drive search query for enabled content types
// modified after since.
func buildQuery(cfg *Config, since time.Time) string {
	clauses := []string{"trashed = false"}

	var typeClauses []string
	for _, mt := range mimeTypesFor(cfg) {
		typeClauses = append(typeClauses, fmt.Sprintf("mimeType = '%s'", mt))
	}
	if cfg.HasContentType(ContentFiles) {
		typeClauses = append(typeClauses, "mimeType contains 'text/'")
	}
	if len(typeClauses) > 0 {
		clauses = append(clauses, "("+strings.Join(typeClauses, " or ")+")")
	}
	if !since.IsZero() {
		clauses = append(clauses, fmt.Sprintf("modifiedTime > '%s'", since.UTC().Format(time.RFC3339)))
	}
	return strings.Join(clauses, " and ")
}
