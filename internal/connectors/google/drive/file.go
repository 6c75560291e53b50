package drive

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"google.golang.org/api/drive/v3"

	"github.com/custodia-labs/briefcast/internal/core/domain"
)

// Google Workspace MIME types.
const (
	MimeTypeGoogleDoc    = "application/vnd.google-apps.document"
	MimeTypeGoogleSheet  = "application/vnd.google-apps.spreadsheet"
	MimeTypeGoogleSlides = "application/vnd.google-apps.presentation"
	MimeTypeFolder       = "application/vnd.google-apps.folder"
)

// Export formats for Google Workspace files.
const (
	ExportMimeText = "text/plain"
	ExportMimeCSV  = "text/csv"
)

// MaxExportSize is the maximum size for exported content (5MB).
const MaxExportSize = 5 * 1024 * 1024

// FileToItem converts a Drive file and its text to a content item.
func FileToItem(file *drive.File, content string, maxChars int) domain.ContentItem {
	item := domain.ContentItem{
		SourceID: file.Id,
		Provider: domain.ProviderDrive,
		Title:    file.Name,
		Body:     truncate(strings.TrimSpace(strings.TrimPrefix(content, "\ufeff")), maxChars),
		URL:      webLink(file),
	}
	if len(file.Owners) > 0 {
		item.Author = file.Owners[0].DisplayName
	}
	if t, err := time.Parse(time.RFC3339, file.ModifiedTime); err == nil {
		item.Timestamp = t
	}
	return item
}

// fetchFileContent retrieves the text content of a file.
func fetchFileContent(ctx context.Context, svc *drive.Service, file *drive.File) (string, error) {
	switch file.MimeType {
	case MimeTypeGoogleDoc, MimeTypeGoogleSlides:
		return exportGoogleFile(ctx, svc, file.Id, ExportMimeText)
	case MimeTypeGoogleSheet:
		return exportGoogleFile(ctx, svc, file.Id, ExportMimeCSV)
	}

	// Skip binary files or files that are too large
	if !isTextFile(file.MimeType) || file.Size > MaxExportSize {
		return "", nil
	}

	resp, err := svc.Files.Get(file.Id).Context(ctx).Download()
	if err != nil {
		return "", fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxExportSize))
	if err != nil {
		return "", fmt.Errorf("read file content: %w", err)
	}
	return string(data), nil
}

// exportGoogleFile exports a Google Workspace file to the specified format.
func exportGoogleFile(ctx context.Context, svc *drive.Service, fileID, exportMime string) (string, error) {
	resp, err := svc.Files.Export(fileID, exportMime).Context(ctx).Download()
	if err != nil {
		return "", fmt.Errorf("export file: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxExportSize))
	if err != nil {
		return "", fmt.Errorf("read export: %w", err)
	}
	return string(data), nil
}

// isTextFile checks if a MIME type is likely text content.
func isTextFile(mimeType string) bool {
	if strings.HasPrefix(mimeType, "text/") {
		return true
	}
	switch mimeType {
	case "application/json", "application/xml", "application/x-yaml":
		return true
	default:
		return false
	}
}

// mimeTypesFor returns the MIME types matching the enabled content types.
// Regular files are filtered after listing, so ContentFiles adds nothing.
func mimeTypesFor(cfg *Config) []string {
	var types []string
	if cfg.HasContentType(ContentDocs) {
		types = append(types, MimeTypeGoogleDoc)
	}
	if cfg.HasContentType(ContentSheets) {
		types = append(types, MimeTypeGoogleSheet)
	}
	return types
}

// ShouldInclude checks if a file should be narrated based on config.
func ShouldInclude(file *drive.File, cfg *Config) bool {
	if file.MimeType == MimeTypeFolder || file.Trashed {
		return false
	}
	switch file.MimeType {
	case MimeTypeGoogleDoc:
		return cfg.HasContentType(ContentDocs)
	case MimeTypeGoogleSheet:
		return cfg.HasContentType(ContentSheets)
	default:
		return cfg.HasContentType(ContentFiles) && isTextFile(file.MimeType)
	}
}

// webLink returns the stored view link, falling back to the file URL.
func webLink(file *drive.File) string {
	if file.WebViewLink != "" {
		return file.WebViewLink
	}
	return "https://drive.google.com/file/d/" + file.Id + "/view"
}

// truncate cuts s to at most maxChars runes, ending on a word boundary.
func truncate(s string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	cut := string([]rune(s)[:maxChars])
	if i := strings.LastIndexAny(cut, " \n\t"); i > maxChars/2 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut) + "…"
}
