package youtube

import (
	"strings"
	"time"
	"unicode/utf8"

	"google.golang.org/api/youtube/v3"

	"github.com/custodia-labs/briefcast/internal/core/domain"
)

// VideoToItem converts a video resource to a content item without a body.
func VideoToItem(v *youtube.Video) domain.ContentItem {
	item := domain.ContentItem{
		SourceID: v.Id,
		Provider: domain.ProviderYouTube,
		URL:      "https://www.youtube.com/watch?v=" + v.Id,
	}
	if v.Snippet != nil {
		item.Title = v.Snippet.Title
		item.Author = v.Snippet.ChannelTitle
		if t, err := time.Parse(time.RFC3339, v.Snippet.PublishedAt); err == nil {
			item.Timestamp = t
		}
	}
	return item
}

// description returns the video description cut to maxChars runes.
func description(v *youtube.Video, maxChars int) string {
	if v.Snippet == nil {
		return ""
	}
	d := strings.TrimSpace(v.Snippet.Description)
	if maxChars > 0 && utf8.RuneCountInString(d) > maxChars {
		d = strings.TrimSpace(string([]rune(d)[:maxChars])) + "…"
	}
	return d
}
