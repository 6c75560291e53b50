package gmail

import (
	"html"
	"strings"
	"time"

	"google.golang.org/api/gmail/v1"

	"github.com/custodia-labs/briefcast/internal/core/domain"
)

// metadataHeaders are the headers requested with each message.
var metadataHeaders = []string{"Subject", "From"}

// MessageToItem converts a Gmail message fetched in metadata format to a
// content item. The snippet becomes the body.
func MessageToItem(msg *gmail.Message) domain.ContentItem {
	title := header(msg, "Subject")
	if title == "" {
		title = "(no subject)"
	}

	item := domain.ContentItem{
		SourceID: msg.Id,
		Provider: domain.ProviderGmail,
		Title:    title,
		Body:     strings.TrimSpace(html.UnescapeString(msg.Snippet)),
		Author:   header(msg, "From"),
		URL:      ResolveWebURL(msg.Id),
	}
	if msg.InternalDate > 0 {
		item.Timestamp = time.UnixMilli(msg.InternalDate).UTC()
	}
	return item
}

// header returns the first value of a message header, case-insensitively.
func header(msg *gmail.Message, name string) string {
	if msg.Payload == nil {
		return ""
	}
	for _, h := range msg.Payload.Headers {
		if strings.EqualFold(h.Name, name) {
			return strings.TrimSpace(h.Value)
		}
	}
	return ""
}

// ShouldInclude checks if a message should be narrated based on config.
func ShouldInclude(msg *gmail.Message, cfg *Config) bool {
	if !hasRequiredLabel(msg.LabelIds, cfg.LabelIDs) {
		return false
	}
	if !cfg.IncludeSpamTrash && isSpamOrTrash(msg.LabelIds) {
		return false
	}
	return true
}

// hasRequiredLabel checks if any required label is present.
func hasRequiredLabel(msgLabels, requiredLabels []string) bool {
	if len(requiredLabels) == 0 {
		return true
	}
	for _, required := range requiredLabels {
		for _, msgLabel := range msgLabels {
			if required == msgLabel {
				return true
			}
		}
	}
	return false
}

// isSpamOrTrash checks if the message has spam or trash labels.
func isSpamOrTrash(labels []string) bool {
	for _, label := range labels {
		if label == "SPAM" || label == "TRASH" {
			return true
		}
	}
	return false
}
