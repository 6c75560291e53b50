package notion

import (
	"strings"

	"github.com/jomei/notionapi"

	"github.com/custodia-labs/briefcast/internal/core/domain"
)

// PageTitle returns the plain text of the page's title property.
func PageTitle(page *notionapi.Page) string {
	for _, prop := range page.Properties {
		if tp, ok := prop.(*notionapi.TitleProperty); ok {
			return plainText(tp.Title)
		}
	}
	return ""
}

// PageToItem converts a page and its flattened body to a content item.
func PageToItem(page *notionapi.Page, body string) domain.ContentItem {
	title := PageTitle(page)
	if title == "" {
		title = "Untitled"
	}
	return domain.ContentItem{
		SourceID:  page.ID.String(),
		Provider:  domain.ProviderNotion,
		Title:     title,
		Body:      body,
		URL:       page.URL,
		Timestamp: page.LastEditedTime,
	}
}

// BlocksText flattens the text-bearing blocks into paragraphs, cut at
// maxChars on a word boundary.
func BlocksText(blocks []notionapi.Block, maxChars int) string {
	var paras []string
	for _, b := range blocks {
		if text := strings.TrimSpace(blockText(b)); text != "" {
			paras = append(paras, text)
		}
	}
	return truncate(strings.Join(paras, "\n"), maxChars)
}

func blockText(b notionapi.Block) string {
	switch v := b.(type) {
	case *notionapi.ParagraphBlock:
		return plainText(v.Paragraph.RichText)
	case *notionapi.Heading1Block:
		return plainText(v.Heading1.RichText)
	case *notionapi.Heading2Block:
		return plainText(v.Heading2.RichText)
	case *notionapi.Heading3Block:
		return plainText(v.Heading3.RichText)
	case *notionapi.BulletedListItemBlock:
		return bullet(plainText(v.BulletedListItem.RichText))
	case *notionapi.NumberedListItemBlock:
		return bullet(plainText(v.NumberedListItem.RichText))
	case *notionapi.ToDoBlock:
		return bullet(plainText(v.ToDo.RichText))
	default:
		return ""
	}
}

func bullet(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	return "- " + text
}

func plainText(rich []notionapi.RichText) string {
	var sb strings.Builder
	for _, rt := range rich {
		sb.WriteString(rt.PlainText)
	}
	return sb.String()
}

func truncate(s string, maxChars int) string {
	if maxChars <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	cut := string(runes[:maxChars])
	if i := strings.LastIndexAny(cut, " \n"); i > maxChars/2 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut) + "…"
}
