package trends

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Trend is one trending search from the feed.
type Trend struct {
	Keyword   string
	Traffic   string
	Published time.Time
	News      []NewsItem
}

// NewsItem is a headline attached to a trend.
type NewsItem struct {
	Title  string
	URL    string
	Source string
}

// ParseFeed reads the trends RSS document. Namespaced elements such as
// ht:approx_traffic are matched by node name.
func ParseFeed(r io.Reader) ([]Trend, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse trends feed: %w", err)
	}

	var trends []Trend
	doc.Find("item").Each(func(_ int, item *goquery.Selection) {
		var t Trend
		item.Children().Each(func(_ int, c *goquery.Selection) {
			switch goquery.NodeName(c) {
			case "title":
				t.Keyword = clean(c.Text())
			case "ht:approx_traffic":
				t.Traffic = clean(c.Text())
			case "pubdate":
				t.Published = parseDate(clean(c.Text()))
			case "ht:news_item":
				t.News = append(t.News, parseNews(c))
			}
		})
		if t.Keyword != "" {
			trends = append(trends, t)
		}
	})
	return trends, nil
}

func parseNews(s *goquery.Selection) NewsItem {
	var n NewsItem
	s.Children().Each(func(_ int, c *goquery.Selection) {
		switch goquery.NodeName(c) {
		case "ht:news_item_title":
			n.Title = clean(c.Text())
		case "ht:news_item_url":
			n.URL = clean(c.Text())
		case "ht:news_item_source":
			n.Source = clean(c.Text())
		}
	})
	return n
}

func parseDate(s string) time.Time {
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, "Mon, 2 Jan 2006 15:04:05 -0700"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
